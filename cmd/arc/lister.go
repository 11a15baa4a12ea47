package main

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/units"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/mholt/archivefs"
	"github.com/mholt/archivefs/localfs"
)

var (
	dirColor    = color.New(color.FgBlue, color.Bold)
	linkColor   = color.New(color.FgCyan)
	brokenColor = color.New(color.FgRed)
	execColor   = color.New(color.FgGreen, color.Bold)
	errorColor  = color.New(color.FgRed)
)

// exitArgumentError is the exit status when a path given on the command
// line cannot be read.
const exitArgumentError = 2

// lister prints listings of files, directories and archives. It treats
// every entry through archivefs.Filelike, whichever backend it came from.
type lister struct {
	out, errOut io.Writer

	long, all, recurse, deref, human bool

	inspection archivefs.ArchiveInspection
	tar        archivefs.Tar
	log        *zap.Logger

	exitStatus int
}

// run lists the given paths: plain files first, then each directory.
func (l *lister) run(paths []string) int {
	var files []archivefs.Filelike
	var dirs []archivefs.Directory

	for _, p := range paths {
		f, err := localfs.NewFile(p, nil, l.deref)
		if err != nil {
			l.exitStatus = exitArgumentError
			fmt.Fprintf(l.errOut, "%s: %v\n", p, err)
			continue
		}

		d, err := l.expand(f, nil)
		switch {
		case err != nil:
			l.exitStatus = exitArgumentError
			fmt.Fprintf(l.errOut, "%s: %v\n", p, err)
		case d != nil:
			dirs = append(dirs, d)
		default:
			files = append(files, f)
		}
	}

	// a directory's name is printed before its listing unless it is the
	// only thing being listed
	noFiles := len(files) == 0
	l.printFiles(files)
	l.printDirs(dirs, noFiles, noFiles && len(dirs) == 1)

	return l.exitStatus
}

// expand returns the directory to list for f, or nil if f is listed as
// a single file. Entries of an archive expand within that archive; archive
// files on disk expand into their root if inspection is on.
func (l *lister) expand(f archivefs.Filelike, within *archivefs.Archive) (archivefs.Directory, error) {
	if e, ok := f.(*archivefs.Entry); ok {
		if within == nil || !e.IsDirectory() {
			return nil, nil
		}
		return within.Dir(e.Path()), nil
	}

	if f.IsFile() && l.inspection.Inspects(f.Path()) {
		arc, err := l.openArchive(f.Path())
		if err != nil {
			return nil, err
		}
		return arc.Dir(""), nil
	}

	return f.ToDir()
}

// openArchive opens an archive with the configured tar reader options.
func (l *lister) openArchive(path string) (*archivefs.Archive, error) {
	format, err := archivefs.Identify(path)
	if err != nil {
		return nil, err
	}
	switch r := format.(type) {
	case archivefs.Tar:
		format = l.tar
	case archivefs.CompressedTar:
		r.Tar = l.tar
		format = r
	}

	arc, err := archivefs.OpenWith(format, path)
	if err != nil {
		return nil, err
	}
	l.log.Debug("opened archive", zap.String("path", path), zap.String("format", format.Name()), zap.Int("records", arc.Len()))
	return arc, nil
}

func (l *lister) printDirs(dirs []archivefs.Directory, first, onlyDir bool) {
	for _, d := range dirs {
		if first {
			first = false
		} else {
			fmt.Fprintln(l.out)
		}

		var within *archivefs.Archive
		if ad, ok := d.(*archivefs.ArchiveDir); ok {
			within = ad.Archive()
		}
		label := dirLabel(d)
		if !onlyDir {
			fmt.Fprintf(l.out, "%s:\n", label)
		}

		var children []archivefs.Filelike
		for f, err := range d.Files() {
			if err != nil {
				fmt.Fprintln(l.errOut, errorColor.Sprintf("[%s: %v]", label, err))
				continue
			}
			if !l.all && strings.HasPrefix(f.Name(), ".") {
				continue
			}
			children = append(children, f)
		}
		sortFiles(children)
		l.printFiles(children)

		if !l.recurse {
			continue
		}
		var sub []archivefs.Directory
		for _, c := range children {
			if !c.IsDirectory() && !(c.IsFile() && within == nil && l.inspection.Inspects(c.Path())) {
				continue
			}
			cd, err := l.expand(c, within)
			if err != nil {
				fmt.Fprintln(l.errOut, errorColor.Sprintf("%s: %v", c.Path(), err))
				continue
			}
			if cd != nil {
				sub = append(sub, cd)
			}
		}
		l.printDirs(sub, false, false)
	}
}

func (l *lister) printFiles(files []archivefs.Filelike) {
	if len(files) == 0 {
		return
	}
	if !l.long {
		for _, f := range files {
			fmt.Fprintln(l.out, displayName(f))
		}
		return
	}

	tw := tabwriter.NewWriter(l.out, 1, 4, 1, ' ', 0)
	for _, f := range files {
		user, hasUser := f.User()
		group, hasGroup := f.Group()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t %s\n",
			permString(f),
			l.sizeString(f.Size()),
			ownerString(user, hasUser),
			ownerString(group, hasGroup),
			timeString(f.ModifiedTime()),
			displayName(f), // last cell, so colour codes do not upset the alignment
		)
	}
	if err := tw.Flush(); err != nil {
		l.log.Debug("flushing listing", zap.Error(err))
	}
}

func (l *lister) sizeString(s archivefs.Size) string {
	switch s.Kind {
	case archivefs.SizeBytes:
		if l.human {
			return units.Base2Bytes(int64(s.Bytes)).String()
		}
		return strconv.FormatUint(s.Bytes, 10)
	case archivefs.SizeDeviceIDs:
		return fmt.Sprintf("%d,%d", s.Major, s.Minor)
	}
	return "-"
}

// displayName returns the coloured name of f and, for links, its target.
func displayName(f archivefs.Filelike) string {
	switch {
	case f.IsDirectory():
		return dirColor.Sprint(f.Name())
	case f.IsLink():
		t := f.LinkTarget()
		switch t.Kind {
		case archivefs.TargetOk:
			return linkColor.Sprint(f.Name()) + " -> " + t.Path
		case archivefs.TargetBroken:
			return linkColor.Sprint(f.Name()) + " -> " + brokenColor.Sprint(t.Path)
		}
		return linkColor.Sprint(f.Name()) + " -> " + errorColor.Sprintf("[%v]", t.Err)
	case f.IsExecutableFile():
		return execColor.Sprint(f.Name())
	}
	return f.Name()
}

// permString renders the type character followed by rwx triplets, with
// the setuid, setgid and sticky bits shown in the execute positions.
func permString(f archivefs.Filelike) string {
	typeChar := f.Type().String()
	if f.Type() == archivefs.TypeFile {
		typeChar = "-"
	}
	perm, ok := f.Permissions()
	if !ok {
		return typeChar + "?????????"
	}

	var b strings.Builder
	b.WriteString(typeChar)
	const rwx = "rwx"
	for i := 0; i < 9; i++ {
		if perm&(1<<uint(8-i)) != 0 {
			b.WriteByte(rwx[i%3])
		} else {
			b.WriteByte('-')
		}
	}
	s := []byte(b.String())
	special := func(pos int, set bool, on, off byte) {
		if !set {
			return
		}
		if s[pos] == 'x' {
			s[pos] = on
		} else {
			s[pos] = off
		}
	}
	special(3, perm&fs.ModeSetuid != 0, 's', 'S')
	special(6, perm&fs.ModeSetgid != 0, 's', 'S')
	special(9, perm&fs.ModeSticky != 0, 't', 'T')
	return string(s)
}

func ownerString(o archivefs.Owner, ok bool) string {
	switch {
	case !ok:
		return "-"
	case o.Name != "":
		return o.Name
	}
	return strconv.FormatUint(o.ID, 10)
}

func timeString(t time.Time, ok bool) string {
	if !ok {
		return "-"
	}
	return t.Local().Format("Jan _2 15:04")
}

// dirLabel names a directory in listing headers. Levels of an archive
// are shown under the archive's own path.
func dirLabel(d archivefs.Directory) string {
	if ad, ok := d.(*archivefs.ArchiveDir); ok {
		if d.Path() == "" {
			return ad.Archive().Path
		}
		return filepath.Join(ad.Archive().Path, filepath.FromSlash(d.Path()))
	}
	return d.Path()
}

func sortFiles(files []archivefs.Filelike) {
	slices.SortStableFunc(files, func(a, b archivefs.Filelike) int {
		return strings.Compare(a.Name(), b.Name())
	})
}
