package archivefs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"path"
	"slices"
	"strings"
	"time"
)

// ArchiveFS is a read-only fs.FS over the listing of an Archive, so that
// code written against io/fs (fs.WalkDir, fs.Glob) can browse an archive.
// Only the entry table is available: files can be opened and stat'ed but
// have no content.
//
// Directories that exist only as the parent of other entries are listed
// as implicit directories. Records that could not be parsed have no place
// in the tree and are left out; Archive.Files yields them.
type ArchiveFS struct {
	Archive *Archive

	// Prefix roots the file system at a directory inside the archive.
	// It is set by Sub.
	Prefix string
}

// FS returns an fs.FS over the archive's listing.
func (a *Archive) FS() *ArchiveFS { return &ArchiveFS{Archive: a} }

var (
	errNoContent = errors.New("archive entry contents are not available")
	errNotDir    = errors.New("not a directory")
)

// Open opens the named file or directory from within the archive.
func (f ArchiveFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	info, err := f.stat(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	if !info.IsDir() {
		return &entryFile{name: name, info: info}, nil
	}
	entries, err := f.readDir(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &dirFile{entryFile: entryFile{name: name, info: info}, entries: entries}, nil
}

// Stat returns the metadata of the named file from within the archive.
// If name is "." the root of the archive is described as a directory.
func (f ArchiveFS) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	info, err := f.stat(name)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
	}
	return info, nil
}

// ReadDir reads the named directory from within the archive, sorted by
// file name.
func (f ArchiveFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	info, err := f.stat(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: errNotDir}
	}
	entries, err := f.readDir(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	return entries, nil
}

// Sub returns an FS corresponding to the subtree rooted at dir.
func (f ArchiveFS) Sub(dir string) (fs.FS, error) {
	if !fs.ValidPath(dir) {
		return nil, &fs.PathError{Op: "sub", Path: dir, Err: fs.ErrInvalid}
	}
	info, err := f.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &ArchiveFS{Archive: f.Archive, Prefix: path.Join(f.Prefix, dir)}, nil
}

// fsPath maps an archive path onto the unrooted form io/fs uses;
// the root is "".
func fsPath(p string) string {
	return strings.TrimPrefix(cleanPath(p), "/")
}

func (f ArchiveFS) stat(name string) (fs.FileInfo, error) {
	p := fsPath(path.Join(f.Prefix, name))
	if p == "" {
		return implicitDirInfo{implicitDirEntry{path.Base(name)}}, nil
	}

	implied := false
	for _, rec := range f.Archive.contents {
		if rec.Entry == nil {
			continue
		}
		switch ep := fsPath(rec.Entry.path); {
		case ep == p:
			return entryInfo{rec.Entry}, nil
		case strings.HasPrefix(ep, p+"/"):
			implied = true
		}
	}
	if implied {
		return implicitDirInfo{implicitDirEntry{path.Base(p)}}, nil
	}
	return nil, fs.ErrNotExist
}

func (f ArchiveFS) readDir(name string) ([]fs.DirEntry, error) {
	p := fsPath(path.Join(f.Prefix, name))

	// keyed by name so that real entries replace implicit ones and later
	// records replace earlier ones of the same path
	entries := make(map[string]fs.DirEntry)
	for _, rec := range f.Archive.contents {
		if rec.Entry == nil {
			continue
		}
		rel := fsPath(rec.Entry.path)
		if p != "" {
			var ok bool
			if rel, ok = strings.CutPrefix(rel, p+"/"); !ok {
				continue
			}
		}
		// paths that climb out of the archive root have no io/fs name
		if rel == "" || !fs.ValidPath(rel) {
			continue
		}
		if child, _, nested := strings.Cut(rel, "/"); nested {
			if _, ok := entries[child]; !ok {
				entries[child] = implicitDirEntry{child}
			}
			continue
		}
		entries[rel] = fs.FileInfoToDirEntry(entryInfo{rec.Entry})
	}

	list := make([]fs.DirEntry, 0, len(entries))
	for _, e := range entries {
		list = append(list, e)
	}
	slices.SortFunc(list, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return list, nil
}

// entryInfo describes an Entry as an fs.FileInfo. Sys returns the *Entry.
type entryInfo struct {
	e *Entry
}

func (i entryInfo) Name() string { return i.e.name }

func (i entryInfo) Size() int64 {
	if !i.e.IsFile() || i.e.size > math.MaxInt64 {
		return 0
	}
	return int64(i.e.size)
}

func (i entryInfo) Mode() fs.FileMode {
	m := i.e.permissions
	switch {
	case i.e.isDirectory:
		m |= fs.ModeDir
	case i.e.isLink:
		m |= fs.ModeSymlink
	}
	return m
}

func (i entryInfo) ModTime() time.Time {
	t, _ := i.e.ModifiedTime()
	return t
}

func (i entryInfo) IsDir() bool { return i.e.isDirectory }
func (i entryInfo) Sys() any    { return i.e }

// entryFile is an opened entry. It can be stat'ed but not read.
type entryFile struct {
	name string
	info fs.FileInfo
}

func (ef *entryFile) Stat() (fs.FileInfo, error) { return ef.info, nil }

func (ef *entryFile) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: ef.name, Err: errNoContent}
}

func (ef *entryFile) Close() error { return nil }

// dirFile implements the fs.ReadDirFile interface.
type dirFile struct {
	entryFile
	entries     []fs.DirEntry
	entriesRead int
}

func (df *dirFile) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: df.name, Err: errors.New("is a directory")}
}

func (df *dirFile) ReadDir(n int) ([]fs.DirEntry, error) {
	rest := df.entries[df.entriesRead:]
	if n <= 0 {
		df.entriesRead = len(df.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(rest))
	df.entriesRead += n
	return rest[:n], nil
}

// implicitDirEntry represents a directory that does
// not actually exist in the archive but is inferred
// from the paths of actual files in the archive.
type implicitDirEntry struct {
	name string
}

func (e implicitDirEntry) Name() string    { return e.name }
func (implicitDirEntry) IsDir() bool       { return true }
func (implicitDirEntry) Type() fs.FileMode { return fs.ModeDir }
func (e implicitDirEntry) Info() (fs.FileInfo, error) {
	return implicitDirInfo{e}, nil
}

// implicitDirInfo is a fs.FileInfo for an implicit directory
// (implicitDirEntry) value.
type implicitDirInfo struct {
	implicitDirEntry
}

func (d implicitDirInfo) Name() string      { return d.name }
func (implicitDirInfo) Size() int64         { return 0 }
func (d implicitDirInfo) Mode() fs.FileMode { return d.Type() | 0o555 }
func (implicitDirInfo) ModTime() time.Time  { return time.Time{} }
func (implicitDirInfo) Sys() any            { return nil }

// Interface guards
var (
	_ fs.ReadDirFS   = (*ArchiveFS)(nil)
	_ fs.StatFS      = (*ArchiveFS)(nil)
	_ fs.SubFS       = (*ArchiveFS)(nil)
	_ fs.ReadDirFile = (*dirFile)(nil)
)
