// Package localfs lists files and directories of the host file system
// through the archivefs.Filelike interface, so they can be rendered by
// the same code as archive entries.
package localfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mholt/archivefs"
)

// File is a file, directory or other node on disk.
type File struct {
	name   string
	path   string
	info   fs.FileInfo
	sys    sysInfo
	parent *Dir
	deref  bool
}

// sysInfo is the part of a file's metadata that os.FileInfo does not
// expose portably. Fields are zero where the platform does not provide them.
type sysInfo struct {
	hasOwner  bool
	uid, gid  uint64
	hasDevice bool
	dev       uint64
	inode     uint64
	nlink     uint64
	hasBlocks bool
	blocks    uint64
	atime     time.Time
	ctime     time.Time
	rdevMajor uint32
	rdevMinor uint32
	flags     uint32
}

// maxLinkDepth bounds how many links LinkTargetRecurse follows.
const maxLinkDepth = 40

var errNotALink = errors.New("not a symbolic link")

// NewFile reads the metadata of the file at path. If derefLinks is set
// and the file is a symbolic link, the metadata of its target is used
// instead when the target exists.
func NewFile(path string, parent *Dir, derefLinks bool) (*File, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	if derefLinks && info.Mode()&fs.ModeSymlink != 0 {
		if target, err := os.Stat(path); err == nil {
			info = target
		}
	}
	return &File{
		name:   filepath.Base(path),
		path:   path,
		info:   info,
		sys:    statSys(path, info),
		parent: parent,
		deref:  derefLinks,
	}, nil
}

func (f *File) Name() string { return f.name }
func (f *File) Path() string { return f.path }

func (f *File) AbsolutePath() (string, bool) {
	abs, err := filepath.Abs(f.path)
	if err != nil {
		return "", false
	}
	return abs, true
}

func (f *File) Extension() string { return archivefs.Extension(f.name) }

func (f *File) mode() fs.FileMode { return f.info.Mode() }

func (f *File) IsDirectory() bool { return f.info.IsDir() }
func (f *File) IsFile() bool      { return f.mode().IsRegular() }
func (f *File) IsLink() bool      { return f.mode()&fs.ModeSymlink != 0 }

func (f *File) PointsToDirectory() bool {
	if !f.IsLink() {
		return f.IsDirectory()
	}
	target, err := os.Stat(f.path)
	return err == nil && target.IsDir()
}

func (f *File) IsEmptyDir() bool {
	if !f.IsDirectory() {
		return false
	}
	d, err := os.Open(f.path)
	if err != nil {
		return false
	}
	defer d.Close()
	_, err = d.Readdirnames(1)
	return errors.Is(err, io.EOF)
}

func (f *File) Type() archivefs.Type {
	m := f.mode()
	switch {
	case m.IsRegular():
		return archivefs.TypeFile
	case m.IsDir():
		return archivefs.TypeDirectory
	case m&fs.ModeSymlink != 0:
		return archivefs.TypeLink
	case m&fs.ModeNamedPipe != 0:
		return archivefs.TypePipe
	case m&fs.ModeSocket != 0:
		return archivefs.TypeSocket
	case m&fs.ModeCharDevice != 0:
		return archivefs.TypeCharDevice
	case m&fs.ModeDevice != 0:
		return archivefs.TypeBlockDevice
	}
	return archivefs.TypeSpecial
}

func (f *File) Size() archivefs.Size {
	switch {
	case f.IsDirectory() || f.IsLink():
		return archivefs.NoSize
	case f.IsCharDevice() || f.IsBlockDevice():
		return archivefs.DeviceSize(f.sys.rdevMajor, f.sys.rdevMinor)
	}
	return archivefs.SizeOf(f.Length())
}

func (f *File) Length() uint64 {
	if f.info.Size() < 0 {
		return 0
	}
	return uint64(f.info.Size())
}

func (f *File) IsRecursiveSize() bool { return false }
func (f *File) DerefLinks() bool      { return f.deref }

// LinkTarget reads the target of a symbolic link. The target is Broken
// if it does not exist.
func (f *File) LinkTarget() archivefs.FileTarget {
	if !f.IsLink() {
		return archivefs.ErrTarget(errNotALink)
	}
	target, err := os.Readlink(f.path)
	if err != nil {
		return archivefs.ErrTarget(err)
	}
	resolved := target
	if !filepath.IsAbs(target) {
		resolved = filepath.Join(filepath.Dir(f.path), target)
	}
	tf, err := NewFile(resolved, nil, false)
	if err != nil {
		return archivefs.BrokenTarget(target)
	}
	return archivefs.OkTarget(tf)
}

// LinkTargetRecurse follows links until it reaches something else.
func (f *File) LinkTargetRecurse() archivefs.FileTarget {
	t := f.LinkTarget()
	for i := 0; i < maxLinkDepth; i++ {
		if t.Kind != archivefs.TargetOk || !t.File.IsLink() {
			return t
		}
		t = t.File.LinkTarget()
	}
	return archivefs.ErrTarget(errors.New("too many levels of symbolic links"))
}

func (f *File) User() (archivefs.Owner, bool) {
	if !f.sys.hasOwner {
		return archivefs.Owner{}, false
	}
	return archivefs.Owner{ID: f.sys.uid, Name: userName(f.sys.uid)}, true
}

func (f *File) Group() (archivefs.Owner, bool) {
	if !f.sys.hasOwner {
		return archivefs.Owner{}, false
	}
	return archivefs.Owner{ID: f.sys.gid, Name: groupName(f.sys.gid)}, true
}

func (f *File) Permissions() (fs.FileMode, bool) {
	return f.mode() & (fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky), true
}

func (f *File) IsExecutableFile() bool {
	return f.IsFile() && f.mode().Perm()&0o111 != 0
}

func (f *File) ModifiedTime() (time.Time, bool) { return f.info.ModTime(), true }
func (f *File) ChangedTime() (time.Time, bool)  { return f.sys.ctime, !f.sys.ctime.IsZero() }
func (f *File) AccessedTime() (time.Time, bool) { return f.sys.atime, !f.sys.atime.IsZero() }
func (f *File) CreatedTime() (time.Time, bool)  { return birthTime(f.path) }

func (f *File) IsPipe() bool        { return f.mode()&fs.ModeNamedPipe != 0 }
func (f *File) IsSocket() bool      { return f.mode()&fs.ModeSocket != 0 }
func (f *File) IsCharDevice() bool  { return f.mode()&fs.ModeCharDevice != 0 }
func (f *File) IsBlockDevice() bool { return f.mode()&fs.ModeDevice != 0 && !f.IsCharDevice() }

// IsMountPoint reports whether the directory lives on a different device
// than its parent.
func (f *File) IsMountPoint() bool {
	if !f.IsDirectory() || !f.sys.hasDevice {
		return false
	}
	abs, ok := f.AbsolutePath()
	if !ok {
		return false
	}
	parentPath := filepath.Dir(abs)
	if parentPath == abs {
		return true // the file system root
	}
	parent, err := os.Stat(parentPath)
	if err != nil {
		return false
	}
	return statSys(parentPath, parent).dev != f.sys.dev
}

func (f *File) MountPointInfo() *archivefs.MountedFS { return nil }

func (f *File) Links() archivefs.Links {
	return archivefs.Links{Count: f.sys.nlink, Multiple: f.IsFile() && f.sys.nlink > 1}
}

func (f *File) Inode() uint64 { return f.sys.inode }

func (f *File) Blocksize() (uint64, bool) {
	if f.IsDirectory() || !f.sys.hasBlocks {
		return 0, false
	}
	return f.sys.blocks * 512, true
}

func (f *File) ExtendedAttributes() []archivefs.Attribute { return listXattrs(f.path) }

func (f *File) SecurityContext() archivefs.SecurityContext {
	for _, attr := range f.ExtendedAttributes() {
		if attr.Name == "security.selinux" {
			return archivefs.SecurityContext{
				Kind:    archivefs.SecurityContextSELinux,
				Context: strings.TrimRight(string(attr.Value), "\x00"),
			}
		}
	}
	return archivefs.SecurityContext{}
}

func (f *File) Flags() uint32 { return f.sys.flags }

func (f *File) Attributes() archivefs.Attributes {
	return archivefs.Attributes{
		Directory: f.IsDirectory(),
		Readonly:  f.mode().Perm()&0o200 == 0,
		Hidden:    strings.HasPrefix(f.name, "."),
	}
}

func (f *File) Metadata() fs.FileInfo { return f.info }

func (f *File) ParentDirectory() archivefs.Directory {
	if f.parent == nil {
		return nil
	}
	return f.parent
}

// ToDir opens the file as a directory if it is one or links to one.
func (f *File) ToDir() (archivefs.Directory, error) {
	if !f.PointsToDirectory() {
		return nil, nil
	}
	d, err := Open(f.path)
	if err != nil {
		return nil, err
	}
	d.DerefLinks = f.deref
	return d, nil
}

// userName looks up the name of a user, returning "" if there is none.
func userName(uid uint64) string {
	u, err := user.LookupId(strconv.FormatUint(uid, 10))
	if err != nil {
		return ""
	}
	return u.Username
}

func groupName(gid uint64) string {
	g, err := user.LookupGroupId(strconv.FormatUint(gid, 10))
	if err != nil {
		return ""
	}
	return g.Name
}

// Interface guard
var _ archivefs.Filelike = (*File)(nil)
