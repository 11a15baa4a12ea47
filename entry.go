package archivefs

import (
	"errors"
	"io/fs"
	"path"
	"strings"
	"time"
)

// Entry is one item inside an archive. It implements Filelike with the
// capabilities an archive can actually provide; everything a container
// format does not record (inodes, xattrs, devices, mounts) reports absent.
//
// Entries are immutable once built by a Reader.
type Entry struct {
	name string
	path string
	size uint64

	isDirectory bool
	isLink      bool
	linkTarget  string

	permissions    fs.FileMode
	hasPermissions bool
	user, group    *Owner

	mtime, atime, ctime *uint64
}

// errNoLinkTarget is returned in place of a link target for entries
// that did not record one.
var errNoLinkTarget = errors.New("no link target")

func (e *Entry) Name() string { return e.name }
func (e *Entry) Path() string { return e.path }

// AbsolutePath returns the path recorded in the archive. It does not
// include the location of the archive file itself.
func (e *Entry) AbsolutePath() (string, bool) { return e.path, true }

func (e *Entry) Extension() string { return Extension(e.path) }

func (e *Entry) IsDirectory() bool { return e.isDirectory }
func (e *Entry) IsLink() bool      { return e.isLink }
func (e *Entry) IsFile() bool      { return !e.isDirectory && !e.isLink }

// PointsToDirectory is the same as IsDirectory: links inside an archive
// are always broken, so none of them points anywhere.
func (e *Entry) PointsToDirectory() bool { return e.isDirectory }

// IsEmptyDir always reports false. Knowing better would take a scan of
// every other record in the archive.
func (e *Entry) IsEmptyDir() bool { return false }

func (e *Entry) Type() Type {
	switch {
	case e.isLink:
		return TypeLink
	case e.isDirectory:
		return TypeDirectory
	default:
		return TypeFile
	}
}

// Size returns NoSize for directories and links, whatever size the
// archive declared for them.
func (e *Entry) Size() Size {
	if e.isDirectory || e.isLink {
		return NoSize
	}
	return SizeOf(e.size)
}

func (e *Entry) Length() uint64        { return e.size }
func (e *Entry) IsRecursiveSize() bool { return false }

func (e *Entry) DerefLinks() bool { return false }

// LinkTarget never resolves the target against other entries of the
// archive or against the host file system.
func (e *Entry) LinkTarget() FileTarget {
	if e.linkTarget != "" {
		return BrokenTarget(e.linkTarget)
	}
	return ErrTarget(errNoLinkTarget)
}

func (e *Entry) LinkTargetRecurse() FileTarget { return e.LinkTarget() }

func (e *Entry) User() (Owner, bool)  { return ownerOf(e.user) }
func (e *Entry) Group() (Owner, bool) { return ownerOf(e.group) }

func (e *Entry) Permissions() (fs.FileMode, bool) { return e.permissions, e.hasPermissions }
func (e *Entry) IsExecutableFile() bool           { return false }

func (e *Entry) ModifiedTime() (time.Time, bool) { return unixTime(e.mtime) }
func (e *Entry) ChangedTime() (time.Time, bool)  { return unixTime(e.ctime) }
func (e *Entry) AccessedTime() (time.Time, bool) { return unixTime(e.atime) }
func (e *Entry) CreatedTime() (time.Time, bool)  { return time.Time{}, false }

func (e *Entry) IsPipe() bool               { return false }
func (e *Entry) IsSocket() bool             { return false }
func (e *Entry) IsCharDevice() bool         { return false }
func (e *Entry) IsBlockDevice() bool        { return false }
func (e *Entry) IsMountPoint() bool         { return false }
func (e *Entry) MountPointInfo() *MountedFS { return nil }

func (e *Entry) Links() Links                     { return Links{} }
func (e *Entry) Inode() uint64                    { return 0 }
func (e *Entry) Blocksize() (uint64, bool)        { return 0, false }
func (e *Entry) ExtendedAttributes() []Attribute  { return nil }
func (e *Entry) SecurityContext() SecurityContext { return SecurityContext{} }
func (e *Entry) Flags() uint32                    { return 0 }
func (e *Entry) Attributes() Attributes           { return Attributes{Readonly: true} }

func (e *Entry) Metadata() fs.FileInfo      { return nil }
func (e *Entry) ParentDirectory() Directory { return nil }

// ToDir reports that an entry cannot be opened as a directory on its own;
// use Archive.Dir with the entry's path to list its children.
func (e *Entry) ToDir() (Directory, error) { return nil, nil }

func ownerOf(o *Owner) (Owner, bool) {
	if o == nil {
		return Owner{}, false
	}
	return *o, true
}

func unixTime(sec *uint64) (time.Time, bool) {
	if sec == nil || *sec > maxUnixSeconds {
		return time.Time{}, false
	}
	return time.Unix(int64(*sec), 0), true
}

// maxUnixSeconds bounds timestamps to what time.Time can represent
// after conversion to int64.
const maxUnixSeconds = 1<<63 - 1

// entryName returns the final segment of an archive path, ignoring
// trailing slashes. A path made only of slashes is its own name.
func entryName(p string) string {
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return p
	}
	return path.Base(trimmed)
}

// cleanPath maps the different ways an archive can spell a directory
// onto one form, so "./a/", "a/" and "a" compare equal. The archive root
// is "".
func cleanPath(p string) string {
	c := path.Clean(p)
	if c == "." || c == "/" {
		return ""
	}
	return c
}

// parentPath returns the cleaned parent of p, and false if p is the
// archive root itself.
func parentPath(p string) (string, bool) {
	c := cleanPath(p)
	if c == "" {
		return "", false
	}
	return cleanPath(path.Dir(c)), true
}

// Interface guard
var _ Filelike = (*Entry)(nil)
