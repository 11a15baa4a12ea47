package archivefs

import (
	"io/fs"
	"iter"
	"path"
	"strings"
	"time"
)

// Filelike is the capability set a listing engine needs from anything it
// can display: a file or directory on disk, or an entry inside an archive.
//
// Every method is total. A backend that cannot supply a capability returns
// the documented absent value (false, zero, NoSize, nil) instead of failing,
// so callers never have to know which backend produced a value.
type Filelike interface {
	// Name returns the final path segment.
	Name() string

	// Path returns the path of the file as the backend knows it. For
	// archive entries this is the path recorded inside the archive.
	Path() string

	// AbsolutePath returns the absolute path, if the backend has one.
	AbsolutePath() (string, bool)

	// Extension returns the lowercase text after the last dot of the
	// name, or "" if there is none.
	Extension() string

	IsDirectory() bool
	IsFile() bool
	IsLink() bool
	PointsToDirectory() bool
	IsEmptyDir() bool
	Type() Type

	// Size returns the size to display; directories and links usually
	// report NoSize. Length returns the raw size without that rule.
	Size() Size
	Length() uint64
	IsRecursiveSize() bool

	// DerefLinks reports whether links are transparently followed.
	DerefLinks() bool
	LinkTarget() FileTarget
	LinkTargetRecurse() FileTarget

	User() (Owner, bool)
	Group() (Owner, bool)
	Permissions() (fs.FileMode, bool)
	IsExecutableFile() bool

	ModifiedTime() (time.Time, bool)
	ChangedTime() (time.Time, bool)
	AccessedTime() (time.Time, bool)
	CreatedTime() (time.Time, bool)

	IsPipe() bool
	IsSocket() bool
	IsCharDevice() bool
	IsBlockDevice() bool
	IsMountPoint() bool
	MountPointInfo() *MountedFS

	Links() Links
	// Inode returns 0 when there is no inode.
	Inode() uint64
	Blocksize() (uint64, bool)
	ExtendedAttributes() []Attribute
	SecurityContext() SecurityContext
	Flags() uint32
	// Attributes returns the Windows-style attribute bits.
	Attributes() Attributes

	// Metadata returns the host file info, or nil for entries that do
	// not come from the host file system.
	Metadata() fs.FileInfo

	// ParentDirectory returns the directory the file was listed from,
	// or nil if there is none.
	ParentDirectory() Directory

	// ToDir opens the file as a directory. It returns (nil, nil) when
	// the file cannot be reinterpreted as a directory at all, and an
	// error when it could be but opening failed.
	ToDir() (Directory, error)
}

// Directory is one level of a hierarchy that can be listed.
type Directory interface {
	Path() string

	// Files yields the children of the directory. A child that could
	// not be read is yielded as a nil Filelike with a non-nil error,
	// and iteration continues.
	Files() iter.Seq2[Filelike, error]
}

// Type is the single-character classification shown in long listings.
type Type byte

const (
	TypeFile        Type = '.'
	TypeDirectory   Type = 'd'
	TypePipe        Type = '|'
	TypeLink        Type = 'l'
	TypeBlockDevice Type = 'b'
	TypeCharDevice  Type = 'c'
	TypeSocket      Type = 's'
	TypeSpecial     Type = '?'
)

func (t Type) String() string { return string(rune(t)) }

// SizeKind tags the value held by a Size.
type SizeKind int

const (
	SizeNone SizeKind = iota
	SizeBytes
	SizeDeviceIDs
)

// Size is either a byte count, a device's major/minor numbers, or "not
// applicable" (the zero value).
type Size struct {
	Kind         SizeKind
	Bytes        uint64
	Major, Minor uint32
}

// NoSize is the size of entries for which a size makes no sense.
var NoSize = Size{}

// SizeOf returns a known size of n bytes.
func SizeOf(n uint64) Size { return Size{Kind: SizeBytes, Bytes: n} }

// DeviceSize returns the size of a device node.
func DeviceSize(major, minor uint32) Size {
	return Size{Kind: SizeDeviceIDs, Major: major, Minor: minor}
}

// Known returns the byte count and whether there is one.
func (s Size) Known() (uint64, bool) { return s.Bytes, s.Kind == SizeBytes }

// TargetKind tags the outcome held by a FileTarget.
type TargetKind int

const (
	TargetOk TargetKind = iota
	TargetBroken
	TargetErr
)

// FileTarget is the result of resolving a link. Ok carries the resolved
// file, Broken carries the unresolvable target path, and Err carries the
// reason nothing could be read at all.
type FileTarget struct {
	Kind TargetKind
	File Filelike
	Path string
	Err  error
}

func OkTarget(f Filelike) FileTarget      { return FileTarget{Kind: TargetOk, File: f, Path: f.Path()} }
func BrokenTarget(path string) FileTarget { return FileTarget{Kind: TargetBroken, Path: path} }
func ErrTarget(err error) FileTarget      { return FileTarget{Kind: TargetErr, Err: err} }

// Owner is a user or group as recorded by a backend. Name is empty when
// only the numeric ID is known.
type Owner struct {
	ID   uint64
	Name string
}

// Links describes the hard link count of a file.
type Links struct {
	Count    uint64
	Multiple bool
}

// MountedFS describes the file system mounted at a mount point.
type MountedFS struct {
	Dest   string
	FSType string
	Source string
}

// Attribute is one extended attribute.
type Attribute struct {
	Name  string
	Value []byte
}

// SecurityContextKind says which security module a context belongs to.
type SecurityContextKind int

const (
	SecurityContextNone SecurityContextKind = iota
	SecurityContextSELinux
)

// SecurityContext is a file's label in a mandatory access control system.
type SecurityContext struct {
	Kind    SecurityContextKind
	Context string
}

// Attributes holds the Windows file attribute bits.
type Attributes struct {
	Archive      bool
	Directory    bool
	Readonly     bool
	Hidden       bool
	System       bool
	ReparsePoint bool
}

// Extension returns the lowercase extension of the final segment of
// name, without the dot. Names that start with their only dot have none.
func Extension(name string) string {
	base := path.Base(strings.TrimRight(name, "/"))
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}
