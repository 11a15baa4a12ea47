//go:build linux

package localfs

import (
	"bytes"
	"io/fs"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/mholt/archivefs"
)

func statSys(_ string, info fs.FileInfo) sysInfo {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return sysInfo{}
	}
	return sysInfo{
		hasOwner:  true,
		uid:       uint64(st.Uid),
		gid:       uint64(st.Gid),
		hasDevice: true,
		dev:       uint64(st.Dev),
		inode:     uint64(st.Ino),
		nlink:     uint64(st.Nlink),
		hasBlocks: true,
		blocks:    uint64(st.Blocks),
		atime:     time.Unix(st.Atim.Unix()),
		ctime:     time.Unix(st.Ctim.Unix()),
		rdevMajor: unix.Major(uint64(st.Rdev)),
		rdevMinor: unix.Minor(uint64(st.Rdev)),
	}
}

// birthTime asks statx for the creation time, which not every file
// system records.
func birthTime(path string) (time.Time, bool) {
	var statx unix.Statx_t

	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &statx)
	if err != nil || statx.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}, false
	}

	return time.Unix(statx.Btime.Sec, int64(statx.Btime.Nsec)), true
}

// listXattrs reads the extended attributes of path without following a
// final symbolic link. Errors leave the list empty.
func listXattrs(path string) []archivefs.Attribute {
	size, err := unix.Llistxattr(path, nil)
	if err != nil || size <= 0 {
		return nil
	}
	buf := make([]byte, size)
	size, err = unix.Llistxattr(path, buf)
	if err != nil {
		return nil
	}

	var attrs []archivefs.Attribute
	for _, name := range bytes.Split(buf[:size], []byte{0}) {
		if len(name) == 0 {
			continue
		}
		attr := archivefs.Attribute{Name: string(name)}
		if n, err := unix.Lgetxattr(path, attr.Name, nil); err == nil && n > 0 {
			value := make([]byte, n)
			if n, err = unix.Lgetxattr(path, attr.Name, value); err == nil {
				attr.Value = value[:n]
			}
		}
		attrs = append(attrs, attr)
	}
	return attrs
}
