package archivefs

import (
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fsFixture(t *testing.T) *ArchiveFS {
	t.Helper()
	return openFixture(t, withTrailer(rawTar(
		rawTarHeader{name: "a/", typeflag: typeDir, mode: "0000755"},
		rawTarHeader{name: "a/b.txt", data: "bee"},
		rawTarHeader{name: "./a/link", typeflag: typeSymlink, linkname: "b.txt"},
		rawTarHeader{name: "implied/deep/file", data: "x"},
		rawTarHeader{name: "broken", uid: "nope"},
		rawTarHeader{name: "/top", data: "t"},
	))).FS()
}

func TestArchiveFSWalk(t *testing.T) {
	fsys := fsFixture(t)

	var walked []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		walked = append(walked, p)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		".",
		"a",
		"a/b.txt",
		"a/link",
		"implied",
		"implied/deep",
		"implied/deep/file",
		"top",
	}, walked)
}

func TestArchiveFSSkipsEscapingPaths(t *testing.T) {
	fsys := openFixture(t, withTrailer(rawTar(
		rawTarHeader{name: "../evil", data: "e"},
		rawTarHeader{name: "a/../../up/file", data: "u"},
		rawTarHeader{name: "ok", data: "k"},
	))).FS()

	entries, err := fs.ReadDir(fsys, ".")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"ok"}, names)

	var walked []string
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		walked = append(walked, p)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{".", "ok"}, walked)
}

func TestArchiveFSStat(t *testing.T) {
	fsys := fsFixture(t)

	info, err := fsys.Stat("a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "b.txt", info.Name())
	assert.Equal(t, int64(3), info.Size())
	assert.Equal(t, fs.FileMode(0o644), info.Mode())
	assert.False(t, info.IsDir())
	assert.IsType(t, &Entry{}, info.Sys())

	info, err = fsys.Stat("a")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, fs.ModeDir|0o755, info.Mode())

	info, err = fsys.Stat("a/link")
	require.NoError(t, err)
	assert.Equal(t, fs.ModeSymlink, info.Mode().Type())
	assert.Zero(t, info.Size())

	info, err = fsys.Stat("implied/deep")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Nil(t, info.Sys())

	_, err = fsys.Stat("broken")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = fsys.Stat("../escape")
	assert.ErrorIs(t, err, fs.ErrInvalid)
}

func TestArchiveFSOpen(t *testing.T) {
	fsys := fsFixture(t)

	f, err := fsys.Open("a/b.txt")
	require.NoError(t, err)
	_, err = f.Read(make([]byte, 8))
	assert.ErrorIs(t, err, errNoContent)
	require.NoError(t, f.Close())

	f, err = fsys.Open("a")
	require.NoError(t, err)
	dir, ok := f.(fs.ReadDirFile)
	require.True(t, ok)

	first, err := dir.ReadDir(1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "b.txt", first[0].Name())
	rest, err := dir.ReadDir(5)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "link", rest[0].Name())
	_, err = dir.ReadDir(1)
	assert.ErrorIs(t, err, io.EOF)
}

func TestArchiveFSReadDir(t *testing.T) {
	fsys := fsFixture(t)

	_, err := fsys.ReadDir("a/b.txt")
	assert.ErrorIs(t, err, errNotDir)

	entries, err := fs.ReadDir(fsys, "implied")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "deep", entries[0].Name())
	assert.True(t, entries[0].IsDir())
}

func TestArchiveFSSub(t *testing.T) {
	fsys := fsFixture(t)

	sub, err := fsys.Sub("implied")
	require.NoError(t, err)
	info, err := fs.Stat(sub, "deep/file")
	require.NoError(t, err)
	assert.Equal(t, "file", info.Name())

	_, err = fsys.Sub("a/b.txt")
	assert.Error(t, err)

	matches, err := fs.Glob(fsys, "a/*.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b.txt"}, matches)
}
