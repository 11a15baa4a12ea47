package localfs

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mholt/archivefs"
)

// makeTree creates:
//
//	f.txt      "hello"
//	run.sh     executable
//	sub/       with inner.txt
//	empty/
//	link       -> f.txt
//	dirlink    -> sub
//	dead       -> missing
//	chain      -> link
func makeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	write := func(name, body string, mode fs.FileMode) {
		p := filepath.Join(root, name)
		require.NoError(t, os.WriteFile(p, []byte(body), mode))
		require.NoError(t, os.Chmod(p, mode))
	}
	write("f.txt", "hello", 0o644)
	write("run.sh", "#!/bin/sh\n", 0o755)
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	write("sub/inner.txt", "inner", 0o644)
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))
	for name, target := range map[string]string{"link": "f.txt", "dirlink": "sub", "dead": "missing", "chain": "link"} {
		require.NoError(t, os.Symlink(target, filepath.Join(root, name)))
	}
	return root
}

func newFile(t *testing.T, root, name string, deref bool) *File {
	t.Helper()
	f, err := NewFile(filepath.Join(root, name), nil, deref)
	require.NoError(t, err)
	return f
}

func TestRegularFile(t *testing.T) {
	root := makeTree(t)
	f := newFile(t, root, "f.txt", false)

	assert.Equal(t, "f.txt", f.Name())
	assert.Equal(t, "txt", f.Extension())
	assert.True(t, f.IsFile())
	assert.False(t, f.IsDirectory())
	assert.False(t, f.IsLink())
	assert.Equal(t, archivefs.TypeFile, f.Type())
	assert.Equal(t, archivefs.SizeOf(5), f.Size())
	assert.False(t, f.IsExecutableFile())
	assert.False(t, f.IsEmptyDir())
	assert.Nil(t, f.ParentDirectory())

	perm, ok := f.Permissions()
	assert.True(t, ok)
	assert.Equal(t, fs.FileMode(0o644), perm)

	_, ok = f.ModifiedTime()
	assert.True(t, ok)

	abs, ok := f.AbsolutePath()
	assert.True(t, ok)
	assert.True(t, filepath.IsAbs(abs))

	d, err := f.ToDir()
	assert.NoError(t, err)
	assert.Nil(t, d)

	target := f.LinkTarget()
	assert.Equal(t, archivefs.TargetErr, target.Kind)

	assert.True(t, newFile(t, root, "run.sh", false).IsExecutableFile())
}

func TestDirectory(t *testing.T) {
	root := makeTree(t)
	sub := newFile(t, root, "sub", false)

	assert.True(t, sub.IsDirectory())
	assert.True(t, sub.PointsToDirectory())
	assert.Equal(t, archivefs.NoSize, sub.Size())
	assert.Equal(t, archivefs.TypeDirectory, sub.Type())
	assert.False(t, sub.IsEmptyDir())
	assert.True(t, newFile(t, root, "empty", false).IsEmptyDir())

	d, err := sub.ToDir()
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, filepath.Join(root, "sub"), d.Path())

	var names []string
	for f, err := range d.Files() {
		require.NoError(t, err)
		names = append(names, f.Name())
		assert.NotNil(t, f.ParentDirectory())
	}
	assert.Equal(t, []string{"inner.txt"}, names)
}

func TestSymlinks(t *testing.T) {
	root := makeTree(t)

	link := newFile(t, root, "link", false)
	assert.True(t, link.IsLink())
	assert.False(t, link.IsFile())
	assert.Equal(t, archivefs.TypeLink, link.Type())
	assert.Equal(t, archivefs.NoSize, link.Size())
	target := link.LinkTarget()
	require.Equal(t, archivefs.TargetOk, target.Kind)
	assert.Equal(t, filepath.Join(root, "f.txt"), target.Path)
	assert.True(t, target.File.IsFile())

	dead := newFile(t, root, "dead", false)
	target = dead.LinkTarget()
	assert.Equal(t, archivefs.TargetBroken, target.Kind)
	assert.Equal(t, "missing", target.Path)

	chain := newFile(t, root, "chain", false)
	assert.Equal(t, archivefs.TargetOk, chain.LinkTarget().Kind)
	assert.True(t, chain.LinkTarget().File.IsLink())
	final := chain.LinkTargetRecurse()
	require.Equal(t, archivefs.TargetOk, final.Kind)
	assert.Equal(t, "f.txt", final.File.Name())

	dirlink := newFile(t, root, "dirlink", false)
	assert.False(t, dirlink.IsDirectory())
	assert.True(t, dirlink.PointsToDirectory())
	d, err := dirlink.ToDir()
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestSymlinkLoop(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Symlink("b", filepath.Join(root, "a")))
	require.NoError(t, os.Symlink("a", filepath.Join(root, "b")))

	target := newFile(t, root, "a", false).LinkTargetRecurse()
	assert.Equal(t, archivefs.TargetErr, target.Kind)
	assert.Error(t, target.Err)
}

func TestDerefLinks(t *testing.T) {
	root := makeTree(t)

	f := newFile(t, root, "link", true)
	assert.True(t, f.DerefLinks())
	assert.True(t, f.IsFile())
	assert.Equal(t, archivefs.SizeOf(5), f.Size())

	dead := newFile(t, root, "dead", true)
	assert.True(t, dead.IsLink(), "a broken link keeps its own metadata")

	d, err := Open(root)
	require.NoError(t, err)
	d.DerefLinks = true
	for f, err := range d.Files() {
		require.NoError(t, err)
		if f.Name() == "link" {
			assert.True(t, f.IsFile())
		}
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = NewFile(filepath.Join(t.TempDir(), "nope"), nil, false)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDirFilesStopsEarly(t *testing.T) {
	d, err := Open(makeTree(t))
	require.NoError(t, err)
	assert.Len(t, d.Names(), 8)

	var seen int
	for range d.Files() {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}
