package archivefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentify(t *testing.T) {
	for _, tc := range []struct {
		path string
		want string // format name, or "" if unsupported
	}{
		{path: "a.tar", want: "tar"},
		{path: "dir/A.TAR", want: "tar"},
		{path: "backup.2024.tar", want: "tar"},
		{path: "a.tar.gz", want: "tar.gz"},
		{path: "a.TGZ", want: "tar.gz"},
		{path: "a.taz", want: "tar.gz"},
		{path: "a.tar.zst", want: "tar.zst"},
		{path: "a.tar.bz2", want: "tar.bz2"},
		{path: "a.tbz2", want: "tar.bz2"},
		{path: "a.tar.xz", want: "tar.xz"},
		{path: "a.txz", want: "tar.xz"},
		{path: "a.tar.lz4", want: "tar.lz4"},
		{path: "a.tar.br", want: "tar.br"},
		{path: "a.tar.lz", want: "tar.lz"},
		{path: "a.tar.sz", want: "tar.sz"},
		{path: "a.tar.s2", want: "tar.s2"},
		{path: "a.gz"},
		{path: "a.zip"},
		{path: "a.tar.gz.part"},
		{path: "noext"},
		{path: ".tar"},
		{path: "a.tar/inside"},
	} {
		r, err := Identify(tc.path)
		if tc.want == "" {
			assert.ErrorIs(t, err, ErrUnsupportedFormat, tc.path)
			assert.Nil(t, r, tc.path)
			continue
		}
		require.NoError(t, err, tc.path)
		assert.Equal(t, tc.want, r.Name(), tc.path)
	}
}

func TestExtensionCandidates(t *testing.T) {
	for in, want := range map[string][]string{
		"a.tar.gz":   {"tar.gz", "gz"},
		"A.B.C.TAR":  {"c.tar", "tar"},
		"file.tgz":   {"tgz"},
		".hidden.gz": {"gz"},
		"plain":      nil,
		".tar":       nil,
	} {
		assert.Equal(t, want, extensionCandidates(in), in)
	}
}

func TestFormatFromExtension(t *testing.T) {
	r, ok := FormatFromExtension(".TAR.GZ")
	require.True(t, ok)
	assert.Equal(t, "tar.gz", r.Name())

	_, ok = FormatFromExtension("rar")
	assert.False(t, ok)
}

func TestRegisterFormatTwice(t *testing.T) {
	assert.Panics(t, func() { RegisterFormat(Tar{}) })
}

func TestExtensions(t *testing.T) {
	exts := Extensions()
	assert.IsIncreasing(t, exts)
	for _, want := range []string{"tar", "tar.gz", "tgz", "tar.zst", "tar.xz"} {
		assert.Contains(t, exts, want)
	}
	for _, ext := range exts {
		_, ok := FormatFromExtension(ext)
		assert.True(t, ok, ext)
	}
}
