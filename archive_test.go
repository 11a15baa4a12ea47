package archivefs

import (
	"io/fs"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFixture(t *testing.T, data []byte) *Archive {
	t.Helper()
	arc, err := Open(writeFile(t, "fixture.tar", data))
	require.NoError(t, err)
	return arc
}

func listPaths(arc *Archive, root string) []string {
	var out []string
	for rec := range arc.Files(root).Seq() {
		if rec.Err != nil {
			out = append(out, "error: "+rec.Err.Error())
			continue
		}
		out = append(out, rec.Entry.Path())
	}
	return out
}

func TestArchiveFiles(t *testing.T) {
	arc := openFixture(t, buildTar(t,
		dirRecord("a/"),
		regFile("a/b.txt", "b"),
		dirRecord("a/c/"),
		regFile("a/c/d.txt", "d"),
	))
	assert.Equal(t, 4, arc.Len())

	for _, tc := range []struct {
		root string
		want []string
	}{
		{root: "", want: []string{"a/"}},
		{root: ".", want: []string{"a/"}},
		{root: "a", want: []string{"a/b.txt", "a/c/"}},
		{root: "a/", want: []string{"a/b.txt", "a/c/"}},
		{root: "./a", want: []string{"a/b.txt", "a/c/"}},
		{root: "a/c", want: []string{"a/c/d.txt"}},
		{root: "a/b.txt", want: nil},
		{root: "missing", want: nil},
	} {
		assert.Equal(t, tc.want, listPaths(arc, tc.root), "root %q", tc.root)
	}
}

func TestArchiveFilesMixedSpellings(t *testing.T) {
	arc := openFixture(t, buildTar(t,
		dirRecord("./"),
		dirRecord("./x/"),
		regFile("./x/one", "1"),
		regFile("x/two", "2"),
		regFile("/abs", "3"),
	))

	assert.Equal(t, []string{"./x/", "/abs"}, listPaths(arc, ""))
	assert.Equal(t, []string{"./x/one", "x/two"}, listPaths(arc, "x"))
}

func TestArchiveFilesForwardsErrors(t *testing.T) {
	arc := openFixture(t, withTrailer(rawTar(
		rawTarHeader{name: "dir/ok.txt", data: "ok"},
		rawTarHeader{name: "dir/bad.txt", uid: "xyz"},
		rawTarHeader{name: "other/ok.txt", data: "ok"},
	)))

	for _, root := range []string{"", "dir", "other", "nowhere"} {
		var errs int
		for rec := range arc.Files(root).Seq() {
			if rec.Err != nil {
				errs++
			}
		}
		assert.Equal(t, 1, errs, "root %q", root)
	}
	assert.Equal(t, []string{"dir/ok.txt", "error: dir/bad.txt: invalid uid field in header: \"xyz\" is not an octal number"}, listPaths(arc, "dir"))
}

func TestArchiveIterator(t *testing.T) {
	arc := openFixture(t, buildTar(t, regFile("one", "1"), regFile("two", "2")))

	it := arc.Files("")
	rec, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, "one", rec.Entry.Name())
	rec, ok = it.Next()
	require.True(t, ok)
	assert.Equal(t, "two", rec.Entry.Name())
	_, ok = it.Next()
	assert.False(t, ok)
	_, ok = it.Next()
	assert.False(t, ok, "an exhausted iterator stays exhausted")

	assert.Same(t, &arc.Records()[0], firstRecord(arc.Files("")), "records are borrowed from the archive")

	var seen int
	for range arc.Files("").Seq() {
		seen++
		break
	}
	assert.Equal(t, 1, seen)
}

func firstRecord(it *Iterator) *Record {
	rec, _ := it.Next()
	return rec
}

func TestArchiveDeterministic(t *testing.T) {
	data := withTrailer(rawTar(
		rawTarHeader{name: "a", data: "a"},
		rawTarHeader{name: "b", typeflag: '!'},
		rawTarHeader{name: "c", typeflag: typeSymlink, linkname: "a"},
	))
	path := writeFile(t, "same.tar", data)

	first, err := Open(path)
	require.NoError(t, err)
	second, err := Open(path)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Records(), second.Records(), cmp.AllowUnexported(Entry{}, Error{})); diff != "" {
		t.Errorf("records differ between opens (-first +second):\n%s", diff)
	}
}

func TestArchiveConcurrentListing(t *testing.T) {
	arc := openFixture(t, buildTar(t, dirRecord("d/"), regFile("d/f", "f"), regFile("g", "g")))

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = listPaths(arc, "d")
		}()
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, []string{"d/f"}, got)
	}
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(writeFile(t, "archive.zip", []byte("PK")))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Open(writeFile(t, "x", nil) + "-missing.tar")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestArchiveDir(t *testing.T) {
	arc := openFixture(t, withTrailer(rawTar(
		rawTarHeader{name: "dir/", typeflag: typeDir},
		rawTarHeader{name: "dir/f", data: "f"},
		rawTarHeader{name: "dir/broken", typeflag: '!'},
	)))

	d := arc.Dir("dir/")
	assert.Equal(t, "dir/", d.Path())
	assert.Same(t, arc, d.Archive())

	var names []string
	var errs []error
	for f, err := range d.Files() {
		if err != nil {
			assert.Nil(t, f)
			errs = append(errs, err)
			continue
		}
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"f"}, names)
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "unknown entry type")
}
