package localfs

import (
	"iter"
	"os"
	"path/filepath"

	"github.com/mholt/archivefs"
)

// Dir is a directory on disk whose entry names have been read.
type Dir struct {
	path  string
	names []string

	// DerefLinks makes listed links report the metadata of their targets.
	DerefLinks bool
}

// Open reads the names of the entries in the directory at path.
func Open(path string) (*Dir, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return &Dir{path: path, names: names}, nil
}

func (d *Dir) Path() string { return d.path }

// Names returns the entry names in directory order.
func (d *Dir) Names() []string { return d.names }

// Files yields each entry of the directory. An entry that vanished or
// cannot be stat'ed since Open is yielded as an error.
func (d *Dir) Files() iter.Seq2[archivefs.Filelike, error] {
	return func(yield func(archivefs.Filelike, error) bool) {
		for _, name := range d.names {
			f, err := NewFile(filepath.Join(d.path, name), d, d.DerefLinks)
			var ok bool
			if err != nil {
				ok = yield(nil, err)
			} else {
				ok = yield(f, nil)
			}
			if !ok {
				return
			}
		}
	}
}

// Interface guard
var _ archivefs.Directory = (*Dir)(nil)
