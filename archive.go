// Package archivefs exposes the contents of archive files through the
// same Filelike interface as files on disk, so the code that sorts,
// filters and renders a listing does not need to know where the entries
// came from.
//
// An Archive is opened once; its whole entry table is read eagerly and
// the file is closed again. Directory levels are then listed from the flat
// list of records by comparing parent paths:
//
//	arc, err := archivefs.Open("backup.tar.gz")
//	if err != nil {
//		return err
//	}
//	for rec := range arc.Files("etc").Seq() {
//		if rec.Err != nil {
//			fmt.Fprintln(os.Stderr, rec.Err)
//			continue
//		}
//		fmt.Println(rec.Entry.Name())
//	}
package archivefs

import (
	"fmt"
	"iter"
)

// Record is the outcome of reading one raw record of an archive:
// exactly one of Entry and Err is set.
type Record struct {
	Entry *Entry
	Err   *Error
}

// Archive holds the parsed records of one archive file. It is immutable
// after Open and safe to list from several goroutines at once.
type Archive struct {
	// Format is the reader that parsed the archive.
	Format Reader

	// Path is the location of the archive file.
	Path string

	contents []Record
}

// Open reads the entry table of the archive at path, choosing the reader
// by the file's extension. Records that could not be parsed are kept as
// errors in the listing; Open fails only if no reader is registered for
// the extension, or if the reader cannot read the file at all.
func Open(path string) (*Archive, error) {
	format, err := Identify(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return OpenWith(format, path)
}

// OpenWith is like Open but uses the given reader.
func OpenWith(format Reader, path string) (*Archive, error) {
	contents, err := format.ReadDir(path)
	if err != nil {
		return nil, err
	}
	return &Archive{
		Format:   format,
		Path:     path,
		contents: contents,
	}, nil
}

// Len returns the number of records in the archive, errors included.
func (a *Archive) Len() int { return len(a.contents) }

// Records returns every record in the order the reader emitted them.
// The slice must not be modified.
func (a *Archive) Records() []Record { return a.contents }

// Files returns an iterator over the direct children of root, a path
// inside the archive; "" (or ".") is the archive root. Every error
// record is yielded too, since a record without a readable path cannot
// be placed anywhere.
//
// Each call scans all records once; no index is kept.
func (a *Archive) Files(root string) *Iterator {
	return &Iterator{records: a.contents, root: cleanPath(root)}
}

// Dir returns the directory level at root as a Directory.
func (a *Archive) Dir(root string) *ArchiveDir {
	return &ArchiveDir{archive: a, root: root}
}

// Iterator yields the records of one directory level of an archive.
// Records are borrowed from the Archive, not copied.
type Iterator struct {
	records []Record
	root    string
	pos     int
}

// Next returns the next matching record, or false when there are none.
func (it *Iterator) Next() (*Record, bool) {
	for it.pos < len(it.records) {
		rec := &it.records[it.pos]
		it.pos++
		if rec.Err != nil {
			return rec, true
		}
		if parent, ok := parentPath(rec.Entry.path); ok && parent == it.root {
			return rec, true
		}
	}
	return nil, false
}

// Seq returns the remaining records of the iterator as an iter.Seq.
func (it *Iterator) Seq() iter.Seq[*Record] {
	return func(yield func(*Record) bool) {
		for {
			rec, ok := it.Next()
			if !ok || !yield(rec) {
				return
			}
		}
	}
}

// ArchiveDir is one directory level of an archive, listed as a Directory.
type ArchiveDir struct {
	archive *Archive
	root    string
}

// Path returns the path of the level inside the archive.
func (d *ArchiveDir) Path() string { return d.root }

// Archive returns the archive the level belongs to.
func (d *ArchiveDir) Archive() *Archive { return d.archive }

// Files yields the entries of the level, and each error record of the
// archive as a nil Filelike with its error.
func (d *ArchiveDir) Files() iter.Seq2[Filelike, error] {
	return func(yield func(Filelike, error) bool) {
		for rec := range d.archive.Files(d.root).Seq() {
			var ok bool
			if rec.Err != nil {
				ok = yield(nil, rec.Err)
			} else {
				ok = yield(rec.Entry, nil)
			}
			if !ok {
				return
			}
		}
	}
}

// Interface guard
var _ Directory = (*ArchiveDir)(nil)
