package archivefs

import (
	"fmt"
	"io"
	"os"
)

// Decompressor is a stream compression format that a tar archive can be
// wrapped in.
type Decompressor interface {
	// Extension returns the extension of the compression format
	// without the dot, e.g. "gz".
	Extension() string

	// OpenReader wraps r with a new reader that decompresses what is read.
	// The reader must be closed when reading is finished.
	OpenReader(r io.Reader) (io.ReadCloser, error)
}

// CompressedTar reads tar archives wrapped in a compression format, such
// as "tar.gz". The archive is decompressed as it is read; nothing is
// written to disk.
type CompressedTar struct {
	Compression Decompressor
	Tar         Tar

	// Short extensions that also select this format, e.g. "tgz".
	Aliases []string
}

func (ct CompressedTar) Name() string { return "tar." + ct.Compression.Extension() }

func (ct CompressedTar) Extensions() []string {
	return append([]string{ct.Name()}, ct.Aliases...)
}

// ReadDir reads every record of the compressed tar file at path. If the
// decompressor fails partway, the records read so far are kept and the
// failure is the last record.
func (ct CompressedTar) ReadDir(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rc, err := ct.Compression.OpenReader(f)
	if err != nil {
		return nil, fmt.Errorf("opening %s stream: %w", ct.Compression.Extension(), err)
	}
	defer rc.Close()

	// hide any Seek method of the decompressor so data is always
	// skipped by reading through the decompressed stream
	return ct.Tar.ReadStream(struct{ io.Reader }{rc}), nil
}

// Interface guard
var _ Reader = (*CompressedTar)(nil)
