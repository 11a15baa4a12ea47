package archivefs

import (
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"
)

func init() {
	RegisterFormat(CompressedTar{Compression: Gz{}, Aliases: []string{"tgz", "taz"}})
}

// Gz facilitates gzip decompression.
type Gz struct {
	// DisableMultistream controls whether the reader supports multistream files.
	// See https://pkg.go.dev/compress/gzip#example-Reader.Multistream
	DisableMultistream bool

	// Use a fast parallel Gzip implementation. This is only
	// effective for large streams (about 1 MB or greater).
	Multithreaded bool
}

func (Gz) Extension() string { return "gz" }

func (gz Gz) OpenReader(r io.Reader) (io.ReadCloser, error) {
	if gz.Multithreaded {
		gzR, err := pgzip.NewReader(r)
		if gzR != nil && gz.DisableMultistream {
			gzR.Multistream(false)
		}
		return gzR, err
	}

	gzR, err := gzip.NewReader(r)
	if gzR != nil && gz.DisableMultistream {
		gzR.Multistream(false)
	}
	return gzR, err
}
