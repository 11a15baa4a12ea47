package archivefs

import (
	"io"

	"github.com/pierrec/lz4/v4"
)

func init() {
	RegisterFormat(CompressedTar{Compression: Lz4{}, Aliases: []string{"tlz4"}})
}

// Lz4 facilitates LZ4 decompression.
type Lz4 struct{}

func (Lz4) Extension() string { return "lz4" }

func (Lz4) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}
