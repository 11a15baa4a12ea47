package archivefs

import (
	"io"

	"github.com/sorairolake/lzip-go"
)

func init() {
	RegisterFormat(CompressedTar{Compression: Lzip{}, Aliases: []string{"tlz"}})
}

// Lzip facilitates lzip decompression.
type Lzip struct{}

func (Lzip) Extension() string { return "lz" }

func (Lzip) OpenReader(r io.Reader) (io.ReadCloser, error) {
	lzr, err := lzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(lzr), nil
}
