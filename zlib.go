package archivefs

import (
	"io"

	"github.com/klauspost/compress/zlib"
)

func init() {
	RegisterFormat(CompressedTar{Compression: Zlib{}})
}

// Zlib facilitates zlib decompression.
type Zlib struct{}

func (Zlib) Extension() string { return "zz" }

func (Zlib) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return zlib.NewReader(r)
}
