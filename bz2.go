package archivefs

import (
	"io"

	"github.com/dsnet/compress/bzip2"
)

func init() {
	RegisterFormat(CompressedTar{Compression: Bz2{}, Aliases: []string{"tbz", "tbz2", "tb2"}})
}

// Bz2 facilitates bzip2 decompression.
type Bz2 struct{}

func (Bz2) Extension() string { return "bz2" }

func (Bz2) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return bzip2.NewReader(r, nil)
}
