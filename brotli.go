package archivefs

import (
	"io"

	"github.com/andybalholm/brotli"
)

func init() {
	RegisterFormat(CompressedTar{Compression: Brotli{}, Aliases: []string{"tbr"}})
}

// Brotli facilitates brotli decompression.
type Brotli struct{}

func (Brotli) Extension() string { return "br" }

func (Brotli) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(brotli.NewReader(r)), nil
}
