package archivefs

import (
	"io"

	"github.com/ulikunitz/xz"
)

func init() {
	RegisterFormat(CompressedTar{Compression: Xz{}, Aliases: []string{"txz"}})
}

// Xz facilitates xz decompression.
type Xz struct{}

func (Xz) Extension() string { return "xz" }

func (Xz) OpenReader(r io.Reader) (io.ReadCloser, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(xr), nil
}
