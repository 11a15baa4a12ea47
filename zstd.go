package archivefs

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

func init() {
	RegisterFormat(CompressedTar{Compression: Zstd{}, Aliases: []string{"tzst"}})
}

// Zstd facilitates Zstandard decompression.
type Zstd struct {
	DecoderOptions []zstd.DOption
}

func (Zstd) Extension() string { return "zst" }

func (zs Zstd) OpenReader(r io.Reader) (io.ReadCloser, error) {
	zr, err := zstd.NewReader(r, zs.DecoderOptions...)
	if err != nil {
		return nil, err
	}
	return errorCloser{zr}, nil
}

// errorCloser adapts a zstd.Decoder, whose Close returns nothing, to io.Closer.
type errorCloser struct {
	*zstd.Decoder
}

func (ec errorCloser) Close() error {
	ec.Decoder.Close()
	return nil
}
