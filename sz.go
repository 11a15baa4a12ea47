package archivefs

import (
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/s2"
)

func init() {
	RegisterFormat(CompressedTar{Compression: Sz{}, Aliases: []string{"tsz"}})
	RegisterFormat(CompressedTar{Compression: S2{}})
}

// Sz facilitates Snappy framed-stream decompression.
type Sz struct{}

func (Sz) Extension() string { return "sz" }

func (Sz) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(snappy.NewReader(r)), nil
}

// S2 facilitates decompression of S2, the Snappy extension from
// github.com/klauspost/compress/s2. It also reads Snappy streams.
type S2 struct {
	MaxBlockSize           int
	IgnoreStreamIdentifier bool
	IgnoreCRC              bool
}

func (S2) Extension() string { return "s2" }

func (sz S2) OpenReader(r io.Reader) (io.ReadCloser, error) {
	var opts []s2.ReaderOption
	if sz.MaxBlockSize > 0 {
		opts = append(opts, s2.ReaderMaxBlockSize(sz.MaxBlockSize))
	}
	if sz.IgnoreStreamIdentifier {
		opts = append(opts, s2.ReaderIgnoreStreamIdentifier())
	}
	if sz.IgnoreCRC {
		opts = append(opts, s2.ReaderIgnoreCRC())
	}
	return io.NopCloser(s2.NewReader(r, opts...)), nil
}
