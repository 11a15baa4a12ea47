package archivefs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// The tar readers in the standard library stop at the first malformed
// header, so headers are decoded here field by field: a bad field only
// spoils the record it belongs to, and that record's declared data size
// is still enough to find the next header.

const blockSize = 512

// header field offsets shared by all tar variants
const (
	offName     = 0
	offMode     = 100
	offUID      = 108
	offGID      = 116
	offSize     = 124
	offMtime    = 136
	offChksum   = 148
	offTypeflag = 156
	offLinkname = 157
	offMagic    = 257
	offUname    = 265
	offGname    = 297
	offPrefix   = 345 // ustar only
	offAtime    = 345 // GNU only
	offCtime    = 357 // GNU only
)

// typeflags that need special handling
const (
	typeReg       = '0'
	typeRegA      = '\x00'
	typeSymlink   = '2'
	typeDir       = '5'
	typeCont      = '7'
	typePAX       = 'x'
	typePAXGlobal = 'g'
	typeGNULong   = 'L'
	typeGNULink   = 'K'
)

// headerFormat is the tar variant a header block was written in.
type headerFormat int

const (
	formatV7 headerFormat = iota
	formatUSTAR
	formatGNU
)

var (
	magicUSTAR = []byte("ustar\x0000")
	magicGNU   = []byte("ustar  \x00")
)

var (
	// errEndOfArchive signals the end of the stream before a header.
	errEndOfArchive = errors.New("end of archive")

	errTruncatedData = errors.New("unexpected end of archive in entry data")
)

// rawHeader is one 512-byte header block plus whatever extended header
// data preceded it. Fields are decoded on demand.
type rawHeader struct {
	block [blockSize]byte
	pax   map[string]string

	longName, longLink []byte
	hasLongName        bool
	hasLongLink        bool
}

func (h *rawHeader) field(off, n int) []byte { return h.block[off : off+n] }

func (h *rawHeader) format() headerFormat {
	magic := h.block[offMagic : offMagic+8]
	switch {
	case bytes.Equal(magic, magicGNU):
		return formatGNU
	case bytes.Equal(magic[:6], magicUSTAR[:6]):
		return formatUSTAR
	default:
		return formatV7
	}
}

func (h *rawHeader) typeflag() byte { return h.block[offTypeflag] }

// checksum holds if the stored checksum matches either the unsigned or
// the (historic) signed sum of the block.
func (h *rawHeader) checksum() error {
	stored, err := parseNumeric(h.field(offChksum, 8))
	if err != nil {
		return fmt.Errorf("malformed header checksum: %w", err)
	}
	var unsigned, signed int64
	for i, c := range h.block {
		if i >= offChksum && i < offChksum+8 {
			c = ' '
		}
		unsigned += int64(c)
		signed += int64(int8(c))
	}
	if uint64(unsigned) != stored && uint64(signed) != stored {
		return fmt.Errorf("header checksum mismatch: stored %d, computed %d", stored, unsigned)
	}
	return nil
}

func (h *rawHeader) isZero() bool {
	for _, c := range h.block {
		if c != 0 {
			return false
		}
	}
	return true
}

// headerPath returns the path stored in the header block itself,
// joining the ustar prefix if there is one.
func (h *rawHeader) headerPath() []byte {
	name := cString(h.field(offName, 100))
	if h.format() == formatUSTAR {
		if prefix := cString(h.field(offPrefix, 155)); len(prefix) > 0 {
			return append(append(append([]byte{}, prefix...), '/'), name...)
		}
	}
	return name
}

func (h *rawHeader) headerLinkname() []byte { return cString(h.field(offLinkname, 100)) }

func (h *rawHeader) mode() (uint64, error) {
	return parseNumericField("mode", h.field(offMode, 8))
}

func (h *rawHeader) uid() (uint64, error) {
	if v, ok := h.pax["uid"]; ok {
		return parsePAXInt("uid", v)
	}
	return parseNumericField("uid", h.field(offUID, 8))
}

func (h *rawHeader) gid() (uint64, error) {
	if v, ok := h.pax["gid"]; ok {
		return parsePAXInt("gid", v)
	}
	return parseNumericField("gid", h.field(offGID, 8))
}

// headerSize is the size declared in the header block.
func (h *rawHeader) headerSize() (uint64, error) {
	return parseNumericField("size", h.field(offSize, 12))
}

// dataSize is the number of data bytes that follow the header, which a
// PAX size record overrides.
func (h *rawHeader) dataSize() (uint64, error) {
	if v, ok := h.pax["size"]; ok {
		if n, err := parsePAXInt("size", v); err == nil {
			return n, nil
		}
	}
	return h.headerSize()
}

// mtime prefers a PAX mtime record. One that cannot be read, such as
// the negative times archive/tar writes for dates before 1970, leaves the
// header field in charge.
func (h *rawHeader) mtime() (uint64, error) {
	if v, ok := h.pax["mtime"]; ok {
		if n, err := parsePAXTime("mtime", v); err == nil {
			return n, nil
		}
	}
	return parseNumericField("mtime", h.field(offMtime, 12))
}

func (h *rawHeader) atime() (uint64, error) { return h.extTime("atime", offAtime) }
func (h *rawHeader) ctime() (uint64, error) { return h.extTime("ctime", offCtime) }

// extTime reads a timestamp only PAX records and GNU headers can carry.
func (h *rawHeader) extTime(key string, off int) (uint64, error) {
	if v, ok := h.pax[key]; ok {
		if n, err := parsePAXTime(key, v); err == nil {
			return n, nil
		}
	}
	if h.format() != formatGNU {
		return 0, fmt.Errorf("archive header does not support %s", key)
	}
	return parseNumericField(key, h.field(off, 12))
}

func (h *rawHeader) uname() []byte {
	if v, ok := h.pax["uname"]; ok {
		return []byte(v)
	}
	return cString(h.field(offUname, 32))
}

func (h *rawHeader) gname() []byte {
	if v, ok := h.pax["gname"]; ok {
		return []byte(v)
	}
	return cString(h.field(offGname, 32))
}

// blockReader reads header and data blocks from a tar stream.
type blockReader struct {
	r      io.Reader
	seeker io.Seeker
	end    int64 // length of a seekable stream
}

// newBlockReader skips data by seeking if r can seek and report its
// length, and by reading otherwise.
func newBlockReader(r io.Reader) *blockReader {
	br := &blockReader{r: r}
	if s, ok := r.(io.Seeker); ok {
		if end, err := streamEnd(s); err == nil {
			br.seeker, br.end = s, end
		}
	}
	return br
}

func streamEnd(s io.Seeker) (int64, error) {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	_, err = s.Seek(cur, io.SeekStart)
	return end, err
}

// readBlock fills blk. A clean end of stream before any byte of the
// block is reported as errEndOfArchive, since many writers omit the
// trailer; a partial block is an error.
func (br *blockReader) readBlock(blk *[blockSize]byte) error {
	_, err := io.ReadFull(br.r, blk[:])
	switch {
	case errors.Is(err, io.EOF):
		return errEndOfArchive
	case errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("unexpected end of archive while reading header")
	}
	return err
}

// readData reads the n data bytes of a record and its padding.
func (br *blockReader) readData(n uint64) ([]byte, error) {
	if n > maxExtendedHeaderSize {
		return nil, fmt.Errorf("extended header of %d bytes is too large", n)
	}
	buf := make([]byte, paddedSize(n))
	if _, err := io.ReadFull(br.r, buf); err != nil {
		return nil, fmt.Errorf("reading extended header: %w", err)
	}
	return buf[:n], nil
}

// skipData moves past the n data bytes of a record and its padding.
func (br *blockReader) skipData(n uint64) error {
	total := paddedSize(n)
	if total == 0 {
		return nil
	}
	if total > 1<<62 {
		return fmt.Errorf("entry size %d is out of range", n)
	}
	if br.seeker != nil {
		pos, err := br.seeker.Seek(int64(total), io.SeekCurrent)
		if err != nil {
			return err
		}
		if pos > br.end {
			return errTruncatedData
		}
		return nil
	}
	_, err := io.CopyN(io.Discard, br.r, int64(total))
	if errors.Is(err, io.EOF) {
		return errTruncatedData
	}
	return err
}

func paddedSize(n uint64) uint64 {
	return (n + blockSize - 1) / blockSize * blockSize
}

// maxExtendedHeaderSize bounds the PAX and GNU long name data that is
// read into memory.
const maxExtendedHeaderSize = 1 << 20

// parseNumericField is parseNumeric with the field name in the error.
func parseNumericField(name string, b []byte) (uint64, error) {
	n, err := parseNumeric(b)
	if err != nil {
		return 0, fmt.Errorf("invalid %s field in header: %w", name, err)
	}
	return n, nil
}

// parseNumeric decodes a header number, either octal text (NUL or space
// padded) or, if the high bit of the first byte is set, a big-endian
// base-256 value as written by GNU tar for large numbers.
func parseNumeric(b []byte) (uint64, error) {
	if len(b) > 0 && b[0]&0x80 != 0 {
		if b[0]&0x40 != 0 {
			return 0, errors.New("negative base-256 value")
		}
		var n uint64
		for i, c := range b {
			if i == 0 {
				c &= 0x7f
			}
			if n>>56 != 0 {
				return 0, errors.New("base-256 value overflows 64 bits")
			}
			n = n<<8 | uint64(c)
		}
		return n, nil
	}

	s := strings.Trim(string(b), " \x00")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 8, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an octal number", s)
	}
	return n, nil
}

func parsePAXInt(key, v string) (uint64, error) {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid PAX %s record %q", key, v)
	}
	return n, nil
}

// parsePAXTime parses a PAX timestamp, dropping the fraction.
func parsePAXTime(key, v string) (uint64, error) {
	sec, _, _ := strings.Cut(v, ".")
	n, err := strconv.ParseUint(sec, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid PAX %s record %q", key, v)
	}
	return n, nil
}

// parsePAX decodes the records of an extended header: each one is
// "<length> <key>=<value>\n", where length counts the whole record.
func parsePAX(data []byte) (map[string]string, error) {
	recs := make(map[string]string)
	for len(data) > 0 {
		sp := bytes.IndexByte(data, ' ')
		if sp < 0 {
			return nil, errors.New("malformed PAX record: missing length")
		}
		n, err := strconv.Atoi(string(data[:sp]))
		if err != nil || n <= sp+1 || n > len(data) {
			return nil, fmt.Errorf("malformed PAX record: bad length %q", data[:sp])
		}
		rec := data[sp+1 : n]
		data = data[n:]
		if len(rec) == 0 || rec[len(rec)-1] != '\n' {
			return nil, errors.New("malformed PAX record: missing newline")
		}
		key, value, ok := strings.Cut(string(rec[:len(rec)-1]), "=")
		if !ok || key == "" {
			return nil, errors.New("malformed PAX record: missing key")
		}
		if value == "" {
			delete(recs, key)
			continue
		}
		recs[key] = value
	}
	return recs, nil
}

// cString returns b up to its first NUL byte.
func cString(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}
