package archivefs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

func init() {
	RegisterFormat(Tar{})
}

// Tar reads the entry table of tar archives: V7, ustar, GNU and PAX.
type Tar struct {
	// If set, names that are not valid UTF-8 are decoded with this
	// encoding. Otherwise paths keep their raw bytes and user/group
	// names that are not valid UTF-8 are dropped.
	NameEncoding encoding.Encoding

	// Optional; receives debug messages about records that were
	// skipped or could not be parsed.
	Logger *zap.Logger
}

func (Tar) Name() string         { return "tar" }
func (Tar) Extensions() []string { return []string{"tar"} }

// ReadDir reads every record of the tar file at path.
func (t Tar) ReadDir(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return t.ReadStream(f), nil
}

// ReadStream reads every record from a tar stream. Errors that leave
// the position of the next header unknown (a bad checksum, a size that
// cannot be parsed, a truncated stream) end the listing with one Error
// record; any other failure only affects the record it occurs in.
func (t Tar) ReadStream(r io.Reader) []Record {
	log := t.logger()
	br := newBlockReader(r)

	var records []Record
	var ext rawHeader // extended header data for the next record

	stop := func(err error) {
		log.Debug("stopped reading tar stream", zap.Int("records", len(records)), zap.Error(err))
		records = append(records, Record{Err: NewError(err)})
	}

	for {
		h := &rawHeader{}
		if err := br.readBlock(&h.block); err != nil {
			if !errors.Is(err, errEndOfArchive) {
				stop(err)
			}
			break
		}
		if h.isZero() {
			break
		}
		if err := h.checksum(); err != nil {
			stop(err)
			break
		}

		// extended headers are sized by their own block; pending PAX
		// records only describe the next file record
		switch h.typeflag() {
		case typePAX, typePAXGlobal, typeGNULong, typeGNULink:
			size, err := h.headerSize()
			if err != nil {
				stop(err)
				return records
			}
			if err := t.readExtended(br, h, size, &ext); err != nil {
				stop(err)
				return records
			}
			continue
		}

		h.pax = ext.pax
		h.longName, h.hasLongName = ext.longName, ext.hasLongName
		h.longLink, h.hasLongLink = ext.longLink, ext.hasLongLink
		ext = rawHeader{}

		size, err := h.dataSize()
		if err != nil {
			stop(err)
			break
		}

		entry, err := t.entry(h)
		if err != nil {
			log.Debug("unreadable tar record", zap.Int("index", len(records)), zap.Error(err))
			records = append(records, Record{Err: NewError(err)})
		} else {
			records = append(records, Record{Entry: entry})
		}

		if isHeaderOnly(h.typeflag()) {
			size = 0
		}
		if err := br.skipData(size); err != nil {
			stop(err)
			break
		}
	}

	return records
}

// readExtended consumes the data of a PAX, PAX global or GNU long name
// header and records what it carries in ext.
func (t Tar) readExtended(br *blockReader, h *rawHeader, size uint64, ext *rawHeader) error {
	switch h.typeflag() {
	case typePAXGlobal:
		// global headers carry defaults for the entire archive,
		// which listing has no use for
		t.logger().Debug("skipping PAX global header")
		return br.skipData(size)

	case typePAX:
		data, err := br.readData(size)
		if err != nil {
			return err
		}
		recs, err := parsePAX(data)
		if err != nil {
			t.logger().Debug("ignoring malformed PAX header", zap.Error(err))
			return nil
		}
		if ext.pax == nil {
			ext.pax = recs
		} else {
			for k, v := range recs {
				ext.pax[k] = v
			}
		}
		return nil
	}

	data, err := br.readData(size)
	if err != nil {
		return err
	}
	if h.typeflag() == typeGNULong {
		ext.longName, ext.hasLongName = cString(data), true
	} else {
		ext.longLink, ext.hasLongLink = cString(data), true
	}
	return nil
}

// entry builds an Entry from one header. The path, type, ownership IDs,
// mode and modification time are required; the owner names and the
// access and change times are dropped if they cannot be read.
func (t Tar) entry(h *rawHeader) (*Entry, error) {
	p, err := t.path(h)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*Entry, error) {
		return nil, fmt.Errorf("%s: %w", p, err)
	}

	flag := h.typeflag()
	if !validTypeflag(flag) {
		return fail(fmt.Errorf("unknown entry type %q", flag))
	}
	mode, err := h.mode()
	if err != nil {
		return fail(err)
	}
	uid, err := h.uid()
	if err != nil {
		return fail(err)
	}
	gid, err := h.gid()
	if err != nil {
		return fail(err)
	}
	mtime, err := h.mtime()
	if err != nil {
		return fail(err)
	}
	size, err := h.dataSize()
	if err != nil {
		return fail(err)
	}

	e := &Entry{
		name:           entryName(p),
		path:           p,
		size:           size,
		isLink:         flag == typeSymlink,
		isDirectory:    isDirType(flag, p),
		permissions:    permissionsFromMode(mode),
		hasPermissions: true,
		user:           &Owner{ID: uid, Name: t.ownerName(h.uname())},
		group:          &Owner{ID: gid, Name: t.ownerName(h.gname())},
		mtime:          &mtime,
	}
	if e.isLink {
		e.linkTarget = t.linkTarget(h)
	}
	if atime, err := h.atime(); err == nil {
		e.atime = &atime
	}
	if ctime, err := h.ctime(); err == nil {
		e.ctime = &ctime
	}
	return e, nil
}

// path prefers the structured path (PAX path record or GNU long name)
// and falls back to the name stored in the header block.
func (t Tar) path(h *rawHeader) (string, error) {
	if v, ok := h.pax["path"]; ok && utf8.ValidString(v) {
		return v, nil
	}
	if h.hasLongName && len(h.longName) > 0 {
		return t.decodeName(h.longName), nil
	}
	name := h.headerPath()
	if len(name) == 0 {
		return "", errors.New("tar record has no path")
	}
	return t.decodeName(name), nil
}

func (t Tar) linkTarget(h *rawHeader) string {
	if v, ok := h.pax["linkpath"]; ok && utf8.ValidString(v) {
		return v
	}
	if h.hasLongLink && len(h.longLink) > 0 {
		return t.decodeName(h.longLink)
	}
	return t.decodeName(h.headerLinkname())
}

// decodeName returns b as a string, decoding it with NameEncoding first
// if it is not valid UTF-8.
func (t Tar) decodeName(b []byte) string {
	if utf8.Valid(b) || t.NameEncoding == nil {
		return string(b)
	}
	decoded, err := t.NameEncoding.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}

// ownerName returns the name of a user or group, or "" if it is missing
// or cannot be decoded.
func (t Tar) ownerName(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	if t.NameEncoding != nil {
		if decoded, err := t.NameEncoding.NewDecoder().Bytes(b); err == nil {
			return string(decoded)
		}
	}
	return ""
}

func (t Tar) logger() *zap.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return zap.NewNop()
}

// isDirType reports whether a record is a directory. Old archives mark
// directories only with a trailing slash on a regular file record.
func isDirType(flag byte, p string) bool {
	switch flag {
	case typeDir, 'D':
		return true
	case typeReg, typeRegA, typeCont:
		return strings.HasSuffix(p, "/")
	}
	return false
}

// isHeaderOnly reports whether records of this type have no data
// blocks, whatever size their header declares.
func isHeaderOnly(flag byte) bool {
	switch flag {
	case '1', '2', '3', '4', '5', '6':
		return true
	}
	return false
}

// validTypeflag accepts the POSIX types and the uppercase range that
// POSIX leaves to vendor extensions.
func validTypeflag(flag byte) bool {
	return flag == typeRegA || ('0' <= flag && flag <= '7') || ('A' <= flag && flag <= 'Z')
}

// permissionsFromMode converts the mode bits of a tar header to an
// fs.FileMode holding the permission and special bits.
func permissionsFromMode(mode uint64) fs.FileMode {
	const (
		cISUID = 0o4000
		cISGID = 0o2000
		cISVTX = 0o1000
	)
	m := fs.FileMode(mode & 0o777)
	if mode&cISUID != 0 {
		m |= fs.ModeSetuid
	}
	if mode&cISGID != 0 {
		m |= fs.ModeSetgid
	}
	if mode&cISVTX != 0 {
		m |= fs.ModeSticky
	}
	return m
}

// Interface guard
var _ Reader = (*Tar)(nil)
