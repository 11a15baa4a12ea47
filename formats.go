package archivefs

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"
)

// Reader parses the entry table of one kind of container file.
type Reader interface {
	// Name returns the tag of the format, e.g. "tar" or "tar.gz".
	Name() string

	// Extensions returns the lowercase file extensions, without a
	// leading dot, that select this reader.
	Extensions() []string

	// ReadDir reads every record of the archive at path, in the order
	// they are stored. A record that cannot be parsed becomes a Record
	// holding an Error and does not stop the others from being read. An
	// error is returned only if the archive cannot be read at all.
	ReadDir(path string) ([]Record, error)
}

// RegisterFormat registers a reader for each of its extensions. It should
// be called during init. Registering an extension twice panics.
func RegisterFormat(r Reader) {
	for _, ext := range r.Extensions() {
		ext = strings.Trim(strings.ToLower(ext), ".")
		if _, ok := formats[ext]; ok {
			panic("format for extension " + ext + " is already registered")
		}
		formats[ext] = r
	}
}

// FormatFromExtension returns the reader registered for ext. The match is
// exact, after lowercasing and dropping a leading dot.
func FormatFromExtension(ext string) (Reader, bool) {
	r, ok := formats[strings.TrimPrefix(strings.ToLower(ext), ".")]
	return r, ok
}

// Identify returns the reader for the file at path, judged by its
// extension. Two-part extensions such as "tar.gz" are tried before the
// last extension alone. If no reader matches, ErrUnsupportedFormat is
// returned.
func Identify(path string) (Reader, error) {
	for _, ext := range extensionCandidates(filepath.Base(path)) {
		if r, ok := FormatFromExtension(ext); ok {
			return r, nil
		}
	}
	return nil, ErrUnsupportedFormat
}

// Extensions returns every registered extension, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(formats))
	for ext := range formats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// extensionCandidates returns the last two dot-separated segments of
// name, joined, followed by the last segment alone. A leading dot does
// not start an extension.
func extensionCandidates(name string) []string {
	name = strings.ToLower(strings.TrimLeft(name, "."))
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return nil
	}
	last := parts[len(parts)-1]
	if len(parts) < 3 {
		return []string{last}
	}
	return []string{parts[len(parts)-2] + "." + last, last}
}

// ErrUnsupportedFormat is returned when no reader is registered for the
// extension of an archive.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// Registered readers by extension.
var formats = make(map[string]Reader)
