package archivefs

import "strings"

// Error is a display-only error attached to one record of an archive.
// It keeps only the first line of the underlying error's message, with
// "..." appended if there were more lines; the underlying error itself is
// not retained, so records fail the same way whatever caused them to.
type Error struct {
	message string
}

// NewError converts err into an *Error. It returns nil if err is nil,
// and err itself if it is already an *Error.
func NewError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{message: firstLine(err.Error())}
}

func (e *Error) Error() string { return e.message }

func firstLine(msg string) string {
	line, rest, more := strings.Cut(msg, "\n")
	line = strings.TrimSuffix(line, "\r")
	if more && rest != "" {
		line += "..."
	}
	return line
}
