package extract

import "errors"

var (
	// ErrMissingInput means no filename or no image bytes were supplied.
	ErrMissingInput = errors.New("extract: missing input")
	// ErrUnsupportedMedia means the declared content type is not an image.
	ErrUnsupportedMedia = errors.New("extract: unsupported media type")
)

// Error is returned when OCR or structuring fails. It is never retried.
type Error struct {
	Step string // "ocr", "structure", "parse" or "names"
	Err  error
}

func (e *Error) Error() string { return "extract: " + e.Step + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }
