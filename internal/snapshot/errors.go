package snapshot

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned for URLs that cannot be normalized.
	ErrInvalidURL = errors.New("snapshot: invalid LinkedIn profile URL")

	// ErrEmpty is returned when a ready snapshot holds no records.
	ErrEmpty = errors.New("snapshot: returned no profile records")

	// ErrMalformed is returned when a record is not a JSON object.
	ErrMalformed = errors.New("snapshot: malformed profile record")
)

// FetchError is a failed snapshot job or transport failure.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("snapshot: fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
