package search

import "errors"

// ErrNoCandidates is returned when the directory yields no usable profiles.
var ErrNoCandidates = errors.New("search: no candidates found")

// ServiceError wraps a transport or provider failure from the directory.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string { return "search: directory unavailable: " + e.Err.Error() }

func (e *ServiceError) Unwrap() error { return e.Err }
