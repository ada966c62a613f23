package crew

import "fmt"

// Error is a failed enrichment run. Stage names the first stage that failed;
// no output from earlier stages is returned alongside it.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("crew: stage %s failed: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ShapeError is stage output that parsed but broke its shape rules, or did
// not parse at all.
type ShapeError struct {
	Field  string
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Field == "" {
		return "invalid output: " + e.Reason
	}
	return fmt.Sprintf("invalid output: %s: %s", e.Field, e.Reason)
}

func shapeErr(field, format string, args ...any) *ShapeError {
	return &ShapeError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
