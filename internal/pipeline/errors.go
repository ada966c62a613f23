package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/markmdev/networking-copilot/internal/crew"
	"github.com/markmdev/networking-copilot/internal/extract"
	"github.com/markmdev/networking-copilot/internal/search"
	"github.com/markmdev/networking-copilot/internal/selector"
	"github.com/markmdev/networking-copilot/internal/snapshot"
)

// Kind is the outward error category of a failed run.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindDependency Kind = "dependency"
	KindData       Kind = "data"
	KindInternal   Kind = "internal"
)

// Stage names used in errors and logs.
const (
	StageInput   = "input"
	StageExtract = "extract"
	StageSearch  = "search"
	StageSelect  = "select"
	StageFetch   = "fetch"
	StageEnrich  = "enrich"
	StagePersist = "persist"
)

// ErrInvalidInput is returned for requests missing required fields.
var ErrInvalidInput = errors.New("pipeline: invalid input")

// Error is the only error type returned by Pipeline methods.
type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline: %s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the category of err. Errors that did not come from the
// pipeline are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// wrap widens a component error into an *Error for stage.
func wrap(stage string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{Kind: classify(err), Stage: stage, Err: err}
}

func classify(err error) Kind {
	var (
		extractErr *extract.Error
		searchErr  *search.ServiceError
		selectErr  *selector.Error
		fetchErr   *snapshot.FetchError
		crewErr    *crew.Error
		shapeErr   *crew.ShapeError
	)
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, extract.ErrMissingInput),
		errors.Is(err, extract.ErrUnsupportedMedia),
		errors.Is(err, snapshot.ErrInvalidURL):
		return KindValidation
	case errors.Is(err, search.ErrNoCandidates):
		return KindNotFound
	case errors.As(err, &shapeErr),
		errors.Is(err, snapshot.ErrEmpty),
		errors.Is(err, snapshot.ErrMalformed):
		return KindData
	case errors.As(err, &extractErr):
		if extractErr.Step == "parse" || extractErr.Step == "names" {
			return KindData
		}
		return KindDependency
	case errors.As(err, &searchErr),
		errors.As(err, &selectErr),
		errors.As(err, &fetchErr),
		errors.As(err, &crewErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindDependency
	}
	return KindInternal
}
