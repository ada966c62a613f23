package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/markmdev/networking-copilot/internal/crew"
	"github.com/markmdev/networking-copilot/internal/extract"
	"github.com/markmdev/networking-copilot/internal/search"
	"github.com/markmdev/networking-copilot/internal/selector"
	"github.com/markmdev/networking-copilot/internal/snapshot"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"missing input", extract.ErrMissingInput, KindValidation},
		{"unsupported media", eris.Wrap(extract.ErrUnsupportedMedia, "text/plain"), KindValidation},
		{"invalid url", snapshot.ErrInvalidURL, KindValidation},
		{"no candidates", search.ErrNoCandidates, KindNotFound},
		{"search service", &search.ServiceError{Err: errors.New("503")}, KindDependency},
		{"selection", &selector.Error{Err: selector.ErrNoRationale}, KindDependency},
		{"ocr", &extract.Error{Step: "ocr", Err: errors.New("down")}, KindDependency},
		{"structure", &extract.Error{Step: "structure", Err: errors.New("down")}, KindDependency},
		{"parse", &extract.Error{Step: "parse", Err: errors.New("bad json")}, KindData},
		{"names", &extract.Error{Step: "names", Err: errors.New("none")}, KindData},
		{"fetch", &snapshot.FetchError{URL: "u", Err: errors.New("timeout")}, KindDependency},
		{"empty snapshot", eris.Wrap(snapshot.ErrEmpty, "s_1"), KindData},
		{"malformed snapshot", snapshot.ErrMalformed, KindData},
		{"crew shape", &crew.Error{Stage: crew.StageIcebreak, Err: &crew.ShapeError{Field: "icebreakers"}}, KindData},
		{"crew call", &crew.Error{Stage: crew.StageAnalyze, Err: errors.New("429")}, KindDependency},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindDependency},
		{"selector precondition", selector.ErrEmpty, KindInternal},
		{"unknown", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestWrapKeepsFirstClassification(t *testing.T) {
	inner := &Error{Kind: KindNotFound, Stage: StageSearch, Err: search.ErrNoCandidates}
	got := wrap(StageSelect, fmt.Errorf("outer: %w", inner))

	var pe *Error
	assert.ErrorAs(t, got, &pe)
	assert.Equal(t, StageSearch, pe.Stage)
	assert.Nil(t, wrap(StageSearch, nil))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindInternal, KindOf(errors.New("x")))
	assert.Equal(t, KindData, KindOf(&Error{Kind: KindData}))
	assert.Contains(t, (&Error{Kind: KindData, Stage: StageFetch, Err: errors.New("x")}).Error(), "fetch")
}
