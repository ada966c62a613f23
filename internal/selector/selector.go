// Package selector picks one directory candidate for a search query.
package selector

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/markmdev/networking-copilot/internal/llm"
	"github.com/markmdev/networking-copilot/internal/model"
)

// Modes accepted by New.
const (
	ModeLLM       = "llm"
	ModeHeuristic = "heuristic"
)

var (
	// ErrEmpty is returned when Select is called without candidates.
	ErrEmpty = errors.New("selector: no candidates to choose from")

	// ErrUnknownURL is returned when a choice does not match any candidate URL.
	ErrUnknownURL = errors.New("selected url is not among the candidates")

	// ErrNoRationale is returned when a choice comes without a justification.
	ErrNoRationale = errors.New("selection has no rationale")
)

// Selector chooses exactly one candidate. The returned candidate is always
// one of the inputs, byte for byte.
type Selector interface {
	Select(ctx context.Context, candidates []model.CandidateSummary, q model.SearchQuery) (*model.SelectionResult, error)
}

// Error is a failed selection: the reasoning step failed, produced a
// malformed answer, or chose a URL outside the candidate set.
type Error struct {
	Err error
}

func (e *Error) Error() string { return "selector: " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// New returns the selector for mode. An empty mode means ModeLLM.
func New(mode string, client llm.Client) (Selector, error) {
	switch mode {
	case "", ModeLLM:
		if client == nil {
			return nil, eris.New("selector: llm mode requires a client")
		}
		return NewLLM(client), nil
	case ModeHeuristic:
		return Heuristic{}, nil
	default:
		return nil, eris.Errorf("selector: unknown mode %q", mode)
	}
}

// indexOf returns the position of the candidate whose URL equals url
// exactly, or -1.
func indexOf(candidates []model.CandidateSummary, url string) int {
	for i, c := range candidates {
		if c.URL == url {
			return i
		}
	}
	return -1
}

// Criteria renders the selection brief for a query.
func Criteria(q model.SearchQuery) string {
	lines := []string{
		"Target full name: " + q.FirstName + " " + q.LastName + ".",
		"Use subtitle/headline, experience, education, and location to choose the best match.",
		"Strictly prioritize candidates based in major US tech hubs (San Francisco Bay Area, Seattle, New York City, Austin) or elsewhere in the United States before considering other regions.",
	}
	if hints := strings.TrimSpace(q.AdditionalContext); hints != "" {
		lines = append(lines, "Additional hints from user: "+hints)
	} else {
		lines = append(lines, "No extra hints provided; fall back to technology-focused professionals in the United States if no direct match is available.")
	}
	return strings.Join(lines, "\n")
}
