package selector

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/markmdev/networking-copilot/internal/llm"
	llmmocks "github.com/markmdev/networking-copilot/internal/llm/mocks"
	"github.com/markmdev/networking-copilot/internal/model"
)

func TestCriteria(t *testing.T) {
	got := Criteria(model.SearchQuery{FirstName: "Tony", LastName: "Kipkemboi"})
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Target full name: Tony Kipkemboi.", lines[0])
	assert.Contains(t, lines[2], "San Francisco Bay Area, Seattle, New York City, Austin")
	assert.Equal(t, "No extra hints provided; fall back to technology-focused professionals in the United States if no direct match is available.", lines[3])

	got = Criteria(model.SearchQuery{FirstName: "Tony", LastName: "Kipkemboi", AdditionalContext: "  company: CrewAI "})
	assert.True(t, strings.HasSuffix(got, "\nAdditional hints from user: company: CrewAI"))
}

func TestNew(t *testing.T) {
	client := llmmocks.NewMockClient(t)

	s, err := New("", client)
	require.NoError(t, err)
	assert.IsType(t, &LLM{}, s)

	s, err = New(ModeHeuristic, nil)
	require.NoError(t, err)
	assert.IsType(t, Heuristic{}, s)

	_, err = New(ModeLLM, nil)
	assert.Error(t, err)

	_, err = New("coin-flip", client)
	assert.Error(t, err)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "jose o neil", Fold("  José  O'Neil "))
	assert.Equal(t, "zoe muller", Fold("Zoë Müller"))
	assert.Equal(t, "", Fold(" -- "))
}

var candidates = []model.CandidateSummary{
	{URL: "https://www.linkedin.com/in/tony-k-ke", Name: "Tony Kipkemboi", Location: "Nairobi, Kenya", Subtitle: "Student"},
	{URL: "https://www.linkedin.com/in/tonykipkemboi", Name: "Tony Kipkemboi", Location: "San Francisco Bay Area", Subtitle: "Head of Developer Relations at CrewAI"},
	{URL: "https://www.linkedin.com/in/tony-smith", Name: "Tony Smith", Location: "Austin, Texas, United States"},
}

func TestLLM_Select(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantURL string
		wantErr error
	}{
		{
			name:    "object",
			reply:   `{"selected_profile": {"url": "https://www.linkedin.com/in/tonykipkemboi", "name": "Tony"}, "rationale": "Works at CrewAI in SF."}`,
			wantURL: "https://www.linkedin.com/in/tonykipkemboi",
		},
		{
			name:    "bare url in fences",
			reply:   "```json\n{\"selected_profile\": \"https://www.linkedin.com/in/tony-smith\", \"rationale\": \"Only US match.\"}\n```",
			wantURL: "https://www.linkedin.com/in/tony-smith",
		},
		{
			name:    "fabricated url",
			reply:   `{"selected_profile": {"url": "https://www.linkedin.com/in/tony-made-up"}, "rationale": "Looks right."}`,
			wantErr: ErrUnknownURL,
		},
		{
			name:    "near miss url",
			reply:   `{"selected_profile": {"url": "https://linkedin.com/in/tonykipkemboi"}, "rationale": "Same person."}`,
			wantErr: ErrUnknownURL,
		},
		{
			name:    "no rationale",
			reply:   `{"selected_profile": {"url": "https://www.linkedin.com/in/tonykipkemboi"}, "rationale": "  "}`,
			wantErr: ErrNoRationale,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llmmocks.NewMockClient(t)
			client.On("Generate", mock.Anything, mock.MatchedBy(func(r llm.Request) bool {
				return r.Stage == "select" &&
					strings.Contains(r.Prompt, "Target full name: Tony Kipkemboi.") &&
					strings.Contains(r.Prompt, `"url": "https://www.linkedin.com/in/tony-smith"`)
			})).Return(&llm.Response{Text: tt.reply}, nil)

			res, err := NewLLM(client).Select(context.Background(), candidates, model.SearchQuery{FirstName: "Tony", LastName: "Kipkemboi"})
			if tt.wantErr != nil {
				var selErr *Error
				require.True(t, errors.As(err, &selErr), "got %v", err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, res.Selected.URL)
			assert.NotEmpty(t, res.Rationale)
		})
	}
}

func TestLLM_Select_ReasoningFailures(t *testing.T) {
	t.Run("generate error", func(t *testing.T) {
		client := llmmocks.NewMockClient(t)
		client.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

		_, err := NewLLM(client).Select(context.Background(), candidates, model.SearchQuery{})
		var selErr *Error
		assert.True(t, errors.As(err, &selErr))
	})

	t.Run("prose reply", func(t *testing.T) {
		client := llmmocks.NewMockClient(t)
		client.On("Generate", mock.Anything, mock.Anything).Return(&llm.Response{Text: "The second one."}, nil)

		_, err := NewLLM(client).Select(context.Background(), candidates, model.SearchQuery{})
		var selErr *Error
		assert.True(t, errors.As(err, &selErr))
	})

	t.Run("empty input", func(t *testing.T) {
		client := llmmocks.NewMockClient(t)
		_, err := NewLLM(client).Select(context.Background(), nil, model.SearchQuery{})
		assert.ErrorIs(t, err, ErrEmpty)
	})
}

func TestHeuristic_Select(t *testing.T) {
	tests := []struct {
		name    string
		query   model.SearchQuery
		wantURL string
	}{
		{
			name:    "us hub breaks name tie",
			query:   model.SearchQuery{FirstName: "Tony", LastName: "Kipkemboi"},
			wantURL: "https://www.linkedin.com/in/tonykipkemboi",
		},
		{
			name:    "linkedin hint wins",
			query:   model.SearchQuery{FirstName: "Tony", LastName: "Kipkemboi", AdditionalContext: "linkedin: linkedin.com/in/tony-k-ke, company: Acme"},
			wantURL: "https://www.linkedin.com/in/tony-k-ke",
		},
		{
			name:    "company hint",
			query:   model.SearchQuery{FirstName: "Tony", LastName: "Kipkemboi", AdditionalContext: "company: CrewAI"},
			wantURL: "https://www.linkedin.com/in/tonykipkemboi",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Heuristic{}.Select(context.Background(), candidates, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, res.Selected.URL)
			assert.NotEmpty(t, res.Rationale)
		})
	}
}

func TestHeuristic_FirstWinsWithoutSignal(t *testing.T) {
	cs := []model.CandidateSummary{{URL: "https://x/1"}, {URL: "https://x/2"}}
	res, err := Heuristic{}.Select(context.Background(), cs, model.SearchQuery{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "https://x/1", res.Selected.URL)
	assert.Contains(t, res.Rationale, "highest-ranked directory result")
}

// randomCandidates builds 1..8 candidates with random names, locations and
// URLs, some of which differ only by case or trailing slash.
func randomCandidates(r *rand.Rand) []model.CandidateSummary {
	names := []string{"Tony Kipkemboi", "Tony K", "Ana Lima", "José Pérez", "", "Kipkemboi"}
	locs := []string{"Seattle, WA", "Nairobi", "", "Austin, Texas, United States", "Berlin"}
	n := 1 + r.IntN(8)
	out := make([]model.CandidateSummary, n)
	for i := range out {
		u := fmt.Sprintf("https://www.linkedin.com/in/p%d", r.IntN(5))
		switch r.IntN(3) {
		case 0:
			u = strings.ToUpper(u)
		case 1:
			u += "/"
		}
		out[i] = model.CandidateSummary{
			URL:      u,
			Name:     names[r.IntN(len(names))],
			Location: model.Text(locs[r.IntN(len(locs))]),
		}
	}
	return out
}

func TestSelectorsNeverFabricateURLs(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	query := model.SearchQuery{FirstName: "Tony", LastName: "Kipkemboi", AdditionalContext: "linkedin: linkedin.com/in/p3"}

	member := func(cs []model.CandidateSummary, u string) bool {
		for _, c := range cs {
			if c.URL == u {
				return true
			}
		}
		return false
	}

	for i := 0; i < 300; i++ {
		cs := randomCandidates(r)

		res, err := Heuristic{}.Select(context.Background(), cs, query)
		require.NoError(t, err)
		require.True(t, member(cs, res.Selected.URL), "heuristic chose %q", res.Selected.URL)

		// The model answers with a candidate URL, a mangled one or an invented one.
		reply := cs[r.IntN(len(cs))].URL
		switch r.IntN(3) {
		case 0:
			reply = strings.ToLower(reply) + "?trk=x"
		case 1:
			reply = fmt.Sprintf("https://www.linkedin.com/in/invented-%d", i)
		}
		client := llmmocks.NewMockClient(t)
		client.On("Generate", mock.Anything, mock.Anything).
			Return(&llm.Response{Text: fmt.Sprintf(`{"selected_profile":{"url":%q},"rationale":"r"}`, reply)}, nil)

		res, err = NewLLM(client).Select(context.Background(), cs, query)
		if err != nil {
			assert.ErrorIs(t, err, ErrUnknownURL)
			assert.False(t, member(cs, reply))
			continue
		}
		assert.True(t, member(cs, res.Selected.URL), "llm selector returned %q", res.Selected.URL)
		assert.Equal(t, reply, res.Selected.URL)
	}
}
