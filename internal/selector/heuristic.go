package selector

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/markmdev/networking-copilot/internal/model"
)

// usHubs are folded location phrases for the preferred US tech hubs.
var usHubs = []string{
	"san francisco", "bay area", "san jose", "palo alto", "mountain view",
	"oakland", "seattle", "bellevue", "redmond", "new york", "brooklyn",
	"austin",
}

var usMarkers = []string{"united states", "usa", "us"}

// hintNoise are hint tokens that say nothing about the person.
var hintNoise = map[string]bool{
	"linkedin": true, "github": true, "website": true, "company": true,
	"https": true, "http": true, "www": true, "com": true, "in": true,
	"the": true, "and": true, "at": true, "of": true,
}

const maxHintScore = 4

// Heuristic scores candidates deterministically without a model. It favors
// name matches, US locations and overlap with the caller's hints; provider
// position only breaks near-ties.
type Heuristic struct{}

type scored struct {
	score   float64
	reasons []string
}

// Select picks the highest-scoring candidate. Ties go to the earlier one.
func (Heuristic) Select(_ context.Context, candidates []model.CandidateSummary, q model.SearchQuery) (*model.SelectionResult, error) {
	if len(candidates) == 0 {
		return nil, ErrEmpty
	}

	target := newTarget(q)
	best, bestIdx := scored{score: -1}, 0
	for i, c := range candidates {
		s := target.score(c)
		s.score += 0.5 / float64(i+1)
		if s.score > best.score {
			best, bestIdx = s, i
		}
	}

	chosen := candidates[bestIdx]
	reason := "highest-ranked directory result"
	if len(best.reasons) > 0 {
		reason = strings.Join(best.reasons, "; ")
	}
	rationale := fmt.Sprintf("Chose %s out of %d candidates: %s.", displayName(chosen), len(candidates), reason)

	zap.L().Info("selector: candidate chosen",
		zap.String("stage", "select"),
		zap.String("url", chosen.URL),
		zap.Int("position", bestIdx),
		zap.Float64("score", best.score),
	)
	return &model.SelectionResult{Selected: chosen, Rationale: rationale}, nil
}

type target struct {
	first, last, full string
	slugs             []string
	hints             []string
}

func newTarget(q model.SearchQuery) target {
	t := target{
		first: Fold(q.FirstName),
		last:  Fold(q.LastName),
	}
	t.full = strings.TrimSpace(t.first + " " + t.last)

	seen := map[string]bool{}
	for _, field := range strings.Fields(q.AdditionalContext) {
		if slug := profileSlug(field); slug != "" {
			t.slugs = append(t.slugs, slug)
		}
	}
	for _, tok := range tokens(q.AdditionalContext) {
		if len(tok) < 3 || hintNoise[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		t.hints = append(t.hints, tok)
	}
	return t
}

func (t target) score(c model.CandidateSummary) scored {
	var s scored
	add := func(points float64, reason string) {
		s.score += points
		s.reasons = append(s.reasons, reason)
	}

	if slug := profileSlug(c.URL); slug != "" {
		for _, want := range t.slugs {
			if slug == want {
				add(10, "profile URL matches the supplied LinkedIn link")
				break
			}
		}
	}

	name := Fold(c.Name)
	switch {
	case t.full != "" && name == t.full:
		add(6, "exact name match")
	case containsPhrase(name, t.first) && containsPhrase(name, t.last):
		add(5, "first and last name match")
	case containsPhrase(name, t.last):
		add(3, "last name matches")
	case containsPhrase(name, t.first):
		add(1, "first name matches")
	}

	loc := Fold(string(c.Location))
	if hub := firstPhrase(loc, usHubs); hub != "" {
		add(2, "based in a US tech hub ("+hub+")")
	} else if firstPhrase(loc, usMarkers) != "" {
		add(1, "based in the United States")
	}

	if len(t.hints) > 0 {
		profile := Fold(strings.Join([]string{
			string(c.Subtitle), string(c.Experience), string(c.Education), string(c.Location),
		}, " "))
		var matched []string
		for _, h := range t.hints {
			if containsPhrase(profile, h) {
				matched = append(matched, h)
			}
		}
		if n := min(len(matched), maxHintScore); n > 0 {
			add(float64(n), "matches hints: "+strings.Join(matched[:n], ", "))
		}
	}
	return s
}

func firstPhrase(text string, phrases []string) string {
	for _, p := range phrases {
		if containsPhrase(text, p) {
			return p
		}
	}
	return ""
}

// profileSlug extracts the folded "/in/<slug>" part of a LinkedIn URL.
func profileSlug(raw string) string {
	raw = strings.Trim(raw, " ,;")
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || !strings.HasSuffix(strings.ToLower(u.Hostname()), "linkedin.com") {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "in" {
		return ""
	}
	return Fold(parts[1])
}

func displayName(c model.CandidateSummary) string {
	if c.Name != "" {
		return c.Name
	}
	return c.URL
}
