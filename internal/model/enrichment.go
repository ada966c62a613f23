package model

import (
	"fmt"
	"strings"
	"time"
)

// AnalyzerOutput is produced by the analyzer stage.
type AnalyzerOutput struct {
	ProfileName    string   `json:"profile_name"`
	Headline       string   `json:"headline,omitempty"`
	CurrentTitle   string   `json:"current_title,omitempty"`
	CurrentCompany string   `json:"current_company,omitempty"`
	Location       string   `json:"location,omitempty"`
	Highlights     []string `json:"highlights"`
}

// SummaryOutput is produced by the summarizer stage.
type SummaryOutput struct {
	Summary       string   `json:"summary"`
	KeyHighlights []string `json:"key_highlights"`
}

// IcebreakerCategory is the tone of a conversation starter.
type IcebreakerCategory string

const (
	CategoryProfessional IcebreakerCategory = "professional"
	CategoryEducational  IcebreakerCategory = "educational"
	CategoryIndustry     IcebreakerCategory = "industry"
	CategoryInterest     IcebreakerCategory = "interest"
	CategoryPersonal     IcebreakerCategory = "personal"
)

// AllCategories returns the closed set of icebreaker categories.
func AllCategories() []IcebreakerCategory {
	return []IcebreakerCategory{
		CategoryProfessional,
		CategoryEducational,
		CategoryIndustry,
		CategoryInterest,
		CategoryPersonal,
	}
}

// Valid reports whether c is in the closed category set.
func (c IcebreakerCategory) Valid() bool {
	for _, v := range AllCategories() {
		if c == v {
			return true
		}
	}
	return false
}

// Icebreaker is a single categorized conversation starter.
type Icebreaker struct {
	Category IcebreakerCategory `json:"category"`
	Prompt   string             `json:"prompt"`
}

// IcebreakerSet is produced by the icebreaker stage.
type IcebreakerSet struct {
	Icebreakers []Icebreaker `json:"icebreakers"`
}

// CrewOutputs holds the three stage outputs of one enrichment run.
type CrewOutputs struct {
	Analyzer    AnalyzerOutput `json:"analyzer"`
	Summary     SummaryOutput  `json:"summary"`
	Icebreakers IcebreakerSet  `json:"icebreakers"`
}

// EnrichmentResult is the composite output of a successful pipeline run.
type EnrichmentResult struct {
	Person            CandidateSummary `json:"person"`
	SelectorRationale string           `json:"selector_rationale,omitempty"`
	CrewOutputs       CrewOutputs      `json:"crew_outputs"`
}

// Record is a persisted enrichment result plus capture provenance.
type Record struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Filename  string         `json:"filename,omitempty"`
	Markdown  string         `json:"markdown,omitempty"`
	Extracted *ContactFields `json:"extracted,omitempty"`
	EnrichmentResult
}

// Brief renders a short human readable summary of the record.
func (r Record) Brief() string {
	var b strings.Builder

	name := r.Person.Name
	if name == "" {
		name = r.CrewOutputs.Analyzer.ProfileName
	}
	if name == "" {
		name = "This contact"
	}
	b.WriteString(name)
	switch {
	case r.Person.Subtitle != "":
		fmt.Fprintf(&b, " - %s", r.Person.Subtitle)
	case r.CrewOutputs.Analyzer.Headline != "":
		fmt.Fprintf(&b, " - %s", r.CrewOutputs.Analyzer.Headline)
	}

	if s := r.CrewOutputs.Summary.Summary; s != "" {
		b.WriteString("\n" + s)
	}

	highlights := r.CrewOutputs.Summary.KeyHighlights
	if len(highlights) == 0 {
		highlights = r.CrewOutputs.Analyzer.Highlights
	}
	if len(highlights) > 3 {
		highlights = highlights[:3]
	}
	if len(highlights) > 0 {
		b.WriteString("\nKey highlights:")
		for _, h := range highlights {
			b.WriteString("\n- " + h)
		}
	}
	return b.String()
}

// TokenUsage tracks LLM token consumption across stages.
type TokenUsage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// Add accumulates another usage into t.
func (t *TokenUsage) Add(other TokenUsage) {
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
	t.Cost += other.Cost
}
