package model

import (
	"bytes"
	"encoding/json"
)

// Text is a string field that tolerates non-string JSON from the directory
// provider. Arrays and objects are kept as their compact JSON text.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return err
	}
	*t = Text(buf.String())
	return nil
}

// CandidateSummary is a lightweight directory entry returned by search.
// URL is the natural key.
type CandidateSummary struct {
	URL        string `json:"url"`
	Name       string `json:"name"`
	Subtitle   Text   `json:"subtitle,omitempty"`
	Location   Text   `json:"location,omitempty"`
	Experience Text   `json:"experience,omitempty"`
	Education  Text   `json:"education,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
}

// SearchQuery is the input to a directory search and to selection.
type SearchQuery struct {
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	AdditionalContext string `json:"additional_context,omitempty"`
	SiteOverride      string `json:"linkedin_url,omitempty"`
}

// SelectionResult is the candidate picked by a selector and why.
type SelectionResult struct {
	Selected  CandidateSummary `json:"selected_profile"`
	Rationale string           `json:"rationale"`
}
