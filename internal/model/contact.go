package model

import "strings"

// ContactLinks holds the link fields recognized on a badge or card.
type ContactLinks struct {
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// ContactFields is the fixed schema extracted from an image. Every field is
// optional; an empty string means the field was not confidently identified.
type ContactFields struct {
	Names   string       `json:"names,omitempty"`
	Company string       `json:"company,omitempty"`
	Links   ContactLinks `json:"links"`
}

// SplitName splits the extracted names into first and last. A single token
// is used for both. ok is false when no name was extracted.
func (c ContactFields) SplitName() (first, last string, ok bool) {
	parts := strings.Fields(c.Names)
	switch len(parts) {
	case 0:
		return "", "", false
	case 1:
		return parts[0], parts[0], true
	default:
		return parts[0], strings.Join(parts[1:], " "), true
	}
}

// SearchContext renders the links and company as search hints,
// e.g. "linkedin: https://..., company: Acme".
func (c ContactFields) SearchContext() string {
	var parts []string
	for _, kv := range [][2]string{
		{"linkedin", c.Links.LinkedIn},
		{"website", c.Links.Website},
		{"github", c.Links.GitHub},
		{"company", c.Company},
	} {
		if v := strings.TrimSpace(kv[1]); v != "" {
			parts = append(parts, kv[0]+": "+v)
		}
	}
	return strings.Join(parts, ", ")
}
