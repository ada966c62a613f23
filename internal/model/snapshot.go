package model

import "encoding/json"

// SnapshotStatus is the state of a provider snapshot job.
type SnapshotStatus string

const (
	SnapshotStatusPending SnapshotStatus = "pending"
	SnapshotStatusRunning SnapshotStatus = "running"
	SnapshotStatusReady   SnapshotStatus = "ready"
	SnapshotStatusFailed  SnapshotStatus = "failed"
	SnapshotStatusError   SnapshotStatus = "error"
)

// Terminal reports whether polling should stop at this status.
func (s SnapshotStatus) Terminal() bool {
	return s == SnapshotStatusReady || s == SnapshotStatusFailed || s == SnapshotStatusError
}

// ProfileSnapshot is a full profile record as returned by the directory
// provider. The original bytes are kept and re-emitted unchanged.
type ProfileSnapshot struct {
	ID             string          `json:"id,omitempty"`
	LinkedInID     string          `json:"linkedin_id,omitempty"`
	Name           string          `json:"name,omitempty"`
	URL            string          `json:"url,omitempty"`
	Position       Text            `json:"position,omitempty"`
	City           Text            `json:"city,omitempty"`
	Avatar         string          `json:"avatar,omitempty"`
	Experience     json.RawMessage `json:"experience,omitempty"`
	Education      json.RawMessage `json:"education,omitempty"`
	Certifications json.RawMessage `json:"certifications,omitempty"`

	raw json.RawMessage
}

// Key returns the provider id of the profile.
func (p ProfileSnapshot) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return p.LinkedInID
}

// Raw returns the record as received from the provider.
func (p ProfileSnapshot) Raw() json.RawMessage {
	if len(p.raw) > 0 {
		return p.raw
	}
	b, _ := p.MarshalJSON()
	return b
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ProfileSnapshot) UnmarshalJSON(b []byte) error {
	type alias ProfileSnapshot
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*p = ProfileSnapshot(a)
	p.raw = append(json.RawMessage(nil), b...)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p ProfileSnapshot) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	type alias ProfileSnapshot
	return json.Marshal(alias(p))
}

// SnapshotResult is a completed provider snapshot with its provenance.
type SnapshotResult struct {
	SnapshotID string            `json:"snapshot_id"`
	DatasetID  string            `json:"dataset_id"`
	Status     SnapshotStatus    `json:"status"`
	Errors     int               `json:"errors"`
	Records    []ProfileSnapshot `json:"records"`
}
