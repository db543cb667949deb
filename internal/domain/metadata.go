package domain

import "fmt"

// MetadataVersion is the current metadata schema version.
const MetadataVersion = 1

// Metadata carries structured provenance for raw and generated content.
// It is validated at the boundary and stored as one JSON column, never
// passed around as an untyped blob.
type Metadata struct {
	Version   int               `json:"version"`
	Model     string            `json:"model,omitempty"`
	PromptID  string            `json:"prompt_id,omitempty"`
	SourceURL string            `json:"source_url,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// NewMetadata returns an empty metadata value at the current version.
func NewMetadata() Metadata {
	return Metadata{Version: MetadataVersion}
}

// Validate checks the metadata against the known schema versions.
func (m Metadata) Validate() error {
	if m.Version < 1 || m.Version > MetadataVersion {
		return fmt.Errorf("unsupported metadata version %d", m.Version)
	}
	return nil
}

// WithExtra returns a copy with one extra key set.
func (m Metadata) WithExtra(key, value string) Metadata {
	extra := make(map[string]string, len(m.Extra)+1)
	for k, v := range m.Extra {
		extra[k] = v
	}
	extra[key] = value
	m.Extra = extra
	return m
}
