package types

import "time"

// WorkspaceMetadata is a lightweight descriptor of a saved document, kept
// apart from the document itself so listing and search never require a full
// decode.
type WorkspaceMetadata struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	IsTemplate  bool      `json:"is_template"`
	Tags        []string  `json:"tags,omitempty"`
	WindowTypes []string  `json:"window_types,omitempty"`
	WindowCount int       `json:"window_count"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
}
