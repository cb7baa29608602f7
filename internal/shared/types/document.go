package types

import (
	"encoding/json"
	"time"
)

// Notebook format version written by the encoder and preserved on round-trip.
const (
	NBFormat      = 4
	NBFormatMinor = 4
)

// Cell types used in the notebook envelope.
const (
	CellTypeCode     = "code"
	CellTypeMarkdown = "markdown"
)

// Document is the notebook-shaped interchange envelope. The envelope mirrors
// the Jupyter notebook format so external tools can open exported workspaces.
type Document struct {
	Cells         []Cell           `json:"cells"`
	Metadata      DocumentMetadata `json:"metadata"`
	NBFormat      int              `json:"nbformat"`
	NBFormatMinor int              `json:"nbformat_minor"`
}

// DocumentMetadata is the top-level metadata block. Kernelspec and
// LanguageInfo are opaque passthrough for external tools.
type DocumentMetadata struct {
	Kernelspec      map[string]interface{} `json:"kernelspec,omitempty"`
	LanguageInfo    map[string]interface{} `json:"language_info,omitempty"`
	WorkspaceExport *WorkspaceExport       `json:"workspace_export,omitempty"`
}

// WorkspaceExport summarizes the exported workspace. The three string slices
// are sets: de-duplicated, first-appearance ordered.
type WorkspaceExport struct {
	ExportDate      time.Time `json:"export_date"`
	TotalWindows    int       `json:"total_windows"`
	WindowTypes     []string  `json:"window_types"`
	ExportTemplates []string  `json:"export_templates"`
	AllTags         []string  `json:"all_tags"`
}

// Cell is one window record's serialization.
type Cell struct {
	CellType string       `json:"cell_type"`
	Metadata CellMetadata `json:"metadata"`
	Source   []string     `json:"source"`

	// Present only on code cells: execution_count is serialized as null and
	// outputs as an empty array, matching the Jupyter envelope.
	ExecutionCount *int          `json:"execution_count,omitempty"`
	Outputs        []interface{} `json:"outputs,omitempty"`
}

// cellJSON mirrors Cell for custom marshaling of code-cell-only fields.
type cellJSON struct {
	CellType       string        `json:"cell_type"`
	Metadata       CellMetadata  `json:"metadata"`
	Source         []string      `json:"source"`
	ExecutionCount *int          `json:"execution_count"`
	Outputs        []interface{} `json:"outputs"`
}

// MarshalJSON emits execution_count (null) and outputs ([]) for code cells
// and omits both for markdown cells.
func (c Cell) MarshalJSON() ([]byte, error) {
	source := c.Source
	if source == nil {
		source = []string{}
	}
	if c.CellType == CellTypeCode {
		outputs := c.Outputs
		if outputs == nil {
			outputs = []interface{}{}
		}
		return json.Marshal(cellJSON{
			CellType:       c.CellType,
			Metadata:       c.Metadata,
			Source:         source,
			ExecutionCount: c.ExecutionCount,
			Outputs:        outputs,
		})
	}
	return json.Marshal(struct {
		CellType string       `json:"cell_type"`
		Metadata CellMetadata `json:"metadata"`
		Source   []string     `json:"source"`
	}{c.CellType, c.Metadata, source})
}

// CellMetadata carries the window record fields inside a cell. WindowID is a
// pointer so decode can distinguish a missing id from id 0.
type CellMetadata struct {
	WindowID       *int            `json:"window_id,omitempty"`
	WindowType     string          `json:"window_type,omitempty"`
	ExportTemplate string          `json:"export_template,omitempty"`
	ImportSource   string          `json:"import_source,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Position       *Position       `json:"position,omitempty"`
	State          *CellState      `json:"state,omitempty"`
	Timestamps     *CellTimestamps `json:"timestamps,omitempty"`
	Payload        *Payload        `json:"payload,omitempty"`
}

// CellState carries the lifecycle flags of a window.
type CellState struct {
	Minimized bool    `json:"minimized"`
	Maximized bool    `json:"maximized"`
	Opacity   float64 `json:"opacity"`
}

// CellTimestamps carries the creation and modification times, ISO 8601.
type CellTimestamps struct {
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}
