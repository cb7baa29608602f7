package types

import "time"

// WindowKind identifies the visual variant of a window.
type WindowKind string

const (
	KindChart         WindowKind = "chart"
	KindSpatialEditor WindowKind = "spatial_editor"
	KindDataFrame     WindowKind = "dataframe"
	KindPointCloud    WindowKind = "pointcloud"
	KindModel3D       WindowKind = "model3d"
	KindVolume        WindowKind = "volume"
)

// Kinds lists every window kind in a stable order.
func Kinds() []WindowKind {
	return []WindowKind{
		KindChart,
		KindSpatialEditor,
		KindDataFrame,
		KindPointCloud,
		KindModel3D,
		KindVolume,
	}
}

// Valid reports whether k names a known window kind.
func (k WindowKind) Valid() bool {
	switch k {
	case KindChart, KindSpatialEditor, KindDataFrame, KindPointCloud, KindModel3D, KindVolume:
		return true
	}
	return false
}

// ExportTemplate selects how a window's content is rendered on export.
type ExportTemplate string

const (
	TemplatePlain    ExportTemplate = "plain"
	TemplatePython   ExportTemplate = "python"
	TemplateMarkdown ExportTemplate = "markdown"
	TemplateJSON     ExportTemplate = "json"
)

// Position is a window's 3D placement. The engine treats these values as
// opaque; nothing constrains them to a visible viewport.
type Position struct {
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Z      float64  `json:"z"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Depth  *float64 `json:"depth,omitempty"`
}

// DefaultPosition returns the placement used when a document omits one.
func DefaultPosition() Position {
	return Position{Width: 400, Height: 300}
}

// WindowState holds the mutable metadata of a window.
type WindowState struct {
	Minimized    bool           `json:"minimized"`
	Maximized    bool           `json:"maximized"`
	Opacity      float64        `json:"opacity"`
	Content      string         `json:"content,omitempty"`
	Template     ExportTemplate `json:"export_template"`
	ImportSource string         `json:"import_source,omitempty"`
	Tags         []string       `json:"tags,omitempty"` // insertion-ordered, duplicate-free
	LastModified time.Time      `json:"last_modified"`
	Payload      *Payload       `json:"payload,omitempty"`
}

// HasTag reports whether the state carries the given tag.
func (s *WindowState) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends a tag, preserving insertion order and rejecting duplicates.
func (s *WindowState) AddTag(tag string) {
	if tag == "" || s.HasTag(tag) {
		return
	}
	s.Tags = append(s.Tags, tag)
}

// WindowRecord is the persisted unit of workspace state for one window.
type WindowRecord struct {
	ID        int         `json:"id"`
	Kind      WindowKind  `json:"kind"`
	Position  Position    `json:"position"`
	State     WindowState `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
}

// Clone returns a deep copy so callers may mutate the result freely.
func (r WindowRecord) Clone() WindowRecord {
	out := r
	if r.State.Tags != nil {
		out.State.Tags = append([]string(nil), r.State.Tags...)
	}
	if r.Position.Depth != nil {
		d := *r.Position.Depth
		out.Position.Depth = &d
	}
	if r.State.Payload != nil {
		out.State.Payload = r.State.Payload.Clone()
	}
	return out
}

// Validate checks the kind/payload agreement invariant.
func (r *WindowRecord) Validate() error {
	if !r.Kind.Valid() {
		return &InvalidKindError{Kind: string(r.Kind)}
	}
	if r.State.Payload != nil && !r.State.Payload.MatchesKind(r.Kind) {
		return &PayloadMismatchError{Kind: r.Kind, Payload: r.State.Payload.Variant()}
	}
	return nil
}
