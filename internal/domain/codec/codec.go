package codec

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/spatialdeck/backend/internal/shared/types"
)

// ContentFunc renders the textual body of a cell for one window record.
type ContentFunc func(types.WindowRecord) string

// Codec encodes and decodes notebook documents.
type Codec struct {
	generators map[types.WindowKind]ContentFunc
}

// Result is the outcome of a decode: the records that survived, the
// recoverable errors, and the document metadata when present.
type Result struct {
	Records  []types.WindowRecord
	Errors   []types.DecodeError
	Metadata *types.WorkspaceExport
}

// New creates a codec with the default per-kind content generators.
func New() *Codec {
	return &Codec{generators: defaultGenerators()}
}

// SetGenerator overrides the content generator for one window kind. The
// rendering layer installs its real generators through this hook.
func (c *Codec) SetGenerator(kind types.WindowKind, fn ContentFunc) {
	if fn != nil {
		c.generators[kind] = fn
	}
}

// Encode builds a document from a record set. Cell order is ascending window
// id, the three workspace_export collections are de-duplicated sets, and the
// export date is stamped with the current time.
func (c *Codec) Encode(records []types.WindowRecord) types.Document {
	ordered := orderByID(records)

	cells := make([]types.Cell, 0, len(ordered))
	var kinds, templates, tags []string
	for _, rec := range ordered {
		cells = append(cells, c.encodeCell(rec))
		kinds = appendUnique(kinds, string(rec.Kind))
		templates = appendUnique(templates, string(templateOrDefault(rec.State.Template)))
		for _, tag := range rec.State.Tags {
			tags = appendUnique(tags, tag)
		}
	}

	return types.Document{
		Cells: cells,
		Metadata: types.DocumentMetadata{
			Kernelspec:   defaultKernelspec(),
			LanguageInfo: defaultLanguageInfo(),
			WorkspaceExport: &types.WorkspaceExport{
				ExportDate:      time.Now().UTC(),
				TotalWindows:    len(ordered),
				WindowTypes:     emptyNotNil(kinds),
				ExportTemplates: emptyNotNil(templates),
				AllTags:         emptyNotNil(tags),
			},
		},
		NBFormat:      types.NBFormat,
		NBFormatMinor: types.NBFormatMinor,
	}
}

// EncodeBytes encodes records and marshals the document to indented JSON.
func (c *Codec) EncodeBytes(records []types.WindowRecord) ([]byte, error) {
	return Marshal(c.Encode(records))
}

// Marshal renders a document as indented JSON.
func Marshal(doc types.Document) ([]byte, error) {
	data, err := sonic.MarshalIndent(doc, "", " ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// Decode reconstructs window records from a document. Cells decode
// independently; a malformed cell contributes a DecodeError and decoding
// continues. Decode is never all-or-nothing.
func (c *Codec) Decode(doc types.Document) Result {
	res := Result{Metadata: doc.Metadata.WorkspaceExport}

	for i, cell := range doc.Cells {
		rec, err := decodeCell(cell)
		if err != nil {
			res.Errors = append(res.Errors, types.DecodeError{CellIndex: i, Message: err.Error()})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// DecodeBytes parses document JSON and decodes it. Bytes that are not valid
// JSON, or lack a cells array, yield zero records and one document-level
// error rather than a failure.
func (c *Codec) DecodeBytes(data []byte) Result {
	var doc types.Document
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return Result{Errors: []types.DecodeError{{
			CellIndex: -1,
			Message:   fmt.Sprintf("document is not valid JSON: %v", err),
		}}}
	}
	if doc.Cells == nil {
		return Result{
			Metadata: doc.Metadata.WorkspaceExport,
			Errors: []types.DecodeError{{
				CellIndex: -1,
				Message:   "document has no cells array",
			}},
		}
	}
	return c.Decode(doc)
}

// encodeCell serializes one record. The cell metadata block is built verbatim
// from the record's fields; source comes from the per-kind generator.
func (c *Codec) encodeCell(rec types.WindowRecord) types.Cell {
	content := c.generate(rec)
	template := templateOrDefault(rec.State.Template)

	cellType := types.CellTypeCode
	if template == types.TemplateMarkdown {
		cellType = types.CellTypeMarkdown
	}

	pos := rec.Position
	return types.Cell{
		CellType: cellType,
		Metadata: types.CellMetadata{
			WindowID:       intPtr(rec.ID),
			WindowType:     string(rec.Kind),
			ExportTemplate: string(template),
			ImportSource:   rec.State.ImportSource,
			Tags:           append([]string(nil), rec.State.Tags...),
			Position:       &pos,
			State: &types.CellState{
				Minimized: rec.State.Minimized,
				Maximized: rec.State.Maximized,
				Opacity:   rec.State.Opacity,
			},
			Timestamps: &types.CellTimestamps{
				Created:  rec.CreatedAt,
				Modified: rec.State.LastModified,
			},
			Payload: rec.State.Payload.Clone(),
		},
		Source: SplitLines(content),
	}
}

// generate invokes the content generator for the record's kind.
func (c *Codec) generate(rec types.WindowRecord) string {
	if fn, ok := c.generators[rec.Kind]; ok {
		return fn(rec)
	}
	return rec.State.Content
}

// decodeCell reconstructs a record from one cell.
func decodeCell(cell types.Cell) (types.WindowRecord, error) {
	meta := cell.Metadata

	if meta.WindowID == nil {
		return types.WindowRecord{}, fmt.Errorf("cell missing window_id")
	}
	if meta.WindowType == "" {
		return types.WindowRecord{}, fmt.Errorf("cell missing window_type")
	}
	kind := types.WindowKind(meta.WindowType)
	if !kind.Valid() {
		return types.WindowRecord{}, fmt.Errorf("unknown window_type %q", meta.WindowType)
	}
	if !meta.Payload.MatchesKind(kind) {
		return types.WindowRecord{}, fmt.Errorf("payload does not match window_type %q", meta.WindowType)
	}

	rec := types.WindowRecord{
		ID:       *meta.WindowID,
		Kind:     kind,
		Position: decodePosition(meta.Position),
		State: types.WindowState{
			Opacity:      1.0,
			Content:      JoinLines(cell.Source),
			Template:     decodeTemplate(meta.ExportTemplate),
			ImportSource: meta.ImportSource,
			Payload:      meta.Payload.Clone(),
		},
	}

	for _, tag := range meta.Tags {
		rec.State.AddTag(tag)
	}
	if meta.State != nil {
		rec.State.Minimized = meta.State.Minimized
		rec.State.Maximized = meta.State.Maximized
		rec.State.Opacity = meta.State.Opacity
	}
	if meta.Timestamps != nil {
		rec.CreatedAt = meta.Timestamps.Created
		rec.State.LastModified = meta.Timestamps.Modified
	}
	return rec, nil
}

// decodePosition applies the documented defaults: missing coordinates are 0,
// missing dimensions are 400x300.
func decodePosition(pos *types.Position) types.Position {
	if pos == nil {
		return types.DefaultPosition()
	}
	out := *pos
	if out.Width <= 0 {
		out.Width = 400
	}
	if out.Height <= 0 {
		out.Height = 300
	}
	if pos.Depth != nil {
		d := *pos.Depth
		out.Depth = &d
	}
	return out
}

func decodeTemplate(raw string) types.ExportTemplate {
	if raw == "" {
		return types.TemplatePlain
	}
	return types.ExportTemplate(raw)
}

func templateOrDefault(t types.ExportTemplate) types.ExportTemplate {
	if t == "" {
		return types.TemplatePlain
	}
	return t
}

// SplitLines splits content into Jupyter-style source lines: every line keeps
// its trailing newline except the last.
func SplitLines(content string) []string {
	if content == "" {
		return []string{}
	}
	parts := strings.SplitAfter(content, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "")
}

func orderByID(records []types.WindowRecord) []types.WindowRecord {
	out := make([]types.WindowRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func appendUnique(list []string, value string) []string {
	if value == "" {
		return list
	}
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

func emptyNotNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func intPtr(v int) *int { return &v }

func defaultKernelspec() map[string]interface{} {
	return map[string]interface{}{
		"display_name": "Python 3",
		"language":     "python",
		"name":         "python3",
	}
}

func defaultLanguageInfo() map[string]interface{} {
	return map[string]interface{}{
		"name":    "python",
		"version": "3.11",
	}
}
