package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/spatialdeck/backend/internal/infrastructure/monitoring"
	"github.com/spatialdeck/backend/internal/shared/types"
)

// TemplateTag marks a saved workspace as a reusable template.
const TemplateTag = "template"

// Catalog is the in-memory metadata index.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]*types.WorkspaceMetadata // Protected by mu, keyed by id
	metrics *monitoring.Metrics
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]*types.WorkspaceMetadata)}
}

// WithMetrics adds metrics tracking to the catalog.
func (c *Catalog) WithMetrics(metrics *monitoring.Metrics) *Catalog {
	c.metrics = metrics
	return c
}

// Register inserts or replaces a descriptor. A descriptor without an id gets
// one; a descriptor whose name is already indexed replaces that entry, so
// re-saving a workspace never duplicates it. Registration is independent of
// whether the underlying document exists.
func (c *Catalog) Register(meta types.WorkspaceMetadata) types.WorkspaceMetadata {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing := c.findByNameLocked(meta.Name); existing != "" && meta.ID == "" {
		meta.ID = existing
	}
	if meta.ID == "" {
		meta.ID = uuid.New().String()
	}

	entry := meta
	entry.Tags = append([]string(nil), meta.Tags...)
	entry.WindowTypes = append([]string(nil), meta.WindowTypes...)
	c.entries[entry.ID] = &entry
	c.updateGauge()
	return entry
}

// Remove deletes a descriptor by id.
func (c *Catalog) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[id]; !ok {
		return false
	}
	delete(c.entries, id)
	c.updateGauge()
	return true
}

// RemoveByName deletes a descriptor by workspace name.
func (c *Catalog) RemoveByName(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.findByNameLocked(name)
	if id == "" {
		return false
	}
	delete(c.entries, id)
	c.updateGauge()
	return true
}

// Get retrieves a descriptor by id.
func (c *Catalog) Get(id string) (*types.WorkspaceMetadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	out := cloneMeta(entry)
	return &out, true
}

// GetByName retrieves a descriptor by workspace name.
func (c *Catalog) GetByName(name string) (*types.WorkspaceMetadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id := c.findByNameLocked(name)
	if id == "" {
		return nil, false
	}
	out := cloneMeta(c.entries[id])
	return &out, true
}

// List returns descriptors sorted by name, optionally only templates.
func (c *Catalog) List(onlyTemplates bool) []types.WorkspaceMetadata {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.WorkspaceMetadata, 0, len(c.entries))
	for _, entry := range c.entries {
		if onlyTemplates && !entry.IsTemplate {
			continue
		}
		out = append(out, cloneMeta(entry))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Search matches the query case-insensitively against name, description and
// tags. An empty query returns the same as List(false).
func (c *Catalog) Search(query string) []types.WorkspaceMetadata {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return c.List(false)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []types.WorkspaceMetadata
	for _, entry := range c.entries {
		if matches(entry, query) {
			out = append(out, cloneMeta(entry))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of indexed descriptors.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Describe builds a descriptor for a stored document from its decoded
// metadata block, without registering it.
func Describe(name string, export *types.WorkspaceExport, sizeBytes int64) types.WorkspaceMetadata {
	meta := types.WorkspaceMetadata{
		Name:      name,
		SizeBytes: sizeBytes,
	}
	if export != nil {
		meta.WindowCount = export.TotalWindows
		meta.WindowTypes = append([]string(nil), export.WindowTypes...)
		meta.Tags = append([]string(nil), export.AllTags...)
		meta.CreatedAt = export.ExportDate
		meta.ModifiedAt = export.ExportDate
		for _, tag := range export.AllTags {
			if tag == TemplateTag {
				meta.IsTemplate = true
				break
			}
		}
	}
	return meta
}

func (c *Catalog) findByNameLocked(name string) string {
	for id, entry := range c.entries {
		if entry.Name == name {
			return id
		}
	}
	return ""
}

func (c *Catalog) updateGauge() {
	if c.metrics != nil {
		c.metrics.SetCatalogEntries(len(c.entries))
	}
}

func matches(entry *types.WorkspaceMetadata, query string) bool {
	if strings.Contains(strings.ToLower(entry.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(entry.Description), query) {
		return true
	}
	for _, tag := range entry.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func cloneMeta(entry *types.WorkspaceMetadata) types.WorkspaceMetadata {
	out := *entry
	out.Tags = append([]string(nil), entry.Tags...)
	out.WindowTypes = append([]string(nil), entry.WindowTypes...)
	return out
}
