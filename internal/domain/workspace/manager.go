// Package workspace owns the save side of persistence: snapshotting the
// registry, encoding the document, handing bytes to the store and indexing
// the result in the catalog.
package workspace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spatialdeck/backend/internal/domain/catalog"
	"github.com/spatialdeck/backend/internal/domain/codec"
	"github.com/spatialdeck/backend/internal/domain/registry"
	"github.com/spatialdeck/backend/internal/infrastructure/logging"
	"github.com/spatialdeck/backend/internal/infrastructure/monitoring"
	"github.com/spatialdeck/backend/internal/shared/types"
	"github.com/spatialdeck/backend/internal/storage"
)

// Manager handles workspace persistence.
type Manager struct {
	registry *registry.Registry
	codec    *codec.Codec
	store    storage.Store
	catalog  *catalog.Catalog
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	mu           sync.RWMutex
	lastSaved    *time.Time
	lastRestored *time.Time
}

// SaveOptions describes one save.
type SaveOptions struct {
	Name        string
	Description string
	Category    string
	IsTemplate  bool
}

// Stats contains workspace manager statistics.
type Stats struct {
	SavedWorkspaces int        `json:"saved_workspaces"`
	LastSaved       *time.Time `json:"last_saved,omitempty"`
	LastRestored    *time.Time `json:"last_restored,omitempty"`
}

// NewManager creates a workspace manager.
func NewManager(reg *registry.Registry, cdc *codec.Codec, store storage.Store, cat *catalog.Catalog, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Manager{
		registry: reg,
		codec:    cdc,
		store:    store,
		catalog:  cat,
		logger:   logger,
	}
}

// WithMetrics adds metrics tracking to the manager.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Save snapshots the registry, encodes the document, writes it to the store
// and registers a descriptor in the catalog.
func (m *Manager) Save(ctx context.Context, opts SaveOptions) (types.WorkspaceMetadata, error) {
	if opts.Name == "" {
		return types.WorkspaceMetadata{}, fmt.Errorf("workspace name is required")
	}

	// Snapshot and encode without holding any manager lock; the registry
	// guards its own consistency.
	records := m.registry.Snapshot()
	doc := m.codec.Encode(records)
	data, err := codec.Marshal(doc)
	if err != nil {
		return types.WorkspaceMetadata{}, fmt.Errorf("failed to encode workspace: %w", err)
	}

	if err := m.store.Write(ctx, opts.Name, data); err != nil {
		return types.WorkspaceMetadata{}, fmt.Errorf("failed to store workspace: %w", err)
	}

	meta := catalog.Describe(opts.Name, doc.Metadata.WorkspaceExport, int64(len(data)))
	meta.Description = opts.Description
	meta.Category = opts.Category
	if opts.IsTemplate {
		meta.IsTemplate = true
	}
	meta = m.catalog.Register(meta)

	now := time.Now()
	m.mu.Lock()
	m.lastSaved = &now
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.IncWorkspacesSaved()
	}
	m.logger.Info("Workspace saved",
		zap.String("name", opts.Name),
		zap.Int("windows", len(records)),
		zap.Int("bytes", len(data)),
	)
	return meta, nil
}

// Document returns the raw stored bytes for download or inspection.
func (m *Manager) Document(ctx context.Context, name string) ([]byte, error) {
	return m.store.Read(ctx, name)
}

// Delete removes the stored document and its catalog descriptor.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if err := m.store.Delete(ctx, name); err != nil {
		return err
	}
	m.catalog.RemoveByName(name)
	return nil
}

// MarkRestored records that a restore completed; the server calls this after
// a successful orchestrator run.
func (m *Manager) MarkRestored() {
	now := time.Now()
	m.mu.Lock()
	m.lastRestored = &now
	m.mu.Unlock()
}

// Stats returns workspace manager statistics.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	lastSaved := m.lastSaved
	lastRestored := m.lastRestored
	m.mu.RUnlock()

	return Stats{
		SavedWorkspaces: m.catalog.Count(),
		LastSaved:       lastSaved,
		LastRestored:    lastRestored,
	}
}
