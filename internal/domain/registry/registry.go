package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spatialdeck/backend/internal/infrastructure/monitoring"
	"github.com/spatialdeck/backend/internal/shared/types"
)

// Registry is the authoritative map of window id to window record.
type Registry struct {
	mu      sync.RWMutex
	windows map[int]*types.WindowRecord // Protected by mu
	nextID  int                         // Protected by mu
	metrics *monitoring.Metrics
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		windows: make(map[int]*types.WindowRecord),
		nextID:  1,
	}
}

// WithMetrics adds metrics tracking to the registry.
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// Create allocates a new record with an internally-issued unique id, default
// state and CreatedAt set to now.
func (r *Registry) Create(kind types.WindowKind, position types.Position) *types.WindowRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := newRecord(r.allocateID(), kind, position)
	r.windows[rec.ID] = rec
	r.updateGauge()
	if r.metrics != nil {
		r.metrics.IncWindowsCreated()
	}

	out := rec.Clone()
	return &out
}

// CreateWithID allocates a new record under a caller-supplied id. It fails
// only when the id is already taken.
func (r *Registry) CreateWithID(id int, kind types.WindowKind, position types.Position) (*types.WindowRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.windows[id]; exists {
		return nil, fmt.Errorf("create window %d: %w", id, types.ErrIDExists)
	}

	rec := newRecord(id, kind, position)
	r.windows[id] = rec
	if id >= r.nextID {
		r.nextID = id + 1
	}
	r.updateGauge()
	if r.metrics != nil {
		r.metrics.IncWindowsCreated()
	}

	out := rec.Clone()
	return &out, nil
}

// Get retrieves a window by id. Absence is not an error.
func (r *Registry) Get(id int) (*types.WindowRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.windows[id]
	if !ok {
		return nil, false
	}

	// Return a copy to prevent external modifications
	out := rec.Clone()
	return &out, true
}

// Upsert inserts or fully replaces a record by id. Used by restore.
func (r *Registry) Upsert(record types.WindowRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := record.Clone()
	rec.State.LastModified = time.Now()
	r.windows[rec.ID] = &rec
	if rec.ID >= r.nextID {
		r.nextID = rec.ID + 1
	}
	r.updateGauge()

	return nil
}

// UpdateState applies a partial mutation and refreshes LastModified. It is a
// no-op, not an error, when the id is absent; callers must not assume
// mutation implies existence. The mutation is rejected when it would break
// the kind/payload agreement or change the record's identity.
func (r *Registry) UpdateState(id int, mutate func(*types.WindowRecord)) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.windows[id]
	if !ok {
		return false, nil
	}

	// Mutate a copy so a rejected mutation leaves the record untouched.
	next := rec.Clone()
	mutate(&next)
	next.ID = rec.ID
	next.Kind = rec.Kind
	next.CreatedAt = rec.CreatedAt

	if err := next.Validate(); err != nil {
		return false, err
	}

	next.State.LastModified = time.Now()
	r.windows[id] = &next
	return true, nil
}

// Remove deletes a window. Returns false when the id was absent.
func (r *Registry) Remove(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.windows[id]; !ok {
		return false
	}
	delete(r.windows, id)
	r.updateGauge()
	return true
}

// RemoveAll deletes every window. This is the primitive "clear existing
// windows" operation used by restore.
func (r *Registry) RemoveAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.windows = make(map[int]*types.WindowRecord)
	r.nextID = 1
	r.updateGauge()
}

// Snapshot returns an id-ordered copy of every record. The copies do not
// alias internal storage; callers may mutate them freely.
func (r *Registry) Snapshot() []types.WindowRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.WindowRecord, 0, len(r.windows))
	for _, rec := range r.windows {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NextAvailableID returns max(existing ids) + 1, or 1 when the registry is
// empty.
func (r *Registry) NextAvailableID() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextAvailableIDLocked()
}

// Has reports whether a window with the given id exists.
func (r *Registry) Has(id int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.windows[id]
	return ok
}

// Count returns the number of live windows.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}

func (r *Registry) nextAvailableIDLocked() int {
	max := 0
	for id := range r.windows {
		if id > max {
			max = id
		}
	}
	return max + 1
}

// allocateID issues the next free id. Must hold mu.
func (r *Registry) allocateID() int {
	if next := r.nextAvailableIDLocked(); next > r.nextID {
		r.nextID = next
	}
	id := r.nextID
	r.nextID++
	return id
}

// updateGauge pushes the live window count to metrics. Must hold mu.
func (r *Registry) updateGauge() {
	if r.metrics != nil {
		r.metrics.SetWindowsActive(len(r.windows))
	}
}

func newRecord(id int, kind types.WindowKind, position types.Position) *types.WindowRecord {
	now := time.Now()
	return &types.WindowRecord{
		ID:       id,
		Kind:     kind,
		Position: position,
		State: types.WindowState{
			Opacity:      1.0,
			Template:     types.TemplatePlain,
			LastModified: now,
		},
		CreatedAt: now,
	}
}
