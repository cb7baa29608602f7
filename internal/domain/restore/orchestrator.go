package restore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spatialdeck/backend/internal/domain/codec"
	"github.com/spatialdeck/backend/internal/domain/registry"
	"github.com/spatialdeck/backend/internal/infrastructure/logging"
	"github.com/spatialdeck/backend/internal/infrastructure/monitoring"
	"github.com/spatialdeck/backend/internal/shared/types"
)

// State names one phase of a restore. No transition skips a state.
type State string

const (
	StateIdle          State = "idle"
	StateReading       State = "reading"
	StateDecoding      State = "decoding"
	StateReconciling   State = "reconciling"
	StateMaterializing State = "materializing"
	StateCompleted     State = "completed"
)

// DocumentReader fetches raw document bytes. The disk store satisfies this;
// tests inject failures through it.
type DocumentReader interface {
	Read(ctx context.Context, name string) ([]byte, error)
}

// Options controls one restore invocation.
type Options struct {
	// ClearExisting removes every live window before reconciling ids, making
	// the restore idempotent. Without it the restore is additive and
	// colliding ids are remapped.
	ClearExisting bool
}

// MaterializeFunc visually opens an already-imported window. Supplied by the
// UI layer; a failure leaves the window imported but marks it as not opened.
type MaterializeFunc func(windowID int) error

// ProgressFunc observes restore progress. done/total is monotonically
// non-decreasing within one restore and total is the decoded record count.
type ProgressFunc func(state State, done, total int)

// Orchestrator drives workspace restores against one registry. At most one
// restore is active per orchestrator; concurrent calls serialize.
type Orchestrator struct {
	mu         sync.Mutex
	registry   *registry.Registry
	codec      *codec.Codec
	reader     DocumentReader
	logger     *logging.Logger
	metrics    *monitoring.Metrics
	onProgress ProgressFunc
}

// New creates a restore orchestrator.
func New(reg *registry.Registry, cdc *codec.Codec, reader DocumentReader, logger *logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Orchestrator{
		registry: reg,
		codec:    cdc,
		reader:   reader,
		logger:   logger,
	}
}

// WithMetrics adds metrics tracking to the orchestrator.
func (o *Orchestrator) WithMetrics(metrics *monitoring.Metrics) *Orchestrator {
	o.metrics = metrics
	return o
}

// WithProgress installs a progress observer.
func (o *Orchestrator) WithProgress(fn ProgressFunc) *Orchestrator {
	o.onProgress = fn
	return o
}

// Restore reads, decodes, reconciles and materializes a saved workspace.
//
// The returned error is non-nil only for the fatal class: the document could
// not be read at all. Every other failure — malformed cells, materialize
// callbacks that report errors, id collisions — is captured in the result.
// Cancellation is honored between materialize steps: remaining records are
// still imported but not opened.
func (o *Orchestrator) Restore(ctx context.Context, name string, opts Options, materialize MaterializeFunc) (*types.EnvironmentRestoreResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	result := &types.EnvironmentRestoreResult{
		OpenedWindows: []int{},
		Import: types.ImportResult{
			RestoredWindows: []types.WindowRecord{},
			IDMap:           map[int]int{},
		},
	}

	// Reading
	o.report(StateReading, 0, 0)
	data, err := o.reader.Read(ctx, name)
	if err != nil {
		fatal := fmt.Errorf("restore %q: %w", name, err)
		result.FatalError = fatal.Error()
		o.report(StateCompleted, 0, 0)
		o.logger.Error("Restore aborted: document unreadable",
			zap.String("workspace", name), zap.Error(err))
		return result, fatal
	}

	// Decoding
	o.report(StateDecoding, 0, 0)
	decoded := o.codec.DecodeBytes(data)
	result.Import.DecodeErrors = decoded.Errors
	result.Import.Metadata = decoded.Metadata
	if o.metrics != nil {
		o.metrics.AddDecodeErrors(len(decoded.Errors))
	}

	total := len(decoded.Records)

	// Reconciling. The clear runs whenever requested, even when nothing
	// decoded; this matches the source behavior where "clear existing"
	// empties the workspace before any window is re-created.
	o.report(StateReconciling, 0, total)
	if opts.ClearExisting {
		o.registry.RemoveAll()
	}

	// Materializing, strictly sequential in original cell order.
	cancelled := false
	for i, rec := range decoded.Records {
		if !cancelled && ctx.Err() != nil {
			cancelled = true
			o.logger.Warn("Restore cancelled; importing remaining windows without opening",
				zap.String("workspace", name), zap.Int("remaining", total-i))
		}

		originalID := rec.ID
		if !opts.ClearExisting && o.registry.Has(rec.ID) {
			rec.ID = o.registry.NextAvailableID()
			result.Import.IDMap[originalID] = rec.ID
		}

		if err := o.registry.Upsert(rec); err != nil {
			result.Import.DecodeErrors = append(result.Import.DecodeErrors, types.DecodeError{
				CellIndex: i,
				Message:   fmt.Sprintf("window %d rejected: %v", originalID, err),
			})
			o.report(StateMaterializing, i+1, total)
			continue
		}
		result.Import.RestoredWindows = append(result.Import.RestoredWindows, rec)

		switch {
		case cancelled:
			result.FailedWindows = append(result.FailedWindows, types.FailedWindow{
				ID: rec.ID, Reason: context.Cause(ctx).Error(),
			})
		case materialize == nil:
			result.OpenedWindows = append(result.OpenedWindows, rec.ID)
		default:
			if err := materialize(rec.ID); err != nil {
				result.FailedWindows = append(result.FailedWindows, types.FailedWindow{
					ID: rec.ID, Reason: err.Error(),
				})
			} else {
				result.OpenedWindows = append(result.OpenedWindows, rec.ID)
			}
		}

		o.report(StateMaterializing, i+1, total)
	}

	// Completed
	o.report(StateCompleted, total, total)
	if o.metrics != nil {
		o.metrics.RecordRestore(time.Since(start))
	}

	o.logger.Info("Restore completed",
		zap.String("workspace", name),
		zap.Int("imported", len(result.Import.RestoredWindows)),
		zap.Int("opened", len(result.OpenedWindows)),
		zap.Int("failed", len(result.FailedWindows)),
		zap.Int("decode_errors", len(result.Import.DecodeErrors)),
		zap.Int("remapped", len(result.Import.IDMap)),
	)
	return result, nil
}

func (o *Orchestrator) report(state State, done, total int) {
	if o.onProgress != nil {
		o.onProgress(state, done, total)
	}
}
