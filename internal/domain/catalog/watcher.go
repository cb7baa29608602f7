package catalog

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/spatialdeck/backend/internal/domain/codec"
	"github.com/spatialdeck/backend/internal/infrastructure/logging"
	"github.com/spatialdeck/backend/internal/storage"
)

// Watcher keeps the catalog in sync with a disk-backed document store, so
// documents dropped into (or removed from) the store directory by external
// tools show up in listings without an explicit register call.
type Watcher struct {
	catalog *Catalog
	store   *storage.DiskStore
	codec   *codec.Codec
	fsw     *fsnotify.Watcher
	logger  *logging.Logger
}

// NewWatcher creates a watcher over the store's root directory.
func NewWatcher(cat *Catalog, store *storage.DiskStore, cdc *codec.Codec, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher: %w", err)
	}
	if err := fsw.Add(store.Root()); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch store root: %w", err)
	}
	return &Watcher{catalog: cat, store: store, codec: cdc, fsw: fsw, logger: logger}, nil
}

// Run processes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Store watch error", zap.Error(err))
		}
	}
}

// Rescan rebuilds the index from the store contents. Called once at startup;
// after that the event stream keeps the index current.
func (w *Watcher) Rescan(ctx context.Context) error {
	names, err := w.store.List(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		w.index(ctx, name)
	}
	return nil
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	name, ok := storage.TrimExt(filepath.Base(event.Name))
	if !ok {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		w.index(ctx, name)
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		if w.catalog.RemoveByName(name) {
			w.logger.Info("Workspace removed from catalog", zap.String("name", name))
		}
	}
}

// index decodes just enough of a stored document to describe it.
func (w *Watcher) index(ctx context.Context, name string) {
	data, err := w.store.Read(ctx, name)
	if err != nil {
		w.logger.Warn("Failed to read workspace for indexing",
			zap.String("name", name), zap.Error(err))
		return
	}

	res := w.codec.DecodeBytes(data)
	meta := Describe(name, res.Metadata, int64(len(data)))
	if info, err := w.store.Stat(ctx, name); err == nil {
		meta.SizeBytes = info.SizeBytes
		meta.ModifiedAt = info.ModifiedAt
		if meta.CreatedAt.IsZero() {
			meta.CreatedAt = info.ModifiedAt
		}
	}

	w.catalog.Register(meta)
	w.logger.Debug("Workspace indexed", zap.String("name", name))
}
