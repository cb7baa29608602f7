package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/spatialdeck/backend/internal/infrastructure/logging"
	"github.com/spatialdeck/backend/internal/shared/types"
)

const (
	// Ext is the document file extension; the envelope is Jupyter-shaped so
	// external tools can open exported workspaces directly.
	Ext = ".ipynb"
	// GzExt marks a gzip-compressed document.
	GzExt = ".ipynb.gz"
)

// Info describes one stored document without reading it.
type Info struct {
	Name       string
	SizeBytes  int64
	ModifiedAt time.Time
	Compressed bool
}

// Store is the byte-level reader/writer collaborator the engine consumes.
type Store interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
	Stat(ctx context.Context, name string) (Info, error)
}

// DiskStore keeps workspace documents as *.ipynb files under a root
// directory, optionally gzip-compressed.
type DiskStore struct {
	root     string
	compress bool
	logger   *logging.Logger
}

// NewDiskStore creates the root directory if needed.
func NewDiskStore(root string, compress bool, logger *logging.Logger) (*DiskStore, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}
	return &DiskStore{root: root, compress: compress, logger: logger}, nil
}

// Root returns the directory documents are stored under.
func (s *DiskStore) Root() string {
	return s.root
}

// Read returns the document bytes, decompressing when the stored file is
// gzipped. A missing document is a fatal read error for the caller.
func (s *DiskStore) Read(ctx context.Context, name string) ([]byte, error) {
	base, err := sanitize(name)
	if err != nil {
		return nil, err
	}

	if data, err := os.ReadFile(filepath.Join(s.root, base+Ext)); err == nil {
		return data, nil
	}

	compressed, err := os.ReadFile(filepath.Join(s.root, base+GzExt))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrFileRead, name, err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrFileRead, name, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrFileRead, name, err)
	}
	return data, nil
}

// Write stores the document bytes, replacing any existing variant of the
// same name so a store never holds both a plain and a compressed copy.
func (s *DiskStore) Write(ctx context.Context, name string, data []byte) error {
	base, err := sanitize(name)
	if err != nil {
		return err
	}

	path := filepath.Join(s.root, base+Ext)
	stale := filepath.Join(s.root, base+GzExt)
	payload := data

	if s.compress {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("failed to compress document: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("failed to compress document: %w", err)
		}
		path, stale = stale, path
		payload = buf.Bytes()
	}

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	os.Remove(stale)

	s.logger.Debug("Stored workspace document",
		zap.String("name", base),
		zap.Int("bytes", len(payload)),
		zap.Bool("compressed", s.compress),
	)
	return nil
}

// Delete removes a document in either variant.
func (s *DiskStore) Delete(ctx context.Context, name string) error {
	base, err := sanitize(name)
	if err != nil {
		return err
	}

	plainErr := os.Remove(filepath.Join(s.root, base+Ext))
	gzErr := os.Remove(filepath.Join(s.root, base+GzExt))
	if plainErr != nil && gzErr != nil {
		return fmt.Errorf("document %s: %w", name, types.ErrNotFound)
	}
	return nil
}

// List returns the stored document names, sorted, without extensions.
func (s *DiskStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list store: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base, ok := TrimExt(entry.Name())
		if !ok || seen[base] {
			continue
		}
		seen[base] = true
		names = append(names, base)
	}
	sort.Strings(names)
	return names, nil
}

// Stat describes a stored document.
func (s *DiskStore) Stat(ctx context.Context, name string) (Info, error) {
	base, err := sanitize(name)
	if err != nil {
		return Info{}, err
	}

	for _, variant := range []struct {
		ext        string
		compressed bool
	}{{Ext, false}, {GzExt, true}} {
		fi, err := os.Stat(filepath.Join(s.root, base+variant.ext))
		if err != nil {
			continue
		}
		return Info{
			Name:       base,
			SizeBytes:  fi.Size(),
			ModifiedAt: fi.ModTime(),
			Compressed: variant.compressed,
		}, nil
	}
	return Info{}, fmt.Errorf("document %s: %w", name, types.ErrNotFound)
}

// TrimExt strips the document extension, reporting whether the filename was
// a workspace document at all.
func TrimExt(filename string) (string, bool) {
	switch {
	case strings.HasSuffix(filename, GzExt):
		return strings.TrimSuffix(filename, GzExt), true
	case strings.HasSuffix(filename, Ext):
		return strings.TrimSuffix(filename, Ext), true
	}
	return "", false
}

// sanitize rejects names that could escape the store root and strips any
// extension the caller passed in.
func sanitize(name string) (string, error) {
	if base, ok := TrimExt(name); ok {
		name = base
	}
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("invalid document name %q", name)
	}
	return name, nil
}
