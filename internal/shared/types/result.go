package types

import (
	"fmt"
	"strings"
)

// ImportResult aggregates what a restore imported into the registry.
type ImportResult struct {
	// RestoredWindows holds successfully upserted records with their final,
	// possibly remapped, ids.
	RestoredWindows []WindowRecord `json:"restored_windows"`
	// DecodeErrors holds the recoverable cell and document level failures.
	DecodeErrors []DecodeError `json:"decode_errors,omitempty"`
	// Metadata is the original document metadata, when decodable.
	Metadata *WorkspaceExport `json:"metadata,omitempty"`
	// IDMap maps original ids to the ids actually used, for every record
	// whose id had to change to avoid a collision.
	IDMap map[int]int `json:"id_map,omitempty"`
}

// FailedWindow records a window that imported but failed to open visually.
type FailedWindow struct {
	ID     int    `json:"id"`
	Reason string `json:"reason"`
}

// EnvironmentRestoreResult is the full outcome of one restore invocation.
// Import success and visual-open success are tracked independently: a window
// under FailedWindows is still present in the registry.
type EnvironmentRestoreResult struct {
	Import        ImportResult   `json:"import"`
	OpenedWindows []int          `json:"opened_windows"`
	FailedWindows []FailedWindow `json:"failed_windows,omitempty"`
	// FatalError is set only when the initial document read failed.
	FatalError string `json:"fatal_error,omitempty"`
}

// IsFullySuccessful reports whether nothing went wrong: no fatal error, no
// decode errors, and every imported window opened.
func (r *EnvironmentRestoreResult) IsFullySuccessful() bool {
	return r.FatalError == "" && len(r.Import.DecodeErrors) == 0 && len(r.FailedWindows) == 0
}

// Summary renders a human-readable account of the restore.
func (r *EnvironmentRestoreResult) Summary() string {
	if r.FatalError != "" {
		return fmt.Sprintf("restore failed: %s", r.FatalError)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d window(s) imported, %d opened", len(r.Import.RestoredWindows), len(r.OpenedWindows))
	if n := len(r.FailedWindows); n > 0 {
		fmt.Fprintf(&sb, ", %d imported but not opened", n)
	}
	if n := len(r.Import.DecodeErrors); n > 0 {
		fmt.Fprintf(&sb, ", %d cell(s) could not be decoded", n)
	}
	if n := len(r.Import.IDMap); n > 0 {
		fmt.Fprintf(&sb, ", %d id(s) remapped", n)
	}
	return sb.String()
}
