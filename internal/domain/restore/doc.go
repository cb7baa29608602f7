// Package restore re-creates windows from a saved workspace document.
//
// Each restore runs as a single logical task through a fixed state machine:
//
//	Idle -> Reading -> Decoding -> Reconciling -> Materializing -> Completed
//
// Only the initial document read can abort a restore. Decode errors and
// materialize failures are collected into the result; the orchestrator
// always reaches Completed and reports exactly what succeeded. Windows are
// materialized strictly sequentially in original cell order so the first
// cell is always the first visually opened window and progress is
// meaningfully monotonic.
//
// When merging into a non-empty workspace, ids that would collide with live
// windows are remapped deterministically and reported in the result's id
// map; no live window is ever silently overwritten.
package restore
