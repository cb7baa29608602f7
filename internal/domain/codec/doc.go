// Package codec converts window records to and from the notebook-shaped
// JSON interchange document.
//
// The codec is pure: it performs no I/O and holds no document state. Encode
// is deterministic for a given record set (cells are ordered by ascending
// window id); Decode is partial-failure tolerant by design — a malformed
// cell yields one DecodeError and the rest of the document continues to
// decode.
//
// Per-kind textual content is produced by pluggable generators. The engine
// only invokes them; real chart/dataframe/model rendering is supplied by the
// view layer.
package codec
