// Package catalog maintains a metadata index over saved workspace documents.
//
// The catalog is a secondary index, not the source of truth for document
// bytes — the document store is. Descriptors carry enough (name, category,
// tags, window types, size, timestamps) for listing and search without
// decoding every saved document.
//
// A Watcher can keep the index in sync with the on-disk store: documents
// created or removed outside the API are picked up via fsnotify events.
package catalog
