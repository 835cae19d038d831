// Package store abstracts the shared realtime document service every client
// reads and writes. Documents live under flat collection paths ("rooms",
// "games", "rooms/<id>/chat"); writes are partial-field merges with no
// conditional semantics, so two clients racing on the same document can both
// succeed. Turn ownership is therefore enforced by callers before they write,
// not by the store. Each implementation bumps an opaque revision counter on
// every write; nothing rejects a write against a stale revision yet.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNotFound is returned when a document path does not resolve.
var ErrNotFound = errors.New("store: document not found")

// Fields is a partial document: field name to any JSON-encodable value.
type Fields map[string]interface{}

// Snapshot is one pushed state of a document. Data holds the full document
// as JSON, or nil when the document was deleted. Rev increases by one per
// write to the same path.
type Snapshot struct {
	Path string `json:"path"`
	Rev  int64  `json:"rev"`
	Data []byte `json:"data,omitempty"`
}

// Decode unmarshals the snapshot document into out.
func (s Snapshot) Decode(out interface{}) error {
	if s.Data == nil {
		return ErrNotFound
	}
	return json.Unmarshal(s.Data, out)
}

// ID returns the final path segment, which is the document id.
func (s Snapshot) ID() string {
	if i := strings.LastIndex(s.Path, "/"); i >= 0 {
		return s.Path[i+1:]
	}
	return s.Path
}

// Store is the boundary with the external document service.
//
// Subscribe delivers snapshots in the store-defined write order for the path.
// Subscribing to a collection path delivers a snapshot for every change to
// any document in that collection. A slow subscriber may miss intermediate
// states but never sees them reordered. The returned stop function ends
// delivery and must be called exactly once.
type Store interface {
	// CreateDocument stores fields under a fresh id in collection and
	// returns that id. The id is also injected as the "id" field so the
	// document is self-describing.
	CreateDocument(ctx context.Context, collection string, fields Fields) (string, error)

	// PutDocument stores fields as a whole document at a caller-chosen path,
	// replacing whatever was there.
	PutDocument(ctx context.Context, path string, fields Fields) error

	// GetDocument unmarshals the latest state of path into out.
	GetDocument(ctx context.Context, path string, out interface{}) error

	// UpdateFields merges fields into the document at path. The untouched
	// fields keep their current values. No compare-and-swap: the merge
	// applies regardless of what the caller last read.
	UpdateFields(ctx context.Context, path string, fields Fields) error

	DeleteDocument(ctx context.Context, path string) error

	// ListDocuments returns a snapshot of every document in collection, in
	// no particular order.
	ListDocuments(ctx context.Context, collection string) ([]Snapshot, error)

	Subscribe(ctx context.Context, path string) (<-chan Snapshot, func(), error)
}

// parentCollection returns the collection a document path belongs to, or ""
// for a top-level collection path.
func parentCollection(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}

// encodeFields marshals every field value up front so a half-encodable
// update never reaches the store.
func encodeFields(fields Fields) (map[string]json.RawMessage, error) {
	enc := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		enc[k] = raw
	}
	return enc, nil
}
