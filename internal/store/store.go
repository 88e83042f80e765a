package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNotFound is returned when no document exists under the requested key.
var ErrNotFound = errors.New("store: document not found")

// DocumentStore is the persistence substrate consumed by the sync engine:
// keyed JSON documents with full overwrite, per-field partial update and
// change subscription.
//
// Update field paths may be dotted to address nested sub-fields
// ("player1.secret"). Each partial update is applied atomically against the
// stored document; concurrent updates to disjoint fields do not lose writes.
//
// Subscribe delivers the current document first and again after every
// change. Callbacks run on a goroutine owned by the subscription, never on
// the caller's: Subscribe returns before the first delivery, so callers may
// hold locks that the callback itself acquires. A single subscriber always
// observes writes in a monotonic order; no ordering is guaranteed between
// different subscribers.
type DocumentStore interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, doc any) error
	Update(ctx context.Context, key string, fields map[string]any) error
	Subscribe(ctx context.Context, key string, fn func(json.RawMessage)) (func(), error)
}

// applyFields merges a partial field map into a decoded document, creating
// intermediate objects for dotted paths as needed.
func applyFields(doc map[string]any, fields map[string]any) {
	for path, value := range fields {
		parts := strings.Split(path, ".")
		node := doc
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[p] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
}
