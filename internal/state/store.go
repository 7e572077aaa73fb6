package state

import "context"

// Store is the durable persistence interface consumed by the state
// manager: a key-addressed document store that can load one
// bot-state aggregate and save it atomically. The concrete backend (a
// black box) is supplied by package store; tests may use
// any in-memory fake implementing this interface.
type Store interface {
	// Load returns the persisted Document, or a freshly-seeded one if none
	// exists yet.
	Load(ctx context.Context, initialRootUserID string) (*Document, error)

	// Save atomically persists doc, replacing whatever was previously
	// stored.
	Save(ctx context.Context, doc *Document) error
}

// AuditSink is the append-only audit log interface consumed by the
// router. AuditRecords are write-only from the core.
type AuditSink interface {
	Append(ctx context.Context, rec AuditRecord) error
}
