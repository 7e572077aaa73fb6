package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Manager owns the single shared state Document and enforces the
// locking discipline: one lock per chatID, one global lock for root
// state, held across permission check and handler execution so
// mutations are never torn.
//
// The per-chat lock map follows a single-writer-serialization pattern
// (one shared mutex for root state, one per chat) combined with a
// sweep-on-access idiom that reaps chat locks that have gone unused for
// a while.
type Manager struct {
	store  Store
	logger *slog.Logger

	rootMu sync.Mutex

	locksMu   sync.Mutex
	chatLocks map[string]*chatLock

	docMu sync.RWMutex
	doc   *Document
}

type chatLock struct {
	mu       sync.Mutex
	lastUsed time.Time
}

// staleLockAge is how long an unused per-chat lock is kept around before a
// sweep may reap it.
const staleLockAge = 30 * time.Minute

// NewManager loads the document from store (seeding it with
// initialRootUserID on first boot) and returns a ready Manager.
func NewManager(ctx context.Context, store Store, initialRootUserID string, logger *slog.Logger) (*Manager, error) {
	doc, err := store.Load(ctx, initialRootUserID)
	if err != nil {
		return nil, fmt.Errorf("state: load document: %w", err)
	}
	return &Manager{
		store:     store,
		logger:    logger,
		chatLocks: make(map[string]*chatLock),
		doc:       doc,
	}, nil
}

// lockFor returns the mutex for chatID, creating it on first use and
// sweeping stale entries while holding locksMu.
func (m *Manager) lockFor(chatID string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()

	now := time.Now()
	for id, l := range m.chatLocks {
		if id != chatID && now.Sub(l.lastUsed) > staleLockAge {
			delete(m.chatLocks, id)
		}
	}

	l, ok := m.chatLocks[chatID]
	if !ok {
		l = &chatLock{lastUsed: now}
		m.chatLocks[chatID] = l
	} else {
		l.lastUsed = now
	}
	return &l.mu
}

// WithChat runs fn with the document and chatID's lock held, then persists
// the document. This is the only way callers should read or mutate chat
// state, so permission checks and handler execution never race.
func (m *Manager) WithChat(ctx context.Context, chatID string, fn func(doc *Document) error) error {
	lock := m.lockFor(chatID)
	lock.Lock()
	defer lock.Unlock()

	m.docMu.Lock()
	doc := m.doc
	m.docMu.Unlock()

	if err := fn(doc); err != nil {
		return err
	}
	return m.persist(ctx, doc)
}

// WithRoot runs fn with the document and the global root lock held, then
// persists. Used for root-scoped operations (global blacklist, root user
// bookkeeping): rootMu is distinct from any chatLock, so this is safe to
// call nested inside an already-held WithChat closure, which is how the
// router serializes a root command's handler execution against every
// other chat's root commands while still doing the envelope bookkeeping
// for the originating chat under its own lock.
func (m *Manager) WithRoot(ctx context.Context, fn func(doc *Document) error) error {
	m.rootMu.Lock()
	defer m.rootMu.Unlock()

	m.docMu.Lock()
	doc := m.doc
	m.docMu.Unlock()

	if err := fn(doc); err != nil {
		return err
	}
	return m.persist(ctx, doc)
}

// ReadOnly runs fn against the current document without acquiring any
// chat/root lock, for callers that only read (e.g. help generation).
func (m *Manager) ReadOnly(fn func(doc *Document)) {
	m.docMu.RLock()
	defer m.docMu.RUnlock()
	fn(m.doc)
}

func (m *Manager) persist(ctx context.Context, doc *Document) error {
	if err := m.store.Save(ctx, doc); err != nil {
		m.logger.Error("state: save failed", "error", err)
		return fmt.Errorf("state: save: %w", err)
	}
	return nil
}
