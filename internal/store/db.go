// Package store is the durable persistence backend: a single
// JSON-serialized Document row plus an append-only audit table, backed by
// SQLite.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/pocketbrain/wacore/internal/state"
)

// DB wraps a SQLite connection with prepared-statement management.
// The shared connection must not be used concurrently; all access is
// serialized via the exec method.
type DB struct {
	conn *sqlite3.Conn
	mu   sync.Mutex
}

// exec serializes all repository access to the shared SQLite connection.
// Every repository operation that touches conn must be wrapped in exec.
func (db *DB) exec(fn func() error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn()
}

// Open creates the data directory if needed, opens state.db, enables WAL,
// and runs schema migrations.
func Open(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dataDir, err)
	}

	dbPath := filepath.Join(dataDir, "state.db")
	conn, err := sqlite3.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Conn returns the underlying sqlite3 connection.
func (db *DB) Conn() *sqlite3.Conn {
	return db.conn
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS document (
			id      INTEGER PRIMARY KEY CHECK (id = 1),
			payload TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit (
			id          TEXT PRIMARY KEY,
			timestamp   TEXT NOT NULL,
			user_id     TEXT NOT NULL,
			chat_id     TEXT NOT NULL,
			raw_message TEXT NOT NULL,
			parsed      TEXT,
			status      TEXT NOT NULL,
			response    TEXT,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_chat ON audit(chat_id, timestamp)`,
	}

	for _, stmt := range ddl {
		if err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("exec ddl: %w", err)
		}
	}
	return nil
}

// Load implements state.Store: it returns the persisted Document, or a
// freshly-seeded one if none exists yet.
func (db *DB) Load(ctx context.Context, initialRootUserID string) (*state.Document, error) {
	var payload string
	found := false
	err := db.exec(func() error {
		return withStmt(db.conn, "SELECT payload FROM document WHERE id = 1", func(stmt *sqlite3.Stmt) error {
			if stmt.Step() {
				payload = stmt.ColumnText(0)
				found = true
			}
			return stmt.Err()
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if !found {
		return state.NewDocument(initialRootUserID), nil
	}

	doc := &state.Document{}
	if err := json.Unmarshal([]byte(payload), doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	if doc.Root == nil {
		doc.Root = state.NewRootState(initialRootUserID)
	}
	if doc.Chats == nil {
		doc.Chats = map[string]*state.ChatState{}
	}
	if doc.Sessions == nil {
		doc.Sessions = map[string]*state.Session{}
	}
	return doc, nil
}

// Save implements state.Store: it atomically replaces the persisted
// Document with doc.
func (db *DB) Save(ctx context.Context, doc *state.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return db.exec(func() error {
		return withStmt(db.conn,
			"INSERT INTO document (id, payload) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET payload = excluded.payload",
			func(stmt *sqlite3.Stmt) error {
				stmt.BindText(1, string(payload))
				stmt.Step()
				return stmt.Err()
			})
	})
}

// Append implements state.AuditSink: it appends rec to the write-only
// audit log.
func (db *DB) Append(ctx context.Context, rec state.AuditRecord) error {
	return db.exec(func() error {
		return withStmt(db.conn,
			`INSERT INTO audit (id, timestamp, user_id, chat_id, raw_message, parsed, status, response, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			func(stmt *sqlite3.Stmt) error {
				stmt.BindText(1, rec.ID)
				stmt.BindText(2, rec.Timestamp.Format(time.RFC3339Nano))
				stmt.BindText(3, rec.UserID)
				stmt.BindText(4, rec.ChatID)
				stmt.BindText(5, rec.RawMessage)
				stmt.BindText(6, rec.Parsed)
				stmt.BindText(7, string(rec.Status))
				stmt.BindText(8, rec.Response)
				stmt.BindText(9, rec.Error)
				stmt.Step()
				return stmt.Err()
			})
	})
}
