// Package sqlite implements types.Store with SQLite as the query engine and
// JSONL files as the source of truth. Attach rebuilds a fresh database from
// sessions.jsonl and runs.jsonl; every write goes to the database and, per
// the sync strategy, back to the JSONL files.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

const dbFile = "coursealloc.db"

var _ types.Store = (*Backend)(nil)

// Backend is a types.Store backed by SQLite and JSONL files.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB

	syncStrategy string
	dirty        map[string]bool // JSONL files awaiting rewrite under on_close
}

// NewBackend returns a detached backend. Call Attach before use.
func NewBackend() *Backend {
	return &Backend{dirty: make(map[string]bool)}
}

// Attach opens the backend in config.DataDir, creating it if needed, and
// loads the JSONL files into a fresh database.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// The database is a cache of the JSONL files; start from scratch.
	dbPath := filepath.Join(dataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}
	if err := loadAllJSONL(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	config.DataDir = dataDir
	b.db = db
	b.config = config
	b.syncStrategy = config.EffectiveSyncStrategy()
	b.dirty = make(map[string]bool)
	b.attached = true
	return nil
}

// Detach writes any deferred JSONL files and closes the database. After
// Detach every operation returns ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.flushLocked(); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}
	if err := b.db.Close(); err != nil {
		return err
	}
	b.db = nil
	b.attached = false
	return nil
}

// initJSONLFiles creates empty JSONL files that do not exist yet.
func initJSONLFiles(dataDir string) error {
	for _, name := range []string{sessionsJSONL, runsJSONL} {
		path := filepath.Join(dataDir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("creating %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

// persist rewrites the named JSONL file now, or marks it for Detach under
// the on_close strategy. The caller must hold b.mu.
func (b *Backend) persist(file string) error {
	if b.syncStrategy == types.SyncOnClose {
		b.dirty[file] = true
		return nil
	}
	return b.writeFile(file)
}

// flushLocked rewrites every file marked dirty. The caller must hold b.mu.
func (b *Backend) flushLocked() error {
	for _, file := range []string{sessionsJSONL, runsJSONL} {
		if !b.dirty[file] {
			continue
		}
		if err := b.writeFile(file); err != nil {
			return fmt.Errorf("flush %s: %w", file, err)
		}
		delete(b.dirty, file)
	}
	return nil
}

func (b *Backend) writeFile(file string) error {
	var (
		records []json.RawMessage
		err     error
	)
	switch file {
	case sessionsJSONL:
		records, err = b.sessionRecords()
	case runsJSONL:
		records, err = b.runRecords()
	default:
		return fmt.Errorf("unknown JSONL file %s", file)
	}
	if err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.config.DataDir, file), records)
}
