// Package sqlite exposes the SQLite session store while keeping its
// implementation internal.
package sqlite

import (
	"github.com/mesh-intelligence/coursealloc/internal/sqlite"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

// Store is a types.Store with an attach lifecycle.
type Store interface {
	types.Store

	// Attach opens the store in config.DataDir and loads persisted sessions.
	Attach(config types.Config) error

	// Detach flushes pending writes and releases the database.
	Detach() error
}

// NewBackend creates a detached SQLite store.
//
// Example:
//
//	store := sqlite.NewBackend()
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".coursealloc-db",
//	})
//	defer store.Detach()
func NewBackend() Store {
	return sqlite.NewBackend()
}
