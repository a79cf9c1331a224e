package backend

import (
	"context"

	"expensetracker/internal/store"
)

// CleanupFunc releases whatever the backend holds open.
type CleanupFunc func() error

// BackendResult is a ready store plus its cleanup.
type BackendResult struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	GormDBPath   string
	// GormVerbose turns on gorm's SQL logger.
	GormVerbose bool

	// SeedFile preloads the memory backend.
	SeedFile string
}

type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	GormBackend   BackendType = "gorm"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, GormBackend:
		return true
	default:
		return false
	}
}
