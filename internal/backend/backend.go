// Package backend selects and constructs the persistence implementation.
package backend

import (
	"fmt"
	"log/slog"

	"pache/internal/config"
	"pache/internal/storage"
	"pache/internal/storage/jsonfile"
	"pache/internal/storage/memory"
	"pache/internal/storage/sqlite"
)

type BackendType string

const (
	JSONFileBackend BackendType = "jsonfile"
	SQLiteBackend   BackendType = "sqlite"
	MemoryBackend   BackendType = "memory"
)

func (t BackendType) IsValid() bool {
	switch t {
	case JSONFileBackend, SQLiteBackend, MemoryBackend:
		return true
	}
	return false
}

func (t BackendType) String() string { return string(t) }

// Factory builds stores from application config.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateStore opens the store named by cfg.DataBackend. The caller owns the
// returned store and must Close it.
func (f *Factory) CreateStore(cfg *config.Config) (storage.Store, error) {
	backendType := BackendType(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch backendType {
	case JSONFileBackend:
		store, err := jsonfile.New(cfg.JSONFilePath)
		if err != nil {
			return nil, fmt.Errorf("initialize jsonfile store: %w", err)
		}
		f.logger.Info("Initialized jsonfile backend", "path", cfg.JSONFilePath)
		return store, nil

	case SQLiteBackend:
		store, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		f.logger.Info("Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return store, nil

	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", backendType)
	}
}
