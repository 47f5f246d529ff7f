// Package storage defines the persistence contract shared by every backend.
package storage

import (
	"context"

	"pache/internal/core"
)

// Store persists pache snapshots. Implementations return core.ErrNotFound
// (possibly wrapped) when the requested pache does not exist, and must be
// safe for concurrent use.
type Store interface {
	ListPaches(ctx context.Context) ([]core.Pache, error)
	GetPache(ctx context.Context, id string) (core.Pache, error)
	CreatePache(ctx context.Context, p core.Pache) error
	SavePache(ctx context.Context, p core.Pache) error
	DeletePache(ctx context.Context, id string) error
	Close() error
}
