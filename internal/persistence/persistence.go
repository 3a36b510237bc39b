// Package persistence saves and restores the witness memory store.
package persistence

import (
	"context"
	"errors"

	"surveillance-core/internal/suspicion"
)

// ErrSnapshotNotFound means nothing was saved yet; callers start cold.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store is a snapshot backend.
type Store interface {
	Save(ctx context.Context, snap suspicion.Snapshot) error
	Load(ctx context.Context) (suspicion.Snapshot, error)
	Close() error
}

// Noop discards snapshots.
type Noop struct{}

func (Noop) Save(context.Context, suspicion.Snapshot) error { return nil }

func (Noop) Load(context.Context) (suspicion.Snapshot, error) {
	return suspicion.Snapshot{}, ErrSnapshotNotFound
}

func (Noop) Close() error { return nil }
