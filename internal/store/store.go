// Package store provides persistence for tracked positions.
package store

import (
	"context"

	"github.com/justin7251/IG-stock/internal/models"
)

// PositionStore is the source of truth for tracked positions. The
// monitor loads the active set once at startup; changes made while it
// runs are picked up on the next restart.
type PositionStore interface {
	AddPosition(ctx context.Context, pos models.TrackedPosition) error
	// AddPositions inserts all-or-nothing; a failed bulk insert leaves
	// the store unchanged.
	AddPositions(ctx context.Context, positions []models.TrackedPosition) error
	ListPositions(ctx context.Context) ([]models.TrackedPosition, error)
	// ListActive returns positions not marked sold, oldest first.
	ListActive(ctx context.Context) ([]models.TrackedPosition, error)
	MarkSold(ctx context.Context, epic string) error
	Close() error
}
