package event

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for raw event access
type Repository interface {
	// ClaimPending stamps all unclaimed events created before the current
	// UTC date with runID, then returns every claimed eligible event,
	// including events still stamped by earlier runs that crashed before
	// retiring them.
	ClaimPending(ctx context.Context, runID uuid.UUID) ([]Event, error)

	// Delete permanently removes the given events. Called only after the
	// contribution of every listed event is durably reflected in its
	// day's rollup.
	Delete(ctx context.Context, ids []int64) error
}
