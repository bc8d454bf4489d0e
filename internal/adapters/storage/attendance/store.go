package attendance

import (
	"context"

	domain "gymdesk/internal/domain/attendance"
)

// Store persists the check-in ledger as one document.
type Store interface {
	// LoadAll returns every recorded check-in in append order.
	// POST: An absent or unreadable document yields an empty slice and nil error
	LoadAll(ctx context.Context) ([]domain.CheckIn, error)

	// SaveAll replaces the stored document with events.
	SaveAll(ctx context.Context, events []domain.CheckIn) error
}
