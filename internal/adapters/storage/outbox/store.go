package outbox

import (
	"context"
	"errors"

	domain "gymdesk/internal/domain/outbox"
)

// ErrNotFound is returned when no entry has the requested ID.
var ErrNotFound = errors.New("outbox entry not found")

// Store persists parked side effects.
type Store interface {
	// GetByID retrieves an entry by its ID.
	// PRE: id is non-empty
	// POST: Returns the entry or ErrNotFound
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save inserts or replaces an entry.
	// PRE: e has been validated
	Save(ctx context.Context, e domain.Entry) error

	// ListPending returns entries still eligible for the worker, oldest first.
	// PRE: limit > 0
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)

	// List returns entries with the given status, newest first. An empty status lists all.
	// PRE: limit > 0
	List(ctx context.Context, status string, limit int) ([]domain.Entry, error)

	// Delete removes an entry.
	// PRE: entry is terminal
	Delete(ctx context.Context, id string) error
}
