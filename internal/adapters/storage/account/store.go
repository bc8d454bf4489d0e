package account

import (
	"context"
	"errors"

	domain "gymdesk/internal/domain/account"
)

// ErrNotFound is returned when no credentials have been saved yet.
var ErrNotFound = errors.New("credentials not found")

// Store persists the shared admin credentials.
type Store interface {
	// Get returns the saved credentials or ErrNotFound.
	Get(ctx context.Context) (domain.Credentials, error)

	// Save replaces the saved credentials.
	// PRE: c has been validated
	Save(ctx context.Context, c domain.Credentials) error
}
