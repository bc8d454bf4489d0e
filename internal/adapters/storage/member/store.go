package member

import (
	"context"

	domain "gymdesk/internal/domain/member"
)

// Store persists the whole member registry as one document.
type Store interface {
	// LoadAll returns every stored member.
	// POST: An absent or unreadable document yields an empty slice and nil error
	LoadAll(ctx context.Context) ([]domain.Member, error)

	// SaveAll replaces the stored document with members.
	SaveAll(ctx context.Context, members []domain.Member) error
}
