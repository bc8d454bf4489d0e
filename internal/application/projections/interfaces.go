package projections

import (
	"gymdesk/internal/application/books"
	"gymdesk/internal/domain/attendance"
	"gymdesk/internal/domain/member"
)

// BooksReader gives read access to the registry and ledger.
type BooksReader interface {
	View(fn func(members *member.Registry, checkins *attendance.Ledger))
}

var _ BooksReader = (*books.Books)(nil)
