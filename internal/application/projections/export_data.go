package projections

import (
	"context"
	"time"

	"gymdesk/internal/domain/attendance"
	"gymdesk/internal/domain/export"
	"gymdesk/internal/domain/member"
)

// ExportDataDeps holds dependencies for ExportData.
type ExportDataDeps struct {
	Books BooksReader
	Now   func() time.Time
}

// QueryExportData copies both collections for download.
// POST: The snapshot shares no memory with the live aggregates
func QueryExportData(_ context.Context, deps ExportDataDeps) (export.Snapshot, error) {
	var (
		members  []member.Member
		checkins []attendance.CheckIn
	)
	deps.Books.View(func(r *member.Registry, l *attendance.Ledger) {
		members = r.All()
		checkins = l.All()
	})
	return export.NewSnapshot(members, checkins, deps.Now()), nil
}
