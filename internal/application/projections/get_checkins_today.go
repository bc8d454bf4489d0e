package projections

import (
	"context"
	"time"

	"gymdesk/internal/domain/attendance"
	"gymdesk/internal/domain/member"
)

// GetCheckinsTodayResult carries the query result.
type GetCheckinsTodayResult struct {
	Date     string               `json:"date"`
	Checkins []attendance.CheckIn `json:"checkins"`
	Count    int                  `json:"count"`
}

// GetCheckinsTodayDeps holds dependencies for GetCheckinsToday.
type GetCheckinsTodayDeps struct {
	Books BooksReader
	Now   func() time.Time
}

// QueryGetCheckinsToday lists today's check-ins, newest first.
// Events for members deleted since are still listed.
func QueryGetCheckinsToday(_ context.Context, deps GetCheckinsTodayDeps) (GetCheckinsTodayResult, error) {
	today := deps.Now()
	var events []attendance.CheckIn
	deps.Books.View(func(_ *member.Registry, l *attendance.Ledger) {
		events = l.OnDate(today)
	})
	if events == nil {
		events = []attendance.CheckIn{}
	}
	return GetCheckinsTodayResult{Date: member.FormatDate(today), Checkins: events, Count: len(events)}, nil
}
