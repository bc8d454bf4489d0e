package projections

import (
	"context"
	"time"

	"gymdesk/internal/domain/attendance"
	"gymdesk/internal/domain/member"
)

// GetDashboardResult carries the dashboard read model.
type GetDashboardResult struct {
	member.Stats
	CheckinsToday  int                  `json:"checkinsToday"`
	DueToday       []member.Member      `json:"expiringTodayMembers"`
	DueSoon        []member.Member      `json:"expiringSoonMembers"`
	RecentCheckins []attendance.CheckIn `json:"recentCheckins"`
	Date           string               `json:"date"`
}

// RecentCheckinLimit caps the check-ins shown on the dashboard.
const RecentCheckinLimit = 10

// GetDashboardDeps holds dependencies for GetDashboard.
type GetDashboardDeps struct {
	Books BooksReader
	Now   func() time.Time
}

// QueryGetDashboard summarises the registry and today's attendance.
// POST: Counts are derived from today's date; nothing is stored
func QueryGetDashboard(_ context.Context, deps GetDashboardDeps) (GetDashboardResult, error) {
	today := deps.Now()
	res := GetDashboardResult{Date: member.FormatDate(today)}
	deps.Books.View(func(r *member.Registry, l *attendance.Ledger) {
		res.Stats = r.Stats(today)
		res.DueToday, res.DueSoon = r.Expiring(today)
		events := l.OnDate(today)
		res.CheckinsToday = len(events)
		if len(events) > RecentCheckinLimit {
			events = events[:RecentCheckinLimit]
		}
		res.RecentCheckins = events
	})
	if res.DueToday == nil {
		res.DueToday = []member.Member{}
	}
	if res.DueSoon == nil {
		res.DueSoon = []member.Member{}
	}
	return res, nil
}
