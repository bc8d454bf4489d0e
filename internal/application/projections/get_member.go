package projections

import (
	"context"
	"time"

	"gymdesk/internal/domain/attendance"
	"gymdesk/internal/domain/member"
)

// MemberView is a member with its derived status.
type MemberView struct {
	member.Member
	Status string `json:"status"`
}

func viewOf(m member.Member, today time.Time) MemberView {
	return MemberView{Member: m, Status: m.Status(today)}
}

// GetMemberQuery carries query parameters.
type GetMemberQuery struct {
	RollNumber string
}

// GetMemberDeps holds dependencies for GetMember.
type GetMemberDeps struct {
	Books BooksReader
	Now   func() time.Time
}

// QueryGetMember looks a member up by roll number.
// POST: Returns member.ErrNotFound when absent
func QueryGetMember(_ context.Context, query GetMemberQuery, deps GetMemberDeps) (MemberView, error) {
	var (
		m  member.Member
		ok bool
	)
	deps.Books.View(func(r *member.Registry, _ *attendance.Ledger) {
		m, ok = r.FindByRoll(query.RollNumber)
	})
	if !ok {
		return MemberView{}, member.ErrNotFound
	}
	return viewOf(m, deps.Now()), nil
}
