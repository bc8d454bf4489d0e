package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"gymdesk/internal/application/books"
	"gymdesk/internal/domain/attendance"
	"gymdesk/internal/domain/member"
)

// CheckInMemberInput carries the roll number typed at the desk.
type CheckInMemberInput struct {
	RollNumber string
}

// CheckInMemberDeps holds dependencies for CheckInMember.
type CheckInMemberDeps struct {
	Books *books.Books
	Now   func() time.Time
}

// ExecuteCheckInMember records today's visit for a member.
// PRE: RollNumber is the member's roll, any case
// POST: Exactly one check-in exists for (roll, today) on success
// INVARIANT: Expired members are refused before the duplicate check
func ExecuteCheckInMember(ctx context.Context, input CheckInMemberInput, deps CheckInMemberDeps) (attendance.CheckIn, error) {
	var recorded attendance.CheckIn
	err := deps.Books.UpdateCheckins(ctx, func(r *member.Registry, l *attendance.Ledger) error {
		e, err := l.Record(r, input.RollNumber, deps.Now())
		recorded = e
		return err
	})
	if err != nil {
		slog.Info("checkin_event", "event", "checkin_refused", "roll_number", member.NormalizeRoll(input.RollNumber), "reason", err.Error())
		return attendance.CheckIn{}, err
	}
	slog.Info("checkin_event", "event", "member_checked_in", "roll_number", recorded.RollNumber, "name", recorded.Name, "time", recorded.Time)
	return recorded, nil
}
