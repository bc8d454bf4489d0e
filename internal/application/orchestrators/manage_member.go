package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"gymdesk/internal/application/books"
	"gymdesk/internal/domain/member"
)

// AddMemberInput carries the new-member form.
type AddMemberInput struct {
	Candidate member.Candidate
}

// AddMemberDeps holds dependencies for AddMember.
type AddMemberDeps struct {
	Books  *books.Books
	Backup *BackupDispatcher // optional
	Now    func() time.Time
}

// ExecuteAddMember registers a member and starts its backup.
// PRE: Candidate holds the form fields
// POST: Member is persisted with ExpiryDate = JoinDate + DurationMonths
// INVARIANT: Backup failure never fails the add
func ExecuteAddMember(ctx context.Context, input AddMemberInput, deps AddMemberDeps) (member.Member, error) {
	var added member.Member
	err := deps.Books.UpdateMembers(ctx, func(r *member.Registry) error {
		m, err := r.Add(input.Candidate, deps.Now())
		added = m
		return err
	})
	if err != nil {
		return member.Member{}, err
	}
	slog.Info("member_event", "event", "member_added", "roll_number", added.RollNumber, "expiry_date", added.ExpiryDate)
	deps.Backup.Dispatch(added)
	return added, nil
}

// UpdateMemberInput carries the edit form.
type UpdateMemberInput struct {
	RollNumber string
	Patch      member.Patch
}

// UpdateMemberDeps holds dependencies for UpdateMember.
type UpdateMemberDeps struct {
	Books *books.Books
}

// ExecuteUpdateMember applies a patch to an existing member.
// PRE: RollNumber identifies an existing member
// POST: Member is persisted with the patch applied; roll and CreatedAt unchanged
func ExecuteUpdateMember(ctx context.Context, input UpdateMemberInput, deps UpdateMemberDeps) (member.Member, error) {
	var updated member.Member
	err := deps.Books.UpdateMembers(ctx, func(r *member.Registry) error {
		m, err := r.Update(input.RollNumber, input.Patch)
		updated = m
		return err
	})
	if err != nil {
		return member.Member{}, err
	}
	slog.Info("member_event", "event", "member_updated", "roll_number", updated.RollNumber,
		"extension_months", input.Patch.ExtensionMonths, "expiry_date", updated.ExpiryDate)
	return updated, nil
}

// DeleteMemberDeps holds dependencies for DeleteMember.
type DeleteMemberDeps struct {
	Books *books.Books
}

// ExecuteDeleteMember removes a member. Past check-ins are kept.
// POST: FindByRoll(roll) reports absent
func ExecuteDeleteMember(ctx context.Context, roll string, deps DeleteMemberDeps) error {
	err := deps.Books.UpdateMembers(ctx, func(r *member.Registry) error {
		return r.Delete(roll)
	})
	if err != nil {
		return err
	}
	slog.Info("member_event", "event", "member_deleted", "roll_number", member.NormalizeRoll(roll))
	return nil
}
