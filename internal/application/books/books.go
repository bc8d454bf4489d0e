// Package books owns the in-memory member registry and check-in ledger and
// keeps them in step with their persisted slots.
package books

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	attendanceStore "gymdesk/internal/adapters/storage/attendance"
	memberStore "gymdesk/internal/adapters/storage/member"
	"gymdesk/internal/domain/attendance"
	"gymdesk/internal/domain/member"
)

// Books serialises every read and write of the two aggregates.
type Books struct {
	mu           sync.Mutex
	members      *member.Registry
	checkins     *attendance.Ledger
	memberStore  memberStore.Store
	checkinStore attendanceStore.Store
}

// Open loads both aggregates from their stores.
// PRE: stores are migrated
// POST: Books reflects the persisted state
func Open(ctx context.Context, ms memberStore.Store, cs attendanceStore.Store) (*Books, error) {
	members, err := ms.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	events, err := cs.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load checkins: %w", err)
	}
	slog.Info("books_opened", "members", len(members), "checkins", len(events))
	return &Books{
		members:      member.NewRegistry(members),
		checkins:     attendance.NewLedger(events),
		memberStore:  ms,
		checkinStore: cs,
	}, nil
}

// View runs fn with read access to both aggregates.
// fn must not retain either pointer after it returns.
func (b *Books) View(fn func(members *member.Registry, checkins *attendance.Ledger)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.members, b.checkins)
}

// UpdateMembers applies fn to the registry and persists the result.
// PRE: fn only mutates the registry it is given
// POST: On any error the registry is exactly as before the call
func (b *Books) UpdateMembers(ctx context.Context, fn func(members *member.Registry) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := b.members.Clone()
	if err := fn(b.members); err != nil {
		b.members = snapshot
		return err
	}
	if err := b.memberStore.SaveAll(ctx, b.members.All()); err != nil {
		b.members = snapshot
		return fmt.Errorf("save members: %w", err)
	}
	return nil
}

// UpdateCheckins applies fn to the ledger and persists the result.
// The registry is passed read-only for member lookups.
// POST: On any error the ledger is exactly as before the call
func (b *Books) UpdateCheckins(ctx context.Context, fn func(members *member.Registry, checkins *attendance.Ledger) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := b.checkins.Clone()
	if err := fn(b.members, b.checkins); err != nil {
		b.checkins = snapshot
		return err
	}
	if err := b.checkinStore.SaveAll(ctx, b.checkins.All()); err != nil {
		b.checkins = snapshot
		return fmt.Errorf("save checkins: %w", err)
	}
	return nil
}
