package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/attendance"
)

// SQLiteStore implements Store on the gymCheckins slot.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// LoadAll returns the stored ledger.
// PRE: schema is migrated
// POST: A missing or corrupt slot yields an empty ledger
// POST: Events failing Validate are dropped with a warning
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]domain.CheckIn, error) {
	payload, err := storage.LoadSlot(ctx, s.db, storage.SlotCheckins)
	if errors.Is(err, storage.ErrSlotNotFound) {
		return []domain.CheckIn{}, nil
	}
	if err != nil {
		return nil, err
	}
	var events []domain.CheckIn
	if err := json.Unmarshal(payload, &events); err != nil {
		slog.Warn("slot_unreadable", "slot", storage.SlotCheckins, "error", err.Error())
		return []domain.CheckIn{}, nil
	}
	valid := make([]domain.CheckIn, 0, len(events))
	for i := range events {
		if err := events[i].Validate(); err != nil {
			slog.Warn("checkin_event", "event", "stored_checkin_skipped", "index", i,
				"roll_number", events[i].RollNumber, "error", err.Error())
			continue
		}
		valid = append(valid, events[i])
	}
	return valid, nil
}

// SaveAll replaces the stored ledger.
func (s *SQLiteStore) SaveAll(ctx context.Context, events []domain.CheckIn) error {
	if events == nil {
		events = []domain.CheckIn{}
	}
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode checkins: %w", err)
	}
	return storage.SaveSlot(ctx, s.db, storage.SlotCheckins, payload)
}
