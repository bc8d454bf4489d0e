package member

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/member"
)

// SQLiteStore implements Store on the gymMembers slot.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// LoadAll returns every stored member.
// PRE: schema is migrated
// POST: A missing or corrupt slot yields an empty registry, logged at WARN when corrupt
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]domain.Member, error) {
	payload, err := storage.LoadSlot(ctx, s.db, storage.SlotMembers)
	if errors.Is(err, storage.ErrSlotNotFound) {
		return []domain.Member{}, nil
	}
	if err != nil {
		return nil, err
	}
	var members []domain.Member
	if err := json.Unmarshal(payload, &members); err != nil {
		slog.Warn("slot_unreadable", "slot", storage.SlotMembers, "error", err.Error())
		return []domain.Member{}, nil
	}
	if members == nil {
		members = []domain.Member{}
	}
	return members, nil
}

// SaveAll replaces the stored registry.
// PRE: members is the complete registry
// POST: The slot holds exactly members
func (s *SQLiteStore) SaveAll(ctx context.Context, members []domain.Member) error {
	if members == nil {
		members = []domain.Member{}
	}
	payload, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("encode members: %w", err)
	}
	return storage.SaveSlot(ctx, s.db, storage.SlotMembers, payload)
}
