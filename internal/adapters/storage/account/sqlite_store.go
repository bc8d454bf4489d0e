package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/account"
)

// SQLiteStore implements Store on the gymAdminCredentials slot.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get returns the saved credentials.
// POST: Returns ErrNotFound when the slot is absent
func (s *SQLiteStore) Get(ctx context.Context) (domain.Credentials, error) {
	payload, err := storage.LoadSlot(ctx, s.db, storage.SlotCredentials)
	if errors.Is(err, storage.ErrSlotNotFound) {
		return domain.Credentials{}, ErrNotFound
	}
	if err != nil {
		return domain.Credentials{}, err
	}
	var c domain.Credentials
	if err := json.Unmarshal(payload, &c); err != nil {
		return domain.Credentials{}, fmt.Errorf("decode credentials: %w", err)
	}
	return c, nil
}

// Save replaces the saved credentials.
// PRE: c has been validated
// POST: Get returns c
func (s *SQLiteStore) Save(ctx context.Context, c domain.Credentials) error {
	if err := c.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	return storage.SaveSlot(ctx, s.db, storage.SlotCredentials, payload)
}
