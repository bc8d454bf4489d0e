package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Slot names for the whole-collection documents.
const (
	SlotMembers     = "gymMembers"
	SlotCheckins    = "gymCheckins"
	SlotCredentials = "gymAdminCredentials"
)

// ErrSlotNotFound is returned by LoadSlot when nothing has been saved under the name.
var ErrSlotNotFound = errors.New("slot not found")

// LoadSlot returns the raw payload stored under name.
// PRE: name is non-empty
// POST: Returns ErrSlotNotFound if the slot was never written
func LoadSlot(ctx context.Context, db SQLDB, name string) ([]byte, error) {
	var payload string
	err := db.QueryRowContext(ctx, `SELECT payload FROM slot WHERE name = ?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", name, err)
	}
	return []byte(payload), nil
}

// SaveSlot replaces the payload stored under name.
// PRE: name is non-empty, payload is the complete document
// POST: The slot holds exactly payload
func SaveSlot(ctx context.Context, db SQLDB, name string, payload []byte) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO slot (name, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
		name, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save slot %s: %w", name, err)
	}
	return nil
}
