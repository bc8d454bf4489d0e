package member

import (
	"context"
	"database/sql"
	"testing"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/member"

	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) (*SQLiteStore, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteStore(db), db
}

func TestSQLiteStore_EmptySlot(t *testing.T) {
	store, _ := setupStore(t)
	got, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("LoadAll = %v, want empty non-nil slice", got)
	}
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	members := []domain.Member{
		{RollNumber: "G1", Name: "Asha", Phone: "555", JoinDate: "2024-01-01", ExpiryDate: "2024-02-01", FeePaid: "500"},
		{RollNumber: "G2", Name: "Ben", Phone: "556", JoinDate: "2024-01-02", ExpiryDate: "2024-04-02"},
	}
	if err := store.SaveAll(ctx, members); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if err := store.SaveAll(ctx, members[1:]); err != nil {
		t.Fatalf("SaveAll replace: %v", err)
	}
	got, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 1 || got[0].RollNumber != "G2" || got[0].ExpiryDate != "2024-04-02" {
		t.Errorf("LoadAll = %+v", got)
	}
}

func TestSQLiteStore_CorruptSlot(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()
	if err := storage.SaveSlot(ctx, db, storage.SlotMembers, []byte(`{not json`)); err != nil {
		t.Fatalf("SaveSlot: %v", err)
	}
	got, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("LoadAll = %v, want empty", got)
	}
}
