package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gymdesk/internal/domain/attendance"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/outbox"
)

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("backup did not finish")
	}
}

// TestExecuteAddMember_ComputesExpiryAndPersists verifies the add path end to end.
// POST: member saved with expiry = join + duration; backup receives member JSON
func TestExecuteAddMember_ComputesExpiryAndPersists(t *testing.T) {
	b, ms, _ := newTestBooks(t)
	notifier := &fakeNotifier{}
	dispatcher := NewBackupDispatcher(notifier, newMemOutboxStore(), time.Second)

	m, err := ExecuteAddMember(context.Background(), AddMemberInput{Candidate: member.Candidate{
		RollNumber: " hsf01 ", Name: "Asha", Gender: "Female", Phone: "9876543210",
		JoinDate: "2024-01-31", DurationMonths: 1, FeePaid: "600",
	}}, AddMemberDeps{Books: b, Backup: dispatcher, Now: clock(fixedNow)})
	if err != nil {
		t.Fatalf("ExecuteAddMember: %v", err)
	}
	if m.RollNumber != "HSF01" || m.ExpiryDate != "2024-02-29" || m.Gender != "female" {
		t.Errorf("member = %+v", m)
	}
	if len(ms.saved) != 1 {
		t.Fatalf("saved = %d, want 1", len(ms.saved))
	}

	deadline := time.Now().Add(2 * time.Second)
	for notifier.calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if notifier.calls() != 1 {
		t.Fatalf("backup calls = %d, want 1", notifier.calls())
	}
	notifier.mu.Lock()
	payload := notifier.payloads[0]
	notifier.mu.Unlock()
	var sent member.Member
	if err := json.Unmarshal([]byte(payload), &sent); err != nil {
		t.Fatalf("payload not member JSON: %v", err)
	}
	if sent.RollNumber != "HSF01" || sent.ExpiryDate != "2024-02-29" {
		t.Errorf("payload = %+v", sent)
	}
}

// TestExecuteAddMember_Duplicate verifies a colliding roll number is refused.
func TestExecuteAddMember_Duplicate(t *testing.T) {
	b, _, _ := newTestBooks(t, seedMember("HSF01", "2024-12-31"))
	_, err := ExecuteAddMember(context.Background(), AddMemberInput{Candidate: member.Candidate{
		RollNumber: "hsf01", Name: "Other", Phone: "1", JoinDate: "2024-03-01", DurationMonths: 1,
	}}, AddMemberDeps{Books: b, Now: clock(fixedNow)})
	if !errors.Is(err, member.ErrDuplicateIdentifier) {
		t.Errorf("err = %v, want ErrDuplicateIdentifier", err)
	}
}

// TestBackupDispatcher_FailureParksEntry verifies a failed backup lands in the outbox
// without affecting the add.
func TestBackupDispatcher_FailureParksEntry(t *testing.T) {
	store := newMemOutboxStore()
	d := NewBackupDispatcher(&fakeNotifier{err: errBoom}, store, time.Second)
	d.GenerateID = func() string { return "backup-1" }
	d.Now = clock(fixedNow)

	waitDone(t, d.Dispatch(seedMember("G1", "2024-12-31")))

	entries := store.all()
	if len(entries) != 1 {
		t.Fatalf("outbox entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.ID != "backup-1" || e.ActionType != outbox.ActionTypeSheetBackup || e.Status != outbox.StatusPending || e.Attempts != 1 {
		t.Errorf("entry = %+v", e)
	}
	if e.ErrorMessage != "boom" {
		t.Errorf("ErrorMessage = %q", e.ErrorMessage)
	}
}

// TestBackupDispatcher_NilIsNoop verifies an unconfigured dispatcher never blocks.
func TestBackupDispatcher_NilIsNoop(t *testing.T) {
	var d *BackupDispatcher
	waitDone(t, d.Dispatch(seedMember("G1", "2024-12-31")))
	d.Wait()
}

// TestBackupDispatcher_WaitDrains verifies Wait returns only after every dispatch has been parked.
func TestBackupDispatcher_WaitDrains(t *testing.T) {
	store := newMemOutboxStore()
	d := NewBackupDispatcher(&fakeNotifier{err: errBoom}, store, time.Second)
	d.Dispatch(seedMember("G1", "2024-12-31"))
	d.Dispatch(seedMember("G2", "2024-12-31"))
	d.Wait()

	if got := len(store.all()); got != 2 {
		t.Errorf("outbox entries after Wait = %d, want 2", got)
	}
}

// TestExecuteUpdateMember_Extension verifies extensions run from the stored expiry.
func TestExecuteUpdateMember_Extension(t *testing.T) {
	b, ms, _ := newTestBooks(t, seedMember("G1", "2024-11-30"))
	name := "Renamed"
	m, err := ExecuteUpdateMember(context.Background(), UpdateMemberInput{
		RollNumber: "g1",
		Patch:      member.Patch{Name: &name, ExtensionMonths: 3},
	}, UpdateMemberDeps{Books: b})
	if err != nil {
		t.Fatalf("ExecuteUpdateMember: %v", err)
	}
	if m.ExpiryDate != "2025-02-28" || m.Name != "Renamed" {
		t.Errorf("member = %+v", m)
	}
	if ms.saved[0].ExpiryDate != "2025-02-28" {
		t.Errorf("persisted expiry = %s", ms.saved[0].ExpiryDate)
	}
}

// TestExecuteUpdateMember_NotFound verifies the sentinel surfaces.
func TestExecuteUpdateMember_NotFound(t *testing.T) {
	b, _, _ := newTestBooks(t)
	_, err := ExecuteUpdateMember(context.Background(), UpdateMemberInput{RollNumber: "NOPE"}, UpdateMemberDeps{Books: b})
	if !errors.Is(err, member.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestExecuteDeleteMember_KeepsCheckins verifies history outlives the member.
func TestExecuteDeleteMember_KeepsCheckins(t *testing.T) {
	b, ms, cs := newTestBooks(t, seedMember("G1", "2024-12-31"))
	ctx := context.Background()
	if _, err := ExecuteCheckInMember(ctx, CheckInMemberInput{RollNumber: "G1"}, CheckInMemberDeps{Books: b, Now: clock(fixedNow)}); err != nil {
		t.Fatalf("check in: %v", err)
	}
	if err := ExecuteDeleteMember(ctx, "g1", DeleteMemberDeps{Books: b}); err != nil {
		t.Fatalf("ExecuteDeleteMember: %v", err)
	}
	if len(ms.saved) != 0 || len(cs.saved) != 1 {
		t.Errorf("members=%d checkins=%d, want 0 and 1", len(ms.saved), len(cs.saved))
	}
	b.View(func(_ *member.Registry, l *attendance.Ledger) {
		if l.CountOn(fixedNow) != 1 {
			t.Errorf("CountOn = %d", l.CountOn(fixedNow))
		}
	})
	if err := ExecuteDeleteMember(ctx, "G1", DeleteMemberDeps{Books: b}); !errors.Is(err, member.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}
