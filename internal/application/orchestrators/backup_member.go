package orchestrators

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"gymdesk/internal/adapters/backup"
	outboxStore "gymdesk/internal/adapters/storage/outbox"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/outbox"

	"github.com/google/uuid"
)

// DefaultBackupTimeout bounds one inline backup attempt.
const DefaultBackupTimeout = 10 * time.Second

// BackupDispatcher sends newly added members to the backup endpoint off the request path.
type BackupDispatcher struct {
	Notifier    backup.Notifier
	OutboxStore outboxStore.Store // optional: nil drops failed backups after logging
	Timeout     time.Duration
	GenerateID  func() string
	Now         func() time.Time

	inflight sync.WaitGroup
}

// NewBackupDispatcher creates a dispatcher with default timeout, uuid IDs and wall-clock time.
func NewBackupDispatcher(n backup.Notifier, store outboxStore.Store, timeout time.Duration) *BackupDispatcher {
	if timeout <= 0 {
		timeout = DefaultBackupTimeout
	}
	return &BackupDispatcher{
		Notifier:    n,
		OutboxStore: store,
		Timeout:     timeout,
		GenerateID:  func() string { return uuid.New().String() },
		Now:         time.Now,
	}
}

// Dispatch starts one backup attempt for m and returns immediately.
// The returned channel closes when the attempt and any outbox write have finished.
// INVARIANT: The caller's outcome never depends on the backup
func (d *BackupDispatcher) Dispatch(m member.Member) <-chan struct{} {
	done := make(chan struct{})
	if d == nil || d.Notifier == nil {
		close(done)
		return done
	}
	payload, err := json.Marshal(m)
	if err != nil {
		slog.Error("backup_event", "event", "encode_failed", "roll_number", m.RollNumber, "error", err.Error())
		close(done)
		return done
	}

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
		err := d.Notifier.Notify(ctx, payload)
		cancel()
		if err == nil {
			slog.Info("backup_event", "event", "backup_succeeded", "roll_number", m.RollNumber)
			return
		}
		slog.Warn("backup_event", "event", "backup_failed", "roll_number", m.RollNumber, "error", err.Error())
		d.park(payload, err)
	}()
	return done
}

// Wait blocks until every dispatched backup has finished or been parked.
func (d *BackupDispatcher) Wait() {
	if d == nil {
		return
	}
	d.inflight.Wait()
}

func (d *BackupDispatcher) park(payload []byte, cause error) {
	if d.OutboxStore == nil {
		return
	}
	entry := outbox.NewEntry(d.GenerateID(), outbox.ActionTypeSheetBackup, string(payload), cause, d.Now())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.OutboxStore.Save(ctx, entry); err != nil {
		slog.Error("backup_event", "event", "park_failed", "entry_id", entry.ID, "error", err.Error())
		return
	}
	slog.Info("backup_event", "event", "backup_parked", "entry_id", entry.ID)
}

// BackupExecutor replays parked backups from the outbox.
type BackupExecutor struct {
	Notifier backup.Notifier
}

// Execute re-sends the stored member JSON.
// PRE: payload is the JSON written by BackupDispatcher
// INVARIANT: outbox entry status managed by caller
func (e *BackupExecutor) Execute(ctx context.Context, payload string) (string, error) {
	if err := e.Notifier.Notify(ctx, []byte(payload)); err != nil {
		return "", err
	}
	return "", nil
}
