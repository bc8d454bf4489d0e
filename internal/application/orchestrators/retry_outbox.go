package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	outboxStore "gymdesk/internal/adapters/storage/outbox"
	domain "gymdesk/internal/domain/outbox"
)

// ErrNoExecutor is recorded on entries whose action type has no registered executor.
var ErrNoExecutor = errors.New("no executor registered for action type")

// ActionExecutor replays one parked action.
type ActionExecutor interface {
	// Execute runs the action described by payload.
	// Returns a provider reference when there is one.
	Execute(ctx context.Context, payload string) (string, error)
}

// OutboxProcessor retries parked backup and digest actions with exponential backoff.
type OutboxProcessor struct {
	store     outboxStore.Store
	executors map[string]ActionExecutor
	now       func() time.Time
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
}

// NewOutboxProcessor creates a processor over store.
func NewOutboxProcessor(store outboxStore.Store, executors map[string]ActionExecutor) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		now:       time.Now,
		baseDelay: 30 * time.Second,
		maxDelay:  time.Hour,
		batchSize: 20,
	}
}

// ProcessPending attempts every pending entry whose backoff has elapsed.
// PRE: Context is valid
// POST: Attempted entries are saved with their new status
func (p *OutboxProcessor) ProcessPending(ctx context.Context) error {
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("list pending outbox entries: %w", err)
	}
	now := p.now()
	for _, entry := range entries {
		if now.Before(entry.DueAt(p.baseDelay, p.maxDelay)) {
			continue
		}
		if err := p.attempt(ctx, entry); err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err.Error())
		}
	}
	return nil
}

// ProcessSingle retries one entry immediately, ignoring backoff.
// PRE: entryID is non-empty
// POST: Entry is attempted once and saved
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) (domain.Entry, error) {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return domain.Entry{}, err
	}
	if entry.Status == domain.StatusDone || entry.Status == domain.StatusAbandoned {
		return entry, domain.ErrTerminal
	}
	// A manual retry grants one more attempt to an exhausted entry.
	if entry.Attempts >= entry.MaxAttempts {
		entry.MaxAttempts = entry.Attempts + 1
	}
	if err := p.attempt(ctx, entry); err != nil {
		return domain.Entry{}, err
	}
	return p.store.GetByID(ctx, entryID)
}

// AbandonEntry stops all further attempts on an entry.
// POST: Entry status is abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) (domain.Entry, error) {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return domain.Entry{}, err
	}
	if entry.Status == domain.StatusDone {
		return entry, domain.ErrTerminal
	}
	entry.MarkAbandoned()
	if err := p.store.Save(ctx, entry); err != nil {
		return domain.Entry{}, err
	}
	slog.Info("outbox_event", "event", "entry_abandoned", "entry_id", entry.ID, "action_type", entry.ActionType)
	return entry, nil
}

func (p *OutboxProcessor) attempt(ctx context.Context, entry domain.Entry) error {
	entry.MarkAttempt(p.now())
	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.MaxAttempts = entry.Attempts
		entry.MarkFailed(fmt.Errorf("%w: %s", ErrNoExecutor, entry.ActionType))
		return p.store.Save(ctx, entry)
	}

	ref, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_event", "event", "action_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "attempt", entry.Attempts, "error", err.Error())
	} else {
		entry.MarkSuccess(ref)
		slog.Info("outbox_event", "event", "action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "attempt", entry.Attempts)
	}
	return p.store.Save(ctx, entry)
}

// StartBackgroundWorker processes pending entries every interval until stopCh closes.
// PRE: interval > 0
// POST: Worker goroutine exits after stopCh is closed
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				if err := processor.ProcessPending(ctx); err != nil {
					slog.Error("outbox_background_process_failed", "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("outbox_background_worker_stopped")
				return
			}
		}
	}()
}
