package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/domain/outbox"
)

// perfWindow is how far back the perf snapshot looks by default.
const perfWindow = 15 * time.Minute

// handleAdminOutboxList handles GET /api/admin/outbox.
// Without ?status it lists entries still being retried plus the failed ones;
// status=all lists everything.
func handleAdminOutboxList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ctx := r.Context()

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	var (
		entries []outbox.Entry
		err     error
	)
	switch status := r.URL.Query().Get("status"); status {
	case "":
		entries, err = svc.OutboxStore.ListPending(ctx, limit)
		if err == nil {
			var failed []outbox.Entry
			failed, err = svc.OutboxStore.List(ctx, outbox.StatusFailed, limit)
			entries = append(entries, failed...)
		}
	case "all":
		entries, err = svc.OutboxStore.List(ctx, "", limit)
	case outbox.StatusPending, outbox.StatusRetrying, outbox.StatusDone, outbox.StatusFailed, outbox.StatusAbandoned:
		entries, err = svc.OutboxStore.List(ctx, status, limit)
	default:
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	if entries == nil {
		entries = []outbox.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleAdminOutboxAction handles POST /api/admin/outbox/{id}/{retry|abandon}
func handleAdminOutboxAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	ctx := r.Context()
	id := r.PathValue("id")
	action := r.PathValue("action")

	var (
		entry outbox.Entry
		err   error
	)
	switch action {
	case "retry":
		entry, err = svc.Outbox.ProcessSingle(ctx, id)
	case "abandon":
		entry, err = svc.Outbox.AbandonEntry(ctx, id)
	default:
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sess, _ := middleware.GetSessionFromContext(ctx)
	slog.Info("outbox_event", "event", "manual_"+action, "entry_id", id, "status", entry.Status, "by", sess.Username)
	writeJSON(w, http.StatusOK, entry)
}

// handleAdminPerf handles GET /api/admin/perf?minutes=N&top=N
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if svc.Perf == nil {
		writeError(w, http.StatusNotFound, "perf collection disabled")
		return
	}
	window := perfWindow
	if v := r.URL.Query().Get("minutes"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 24*60 {
			window = time.Duration(n) * time.Minute
		}
	}
	top := 10
	if v := r.URL.Query().Get("top"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			top = n
		}
	}
	writeJSON(w, http.StatusOK, svc.Perf.Snapshot(timeNow().Add(-window), top))
}
