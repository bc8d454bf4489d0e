package orchestrators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	emailAdapter "gymdesk/internal/adapters/email"
	outboxStore "gymdesk/internal/adapters/storage/outbox"
	"gymdesk/internal/application/books"
	"gymdesk/internal/domain/attendance"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/outbox"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

var digestRenderer = goldmark.New(
	goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
)

// DigestPayload is the fully rendered message, stored verbatim in the outbox on failure.
type DigestPayload struct {
	To      []string `json:"to"`
	From    string   `json:"from,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// ExpiryDigestDeps holds dependencies for ExpiryDigest.
type ExpiryDigestDeps struct {
	Books       *books.Books
	Sender      emailAdapter.Sender
	OutboxStore outboxStore.Store // optional: nil drops failed sends after logging
	To          []string
	From        string
	Now         func() time.Time
	GenerateID  func() string
}

// ExpiryDigestResult reports what the digest run did.
type ExpiryDigestResult struct {
	DueToday  int
	DueSoon   int
	Sent      bool
	Parked    bool
	MessageID string
}

// ExecuteExpiryDigest emails the list of memberships expiring today and within the week.
// Nothing is sent when no membership is due or no recipient is configured.
// POST: A failed send is parked in the outbox when one is configured
func ExecuteExpiryDigest(ctx context.Context, deps ExpiryDigestDeps) (ExpiryDigestResult, error) {
	today := deps.Now()
	var dueToday, dueSoon []member.Member
	deps.Books.View(func(r *member.Registry, _ *attendance.Ledger) {
		dueToday, dueSoon = r.Expiring(today)
	})
	res := ExpiryDigestResult{DueToday: len(dueToday), DueSoon: len(dueSoon)}
	if len(dueToday)+len(dueSoon) == 0 || len(deps.To) == 0 {
		slog.Info("digest_event", "event", "digest_skipped", "due_today", res.DueToday, "due_soon", res.DueSoon, "recipients", len(deps.To))
		return res, nil
	}

	html, err := RenderExpiryDigest(today, dueToday, dueSoon)
	if err != nil {
		return res, err
	}
	payload := DigestPayload{
		To:      deps.To,
		From:    deps.From,
		Subject: fmt.Sprintf("Memberships expiring: %d today, %d this week", res.DueToday, res.DueSoon),
		HTML:    html,
	}

	sent, err := sendDigest(ctx, deps.Sender, payload)
	if err == nil {
		res.Sent = true
		res.MessageID = sent.MessageID
		slog.Info("digest_event", "event", "digest_sent", "message_id", sent.MessageID, "due_today", res.DueToday, "due_soon", res.DueSoon)
		return res, nil
	}
	slog.Warn("digest_event", "event", "digest_failed", "error", err.Error())
	if deps.OutboxStore == nil {
		return res, err
	}
	raw, encErr := json.Marshal(payload)
	if encErr != nil {
		slog.Error("digest_event", "event", "encode_failed", "error", encErr.Error())
		return res, fmt.Errorf("encode digest: %w", encErr)
	}
	entry := outbox.NewEntry(deps.GenerateID(), outbox.ActionTypeExpiryDigest, string(raw), err, deps.Now())
	if saveErr := deps.OutboxStore.Save(ctx, entry); saveErr != nil {
		return res, fmt.Errorf("park digest: %w", saveErr)
	}
	res.Parked = true
	return res, nil
}

func sendDigest(ctx context.Context, sender emailAdapter.Sender, p DigestPayload) (emailAdapter.SendResult, error) {
	return sender.Send(ctx, emailAdapter.SendRequest{To: p.To, From: p.From, Subject: p.Subject, HTML: p.HTML})
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, `*`, `\*`, `_`, `\_`, "`", "\\`", `[`, `\[`, `]`, `\]`, `#`, `\#`, `|`, `\|`,
)

// RenderExpiryDigest builds the digest body as markdown and converts it to HTML.
func RenderExpiryDigest(today time.Time, dueToday, dueSoon []member.Member) (string, error) {
	var md strings.Builder
	fmt.Fprintf(&md, "# Membership expiry digest for %s\n\n", member.FormatDate(today))
	writeSection(&md, "Expiring today", dueToday)
	writeSection(&md, fmt.Sprintf("Expiring in the next %d days", member.ExpiringSoonDays), dueSoon)

	var buf bytes.Buffer
	if err := digestRenderer.Convert([]byte(md.String()), &buf); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

func writeSection(md *strings.Builder, title string, members []member.Member) {
	fmt.Fprintf(md, "## %s (%d)\n\n", title, len(members))
	if len(members) == 0 {
		md.WriteString("None.\n\n")
		return
	}
	for _, m := range members {
		fmt.Fprintf(md, "- **%s** %s, %s, expires %s\n",
			markdownEscaper.Replace(m.RollNumber), markdownEscaper.Replace(m.Name),
			markdownEscaper.Replace(m.Phone), m.ExpiryDate)
	}
	md.WriteString("\n")
}

// DigestExecutor replays parked digest emails.
type DigestExecutor struct {
	Sender emailAdapter.Sender
}

// Execute re-sends a stored DigestPayload.
// INVARIANT: outbox entry status managed by caller
func (e *DigestExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p DigestPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal digest payload: %w", err)
	}
	sent, err := sendDigest(ctx, e.Sender, p)
	if err != nil {
		return "", err
	}
	return sent.MessageID, nil
}
