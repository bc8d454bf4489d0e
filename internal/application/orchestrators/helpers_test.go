package orchestrators

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	emailAdapter "gymdesk/internal/adapters/email"
	accountStore "gymdesk/internal/adapters/storage/account"
	outboxStore "gymdesk/internal/adapters/storage/outbox"
	"gymdesk/internal/application/books"
	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/attendance"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/outbox"
)

// fixedNow is a Sunday morning used across orchestrator tests.
var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.Local)

func clock(t time.Time) func() time.Time { return func() time.Time { return t } }

type memMemberStore struct {
	mu    sync.Mutex
	saved []member.Member
	err   error
}

func (s *memMemberStore) LoadAll(context.Context) ([]member.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]member.Member(nil), s.saved...), nil
}

func (s *memMemberStore) SaveAll(_ context.Context, ms []member.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append([]member.Member(nil), ms...)
	return nil
}

type memCheckinStore struct {
	mu    sync.Mutex
	saved []attendance.CheckIn
}

func (s *memCheckinStore) LoadAll(context.Context) ([]attendance.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]attendance.CheckIn(nil), s.saved...), nil
}

func (s *memCheckinStore) SaveAll(_ context.Context, es []attendance.CheckIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append([]attendance.CheckIn(nil), es...)
	return nil
}

// newTestBooks opens books over in-memory stores seeded with members.
func newTestBooks(t *testing.T, members ...member.Member) (*books.Books, *memMemberStore, *memCheckinStore) {
	t.Helper()
	ms := &memMemberStore{saved: members}
	cs := &memCheckinStore{}
	b, err := books.Open(context.Background(), ms, cs)
	if err != nil {
		t.Fatalf("books.Open: %v", err)
	}
	return b, ms, cs
}

func seedMember(roll, expiry string) member.Member {
	return member.Member{
		RollNumber: roll, Name: "Member " + roll, Phone: "555-" + roll,
		JoinDate: "2024-01-01", ExpiryDate: expiry, FeePaid: "500",
	}
}

type memOutboxStore struct {
	mu      sync.Mutex
	entries map[string]outbox.Entry
}

var _ outboxStore.Store = (*memOutboxStore)(nil)

func newMemOutboxStore() *memOutboxStore {
	return &memOutboxStore{entries: map[string]outbox.Entry{}}
}

func (s *memOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return outbox.Entry{}, outboxStore.ErrNotFound
	}
	return e, nil
}

func (s *memOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
	return nil
}

func (s *memOutboxStore) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	return s.filter(func(e outbox.Entry) bool {
		return e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying
	}, limit), nil
}

func (s *memOutboxStore) List(_ context.Context, status string, limit int) ([]outbox.Entry, error) {
	return s.filter(func(e outbox.Entry) bool { return status == "" || e.Status == status }, limit), nil
}

func (s *memOutboxStore) filter(keep func(outbox.Entry) bool, limit int) []outbox.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []outbox.Entry{}
	for _, e := range s.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *memOutboxStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *memOutboxStore) all() []outbox.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []outbox.Entry
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

type fakeNotifier struct {
	mu       sync.Mutex
	err      error
	payloads []string
}

func (n *fakeNotifier) Notify(_ context.Context, payload []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, string(payload))
	return n.err
}

func (n *fakeNotifier) calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.payloads)
}

type fakeSender struct {
	err  error
	sent []emailAdapter.SendRequest
}

func (s *fakeSender) Send(_ context.Context, req emailAdapter.SendRequest) (emailAdapter.SendResult, error) {
	s.sent = append(s.sent, req)
	if s.err != nil {
		return emailAdapter.SendResult{}, s.err
	}
	return emailAdapter.SendResult{MessageID: "msg-1", SentAt: fixedNow}, nil
}

type memCredentialStore struct {
	creds   *account.Credentials
	saveErr error
}

func (s *memCredentialStore) Get(context.Context) (account.Credentials, error) {
	if s.creds == nil {
		return account.Credentials{}, accountStore.ErrNotFound
	}
	return *s.creds, nil
}

func (s *memCredentialStore) Save(_ context.Context, c account.Credentials) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.creds = &c
	return nil
}

var errBoom = errors.New("boom")

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "id-" + string(rune('0'+n))
	}
}
