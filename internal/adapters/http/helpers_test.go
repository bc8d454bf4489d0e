package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/adapters/http/perf"
	accountStore "gymdesk/internal/adapters/storage/account"
	outboxStore "gymdesk/internal/adapters/storage/outbox"
	"gymdesk/internal/application/books"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/attendance"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/outbox"
)

// fixedNow is a Sunday morning shared by the handler tests.
var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.Local)

const testPassword = "admin123"

var adminSession = middleware.Session{Username: "admin", CreatedAt: fixedNow, LastSeen: fixedNow}

// adminHash is computed once; bcrypt at cost 12 is slow.
var adminHash = sync.OnceValue(func() string {
	c := account.Credentials{Username: "admin"}
	if err := c.SetPassword(testPassword); err != nil {
		panic(err)
	}
	return c.PasswordHash
})

// --- Mock stores ---

type mockMemberStore struct {
	mu    sync.Mutex
	saved []member.Member
}

func (m *mockMemberStore) LoadAll(context.Context) ([]member.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]member.Member(nil), m.saved...), nil
}

func (m *mockMemberStore) SaveAll(_ context.Context, ms []member.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append([]member.Member(nil), ms...)
	return nil
}

func (m *mockMemberStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

type mockCheckinStore struct {
	mu    sync.Mutex
	saved []attendance.CheckIn
}

func (m *mockCheckinStore) LoadAll(context.Context) ([]attendance.CheckIn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]attendance.CheckIn(nil), m.saved...), nil
}

func (m *mockCheckinStore) SaveAll(_ context.Context, es []attendance.CheckIn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append([]attendance.CheckIn(nil), es...)
	return nil
}

type mockCredentialStore struct {
	mu    sync.Mutex
	creds *account.Credentials
}

func (m *mockCredentialStore) Get(context.Context) (account.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return account.Credentials{}, accountStore.ErrNotFound
	}
	return *m.creds, nil
}

func (m *mockCredentialStore) Save(_ context.Context, c account.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = &c
	return nil
}

type mockOutboxStore struct {
	mu      sync.Mutex
	entries map[string]outbox.Entry
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, outboxStore.ErrNotFound
	}
	return e, nil
}

func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) ListPending(ctx context.Context, limit int) ([]outbox.Entry, error) {
	return m.filter(func(e outbox.Entry) bool {
		return e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying
	}, limit), nil
}

func (m *mockOutboxStore) List(_ context.Context, status string, limit int) ([]outbox.Entry, error) {
	return m.filter(func(e outbox.Entry) bool { return status == "" || e.Status == status }, limit), nil
}

func (m *mockOutboxStore) filter(keep func(outbox.Entry) bool, limit int) []outbox.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []outbox.Entry
	for _, e := range m.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *mockOutboxStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// stubExecutor succeeds unless err is set.
type stubExecutor struct{ err error }

func (s stubExecutor) Execute(context.Context, string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "ref-1", nil
}

// testEnv bundles the services behind the package globals plus the raw stores.
type testEnv struct {
	services *Services
	members  *mockMemberStore
	checkins *mockCheckinStore
	creds    *mockCredentialStore
	outbox   *mockOutboxStore
}

// newTestEnv installs fresh services, a fresh session store and a fixed clock.
func newTestEnv(t *testing.T, seed ...member.Member) *testEnv {
	t.Helper()
	env := &testEnv{
		members:  &mockMemberStore{saved: seed},
		checkins: &mockCheckinStore{},
		creds: &mockCredentialStore{creds: &account.Credentials{
			Username: "admin", PasswordHash: adminHash(), UpdatedAt: fixedNow,
		}},
		outbox: &mockOutboxStore{entries: map[string]outbox.Entry{}},
	}
	b, err := books.Open(context.Background(), env.members, env.checkins)
	if err != nil {
		t.Fatalf("books.Open: %v", err)
	}
	env.services = &Services{
		Books:       b,
		Credentials: env.creds,
		OutboxStore: env.outbox,
		Outbox: orchestrators.NewOutboxProcessor(env.outbox, map[string]orchestrators.ActionExecutor{
			outbox.ActionTypeSheetBackup: stubExecutor{},
		}),
		Perf: perf.NewCollector(100),
	}
	svc = env.services
	sessions = middleware.NewSessionStore(time.Hour)
	timeNow = func() time.Time { return fixedNow }
	t.Cleanup(func() { timeNow = time.Now })
	return env
}

func testMember(roll, name, join, expiry string) member.Member {
	return member.Member{
		RollNumber: roll, Name: name, Phone: "555-" + roll,
		JoinDate: join, ExpiryDate: expiry, FeePaid: "500", CreatedAt: fixedNow,
	}
}

// authRequest builds a JSON request carrying sess in its context.
func authRequest(method, url, body string, sess middleware.Session) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.ContextWithSession(req.Context(), sess))
}
