package browser_test

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	web "gymdesk/internal/adapters/http"
	"gymdesk/internal/adapters/http/perf"
	"gymdesk/internal/adapters/storage"
	accountStore "gymdesk/internal/adapters/storage/account"
	attendanceStore "gymdesk/internal/adapters/storage/attendance"
	memberStore "gymdesk/internal/adapters/storage/member"
	outboxStore "gymdesk/internal/adapters/storage/outbox"
	"gymdesk/internal/application/books"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/domain/member"
)

const (
	adminUsername = "admin"
	adminPassword = "TestPass123"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	DB      *sql.DB
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
	Books   *books.Books
}

// newTestApp creates a fully wired app with a temp SQLite DB and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := storage.MigrateDB(db, dbPath); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	collector := perf.NewCollector(256)
	timed := storage.NewTimedDB(db, collector, 0)
	credStore := accountStore.NewSQLiteStore(timed)
	obStore := outboxStore.NewSQLiteStore(timed)

	ctx := context.Background()
	b, err := books.Open(ctx, memberStore.NewSQLiteStore(timed), attendanceStore.NewSQLiteStore(timed))
	if err != nil {
		t.Fatalf("failed to open books: %v", err)
	}
	if _, err := orchestrators.ExecuteSeedAdmin(ctx, orchestrators.SeedAdminInput{
		Username: adminUsername,
		Password: adminPassword,
	}, orchestrators.SeedAdminDeps{CredentialStore: credStore, Now: time.Now}); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	csrfKey := make([]byte, 32)
	rand.Read(csrfKey)

	handler, stopMux := web.NewMux(&web.Services{
		Books:       b,
		Credentials: credStore,
		OutboxStore: obStore,
		Outbox:      orchestrators.NewOutboxProcessor(obStore, nil),
		Perf:        collector,
	}, web.Options{
		CSRFKey: csrfKey,
		TrustedOrigins: []string{
			fmt.Sprintf("127.0.0.1:%d", port),
			fmt.Sprintf("localhost:%d", port),
		},
		LoginRatePerMin: 100,
	})
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: handler,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/login")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL: baseURL,
		DB:      db,
		Server:  srv,
		PW:      pw,
		Browser: browser,
		Books:   b,
	}
	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		stopMux()
		db.Close()
	})
	return app
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// login submits the login form and waits for the dashboard.
func (a *testApp) login(t *testing.T, page playwright.Page) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("#username").Fill(adminUsername); err != nil {
		t.Fatalf("failed to fill username: %v", err)
	}
	if err := page.Locator("#password").Fill(adminPassword); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("#login-submit").Click(); err != nil {
		t.Fatalf("failed to click login: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+"/dashboard", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not redirect to dashboard: %v", err)
	}
}

// addMember registers a member whose membership started monthsAgo and ran for duration months.
func (a *testApp) addMember(t *testing.T, roll, name string, monthsAgo, duration int) member.Member {
	t.Helper()
	join := time.Now().AddDate(0, -monthsAgo, 0)
	m, err := orchestrators.ExecuteAddMember(context.Background(), orchestrators.AddMemberInput{
		Candidate: member.Candidate{
			RollNumber:     roll,
			Name:           name,
			Phone:          "555-" + roll,
			JoinDate:       member.FormatDate(join),
			DurationMonths: duration,
			FeePaid:        "500",
		},
	}, orchestrators.AddMemberDeps{Books: a.Books, Now: time.Now})
	if err != nil {
		t.Fatalf("failed to add member %s: %v", roll, err)
	}
	return m
}

// insertMember stores a member with an explicit expiry date.
func (a *testApp) insertMember(t *testing.T, roll, name string, expiry time.Time) {
	t.Helper()
	err := a.Books.UpdateMembers(context.Background(), func(r *member.Registry) error {
		r.Insert(member.Member{
			RollNumber: roll,
			Name:       name,
			Phone:      "555-" + roll,
			JoinDate:   member.FormatDate(expiry.AddDate(0, -1, 0)),
			ExpiryDate: member.FormatDate(expiry),
			CreatedAt:  time.Now(),
		})
		return nil
	})
	if err != nil {
		t.Fatalf("failed to insert member %s: %v", roll, err)
	}
}

// textOf returns the text of the first element matching selector.
func textOf(t *testing.T, page playwright.Page, selector string) string {
	t.Helper()
	text, err := page.Locator(selector).First().TextContent()
	if err != nil {
		t.Fatalf("read %s: %v", selector, err)
	}
	return text
}
