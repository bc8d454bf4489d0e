package browser_test

import (
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
)

// checkIn submits the dashboard form and returns the flash shown after the redirect.
func checkIn(t *testing.T, app *testApp, page playwright.Page, roll string) (class, message string) {
	t.Helper()
	if err := page.Locator("#checkin-roll").Fill(roll); err != nil {
		t.Fatalf("fill roll: %v", err)
	}
	if err := page.Locator("#checkin-submit").Click(); err != nil {
		t.Fatalf("submit check-in: %v", err)
	}
	if err := page.WaitForURL(app.BaseURL + "/dashboard"); err != nil {
		t.Fatalf("no redirect to dashboard: %v", err)
	}
	msg := page.Locator("#checkin-message")
	if err := msg.WaitFor(playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateVisible}); err != nil {
		t.Fatalf("check-in message not visible: %v", err)
	}
	class, _ = msg.GetAttribute("class")
	message, _ = msg.TextContent()
	return class, message
}

func TestKioskCheckIn_Outcomes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	app.addMember(t, "G001", "Asha", 0, 3)
	app.addMember(t, "G002", "Ravi", 3, 1)

	page := app.newPage(t)
	app.login(t, page)

	tests := []struct {
		name      string
		roll      string
		wantClass string
		wantText  string
	}{
		{"success", "g001", "success", "Welcome, Asha! Check-in successful at"},
		{"second visit", "G001", "warning", "Asha has already checked in today at"},
		{"expired", "G002", "warning", "Ravi's membership has EXPIRED on"},
		{"unknown", "g404", "error", "No member found with roll number: G404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, msg := checkIn(t, app, page, tt.roll)
			if class != tt.wantClass {
				t.Errorf("class = %q, want %q", class, tt.wantClass)
			}
			if !strings.Contains(msg, tt.wantText) {
				t.Errorf("message = %q, want it to contain %q", msg, tt.wantText)
			}
		})
	}

	if got := strings.TrimSpace(textOf(t, page, "#today-checkins")); got != "1" {
		t.Errorf("today-checkins = %q, want 1", got)
	}
	if !strings.Contains(textOf(t, page, "#checkin-list"), "Asha") {
		t.Error("check-in list does not show Asha")
	}
}

func TestDashboard_StatsAndExpiring(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	app.addMember(t, "G001", "Asha", 0, 3)
	app.addMember(t, "G002", "Ravi", 3, 1)
	app.insertMember(t, "G003", "Mina", time.Now())

	page := app.newPage(t)
	app.login(t, page)

	for selector, want := range map[string]string{
		"#total-members":   "3",
		"#active-members":  "2",
		"#expired-members": "1",
		"#today-checkins":  "0",
	} {
		if got := strings.TrimSpace(textOf(t, page, selector)); got != want {
			t.Errorf("%s = %q, want %q", selector, got, want)
		}
	}
	if !strings.Contains(textOf(t, page, "#expiring-today"), "Mina") {
		t.Error("expiring-today does not list Mina")
	}
}

func TestLogin_BadPasswordShowsError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := app.newPage(t)

	if _, err := page.Goto(app.BaseURL + "/login"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	page.Locator("#username").Fill(adminUsername)
	page.Locator("#password").Fill("wrong")
	if err := page.Locator("#login-submit").Click(); err != nil {
		t.Fatalf("click: %v", err)
	}
	errBox := page.Locator("#login-error")
	if err := errBox.WaitFor(playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateVisible}); err != nil {
		t.Fatalf("login error not shown: %v", err)
	}
	if got, _ := errBox.TextContent(); got != "Invalid username or password!" {
		t.Errorf("error = %q", got)
	}
}

func TestLogout_ReturnsToLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := app.newPage(t)
	app.login(t, page)

	if err := page.Locator("#logout").Click(); err != nil {
		t.Fatalf("click logout: %v", err)
	}
	if err := page.WaitForURL(app.BaseURL + "/login"); err != nil {
		t.Fatalf("logout did not land on login: %v", err)
	}
	if _, err := page.Goto(app.BaseURL + "/dashboard"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if !strings.HasSuffix(page.URL(), "/login") {
		t.Errorf("dashboard reachable after logout: %s", page.URL())
	}
}
