package web

import (
	"net/http"

	"gymdesk/internal/adapters/http/middleware"
)

// registerRoutes maps every path to its handler. Everything except the
// login form requires a session.
func registerRoutes(mux *http.ServeMux, loginLimiter *middleware.RateLimiter) {
	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(h)
	}

	mux.Handle("/login", middleware.RateLimit(loginLimiter)(http.HandlerFunc(handleLogin)))
	mux.Handle("/logout", protected(handleLogout))
	mux.Handle("/{$}", protected(handleRoot))
	mux.Handle("/dashboard", protected(handleDashboard))
	mux.Handle("/checkin", protected(handleKioskCheckIn))

	mux.Handle("/api/members", protected(handleMembers))
	mux.Handle("/api/members/{roll}", protected(handleMemberByRoll))
	mux.Handle("/api/checkins", protected(handleCheckins))
	mux.Handle("/api/dashboard", protected(handleDashboardAPI))
	mux.Handle("/api/import", protected(handleImport))
	mux.Handle("/api/import/template", protected(handleImportTemplate))
	mux.Handle("/api/export", protected(handleExport))
	mux.Handle("/api/settings/credentials", protected(handleChangeCredentials))
	mux.Handle("/api/admin/outbox", protected(handleAdminOutboxList))
	mux.Handle("/api/admin/outbox/{id}/{action}", protected(handleAdminOutboxAction))
	mux.Handle("/api/admin/perf", protected(handleAdminPerf))
}

// handleRoot sends the bare host to the dashboard.
func handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
