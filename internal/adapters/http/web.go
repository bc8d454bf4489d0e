package web

import (
	"net/http"
	"time"

	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/adapters/http/perf"
	outboxStore "gymdesk/internal/adapters/storage/outbox"
	"gymdesk/internal/application/books"
	"gymdesk/internal/application/orchestrators"
)

// Services holds everything the handlers call into.
type Services struct {
	Books       *books.Books
	Credentials orchestrators.CredentialStore
	OutboxStore outboxStore.Store
	Outbox      *orchestrators.OutboxProcessor
	Backup      *orchestrators.BackupDispatcher // optional
	Perf        *perf.Collector                 // optional
}

// Options configures the middleware stack.
type Options struct {
	CSRFKey         []byte // 32 bytes
	SecureCookies   bool
	TrustedOrigins  []string
	LoginRatePerMin int
	SessionTTL      time.Duration
	SlowRequest     time.Duration
}

// Global services instance (set by NewMux)
var svc *Services

// Global session store instance
var sessions *middleware.SessionStore

// loginLimiter throttles POST /login per client.
var loginLimiter *middleware.RateLimiter

// timeNow is a variable for testability.
var timeNow = time.Now

// NewMux wires HTTP handlers for the app.
// The returned stop func releases background resources; call it once the server has shut down.
// PRE: s.Books, s.Credentials, s.OutboxStore and s.Outbox are set; opts.CSRFKey is 32 bytes
func NewMux(s *Services, opts Options) (http.Handler, func()) {
	svc = s
	sessions = middleware.NewSessionStore(opts.SessionTTL)
	middleware.SecureCookies = opts.SecureCookies

	rate := opts.LoginRatePerMin
	if rate <= 0 {
		rate = 10
	}
	loginLimiter = middleware.NewRateLimiter(rate, time.Minute)

	mux := http.NewServeMux()
	registerRoutes(mux, loginLimiter)

	// Outer to inner: Timing -> SecurityHeaders -> Auth -> CSRF -> mux
	handler := middleware.Chain(mux,
		middleware.CSRF(opts.CSRFKey, opts.SecureCookies, opts.TrustedOrigins),
		middleware.Auth(sessions),
		middleware.SecurityHeaders,
		middleware.Timing(s.Perf, opts.SlowRequest),
	)
	return handler, loginLimiter.Stop
}
