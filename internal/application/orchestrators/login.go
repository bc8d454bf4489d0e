package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	accountStore "gymdesk/internal/adapters/storage/account"
	"gymdesk/internal/domain/account"
)

// CredentialStore reads and writes the shared admin credentials.
type CredentialStore interface {
	Get(ctx context.Context) (account.Credentials, error)
	Save(ctx context.Context, c account.Credentials) error
}

var _ CredentialStore = (*accountStore.SQLiteStore)(nil)

// LoginInput carries the login form.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult identifies the authenticated operator.
type LoginResult struct {
	Username string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	CredentialStore CredentialStore
}

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ExecuteLogin checks the shared admin credentials.
// PRE: Credentials have been seeded
// POST: Returns the username on success
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	if input.Username == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	creds, err := deps.CredentialStore.Get(ctx)
	if err != nil {
		if errors.Is(err, accountStore.ErrNotFound) {
			slog.Warn("auth_event", "event", "login_failed", "reason", "no_credentials")
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !creds.Matches(input.Username, input.Password) {
		slog.Info("auth_event", "event", "login_failed", "username", input.Username, "reason", "mismatch")
		return LoginResult{}, ErrInvalidCredentials
	}
	slog.Info("auth_event", "event", "login_success", "username", creds.Username)
	return LoginResult{Username: creds.Username}, nil
}
