package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gymdesk/internal/domain/account"
)

// ChangeCredentialsInput carries the settings form.
type ChangeCredentialsInput struct {
	CurrentPassword string
	NewUsername     string
	NewPassword     string
	ConfirmPassword string
}

// ChangeCredentialsDeps holds dependencies for ChangeCredentials.
type ChangeCredentialsDeps struct {
	CredentialStore CredentialStore
	Now             func() time.Time
}

// ExecuteChangeCredentials replaces the admin username and password.
// PRE: CurrentPassword matches the stored hash
// POST: Subsequent logins use the new pair
func ExecuteChangeCredentials(ctx context.Context, input ChangeCredentialsInput, deps ChangeCredentialsDeps) (account.Credentials, error) {
	creds, err := deps.CredentialStore.Get(ctx)
	if err != nil {
		return account.Credentials{}, err
	}
	if err := creds.CheckPassword(input.CurrentPassword); err != nil {
		slog.Info("auth_event", "event", "credentials_change_refused", "reason", "wrong_password")
		return account.Credentials{}, account.ErrWrongPassword
	}
	if input.NewPassword != input.ConfirmPassword {
		return account.Credentials{}, account.ErrPasswordMismatch
	}

	updated := account.Credentials{Username: strings.TrimSpace(input.NewUsername), UpdatedAt: deps.Now()}
	if updated.Username == "" {
		return account.Credentials{}, account.ErrEmptyUsername
	}
	if err := updated.SetPassword(input.NewPassword); err != nil {
		return account.Credentials{}, err
	}
	if err := updated.Validate(); err != nil {
		return account.Credentials{}, err
	}
	if err := deps.CredentialStore.Save(ctx, updated); err != nil {
		return account.Credentials{}, err
	}
	slog.Info("auth_event", "event", "credentials_changed", "username", updated.Username)
	return updated, nil
}
