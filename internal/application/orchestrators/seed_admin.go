package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	accountStore "gymdesk/internal/adapters/storage/account"
	"gymdesk/internal/domain/account"
)

// SeedAdminInput carries the first-run credentials. Empty fields fall back to the defaults.
type SeedAdminInput struct {
	Username string
	Password string
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	CredentialStore CredentialStore
	Now             func() time.Time
}

// ExecuteSeedAdmin writes initial credentials when none exist.
// Existing credentials are never overwritten.
// POST: CredentialStore.Get succeeds; returns true when it seeded
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps SeedAdminDeps) (bool, error) {
	_, err := deps.CredentialStore.Get(ctx)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, accountStore.ErrNotFound) {
		return false, err
	}

	c := account.Credentials{Username: input.Username, UpdatedAt: deps.Now()}
	if c.Username == "" {
		c.Username = account.DefaultUsername
	}
	password := input.Password
	if password == "" {
		password = account.DefaultPassword
	}
	if err := c.SetPassword(password); err != nil {
		return false, err
	}
	if err := deps.CredentialStore.Save(ctx, c); err != nil {
		return false, err
	}
	slog.Info("auth_event", "event", "admin_seeded", "username", c.Username, "default_password", password == account.DefaultPassword)
	return true, nil
}
