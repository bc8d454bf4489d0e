package orchestrators

import (
	"context"
	"errors"
	"testing"

	"gymdesk/internal/domain/account"
)

func seededStore(t *testing.T) *memCredentialStore {
	t.Helper()
	store := &memCredentialStore{}
	seeded, err := ExecuteSeedAdmin(context.Background(), SeedAdminInput{}, SeedAdminDeps{CredentialStore: store, Now: clock(fixedNow)})
	if err != nil || !seeded {
		t.Fatalf("ExecuteSeedAdmin = %v, %v", seeded, err)
	}
	return store
}

// TestExecuteSeedAdmin_DefaultsAndIdempotent verifies first-run seeding never overwrites.
func TestExecuteSeedAdmin_DefaultsAndIdempotent(t *testing.T) {
	store := seededStore(t)
	if store.creds.Username != account.DefaultUsername || !store.creds.Matches("admin", "admin123") {
		t.Fatalf("seeded creds = %+v", store.creds)
	}
	hash := store.creds.PasswordHash

	seeded, err := ExecuteSeedAdmin(context.Background(), SeedAdminInput{Username: "x", Password: "yyyy"},
		SeedAdminDeps{CredentialStore: store, Now: clock(fixedNow)})
	if err != nil || seeded {
		t.Errorf("second seed = %v, %v", seeded, err)
	}
	if store.creds.PasswordHash != hash {
		t.Error("existing credentials overwritten")
	}
}

func TestExecuteLogin(t *testing.T) {
	store := seededStore(t)
	deps := LoginDeps{CredentialStore: store}
	tests := []struct {
		name     string
		user     string
		pass     string
		wantErr  error
		wantUser string
	}{
		{"valid", "admin", "admin123", nil, "admin"},
		{"wrong password", "admin", "nope", ErrInvalidCredentials, ""},
		{"wrong username", "Admin", "admin123", ErrInvalidCredentials, ""},
		{"empty", "", "", ErrInvalidCredentials, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ExecuteLogin(context.Background(), LoginInput{Username: tt.user, Password: tt.pass}, deps)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if res.Username != tt.wantUser {
				t.Errorf("Username = %q, want %q", res.Username, tt.wantUser)
			}
		})
	}
}

func TestExecuteLogin_NoCredentials(t *testing.T) {
	_, err := ExecuteLogin(context.Background(), LoginInput{Username: "admin", Password: "admin123"},
		LoginDeps{CredentialStore: &memCredentialStore{}})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v", err)
	}
}

func TestExecuteChangeCredentials(t *testing.T) {
	tests := []struct {
		name    string
		input   ChangeCredentialsInput
		wantErr error
	}{
		{"wrong current", ChangeCredentialsInput{"bad", "desk", "newpass", "newpass"}, account.ErrWrongPassword},
		{"mismatch", ChangeCredentialsInput{"admin123", "desk", "newpass", "newpasx"}, account.ErrPasswordMismatch},
		{"too short", ChangeCredentialsInput{"admin123", "desk", "abc", "abc"}, account.ErrPasswordTooShort},
		{"empty username", ChangeCredentialsInput{"admin123", "  ", "newpass", "newpass"}, account.ErrEmptyUsername},
		{"ok", ChangeCredentialsInput{"admin123", " desk ", "newpass", "newpass"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore(t)
			deps := ChangeCredentialsDeps{CredentialStore: store, Now: clock(fixedNow)}
			_, err := ExecuteChangeCredentials(context.Background(), tt.input, deps)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if !store.creds.Matches("admin", "admin123") {
					t.Error("credentials changed on failure")
				}
				return
			}
			if !store.creds.Matches("desk", "newpass") {
				t.Errorf("new credentials not stored: %+v", store.creds)
			}
			if _, err := ExecuteLogin(context.Background(), LoginInput{"admin", "admin123"}, LoginDeps{store}); err == nil {
				t.Error("old credentials still log in")
			}
		})
	}
}
