package account

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Defaults for a fresh install. Operators are expected to change them.
const (
	DefaultUsername = "admin"
	DefaultPassword = "admin123"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 4

// MaxUsernameLength bounds the username.
const MaxUsernameLength = 64

const bcryptCost = 12

// Domain errors
var (
	ErrEmptyUsername    = errors.New("username cannot be empty")
	ErrUsernameTooLong  = errors.New("username cannot exceed 64 characters")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 4 characters")
	ErrPasswordMismatch = errors.New("new password and confirmation do not match")
	ErrWrongPassword    = errors.New("incorrect password")
)

// Credentials is the single shared admin login for the gym desk.
type Credentials struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Validate checks if the Credentials have valid data.
// PRE: Credentials struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return ErrEmptyUsername
	}
	if utf8.RuneCountInString(c.Username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	if c.PasswordHash == "" {
		return ErrEmptyPassword
	}
	return nil
}

// SetPassword hashes and stores a password using bcrypt.
// PRE: plaintext is at least MinPasswordLength characters
// POST: PasswordHash is set to a bcrypt hash
func (c *Credentials) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return err
	}
	c.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// PRE: PasswordHash is set
// INVARIANT: Credentials fields are not mutated
func (c *Credentials) CheckPassword(plaintext string) error {
	if c.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// Matches reports whether username and password both match.
// Usernames compare exactly.
func (c *Credentials) Matches(username, password string) bool {
	if username != c.Username {
		return false
	}
	return c.CheckPassword(password) == nil
}
