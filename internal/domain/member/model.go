package member

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Max length constants for user-editable fields, in characters.
const (
	MaxNameLength = 100
	MaxRollLength = 32
)

// Derived status values. Never stored.
const (
	StatusActive  = "active"
	StatusExpired = "expired"
)

// Domain errors
var (
	ErrValidationFailed    = errors.New("validation failed")
	ErrDuplicateIdentifier = errors.New("roll number already exists")
	ErrNotFound            = errors.New("member not found")
)

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidationFailed.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// Member is a registered gym member. RollNumber is the business key.
type Member struct {
	RollNumber string    `json:"rollNumber"`
	Name       string    `json:"name"`
	Gender     string    `json:"gender,omitempty"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email,omitempty"`
	JoinDate   string    `json:"joinDate"`
	ExpiryDate string    `json:"expiryDate"`
	FeePaid    string    `json:"feePaid,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NormalizeRoll trims and upper-cases a roll number so lookups are case-insensitive.
func NormalizeRoll(roll string) string {
	return strings.ToUpper(strings.TrimSpace(roll))
}

// Validate checks if the Member has valid data.
// PRE: Member struct is initialized
// POST: Returns a *ValidationError if validation fails, nil otherwise
// INVARIANT: RollNumber and Name are non-empty, dates are ISO calendar dates
func (m *Member) Validate() error {
	if strings.TrimSpace(m.RollNumber) == "" {
		return &ValidationError{Field: "rollNumber", Reason: "is required"}
	}
	if utf8.RuneCountInString(m.RollNumber) > MaxRollLength {
		return &ValidationError{Field: "rollNumber", Reason: "is too long"}
	}
	if strings.TrimSpace(m.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if utf8.RuneCountInString(m.Name) > MaxNameLength {
		return &ValidationError{Field: "name", Reason: "cannot exceed 100 characters"}
	}
	if _, err := ParseDate(m.JoinDate); err != nil {
		return &ValidationError{Field: "joinDate", Reason: "must be a YYYY-MM-DD date"}
	}
	if _, err := ParseDate(m.ExpiryDate); err != nil {
		return &ValidationError{Field: "expiryDate", Reason: "must be a YYYY-MM-DD date"}
	}
	if m.Email != "" && !strings.Contains(m.Email, "@") {
		return &ValidationError{Field: "email", Reason: "must be valid"}
	}
	return nil
}

// IsActive reports whether the membership covers today.
// ISO dates compare correctly as strings.
// INVARIANT: Member is not mutated
func (m *Member) IsActive(today time.Time) bool {
	return m.ExpiryDate >= FormatDate(today)
}

// Status returns the derived status for today.
func (m *Member) Status(today time.Time) string {
	if m.IsActive(today) {
		return StatusActive
	}
	return StatusExpired
}
