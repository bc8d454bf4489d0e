package attendance

import (
	"errors"
	"fmt"
	"time"

	"gymdesk/internal/domain/member"
)

// ClockLayout is the display format for the check-in time, e.g. "07:05 pm".
const ClockLayout = "03:04 pm"

// Domain errors
var (
	ErrMemberNotFound        = errors.New("member not found")
	ErrMembershipExpired     = errors.New("membership expired")
	ErrAlreadyCheckedInToday = errors.New("already checked in today")
)

// CheckIn is one recorded gym visit. Name is a snapshot taken at check-in time.
// Events are immutable once recorded.
type CheckIn struct {
	RollNumber string    `json:"rollNumber"`
	Name       string    `json:"name"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	Timestamp  time.Time `json:"timestamp"`
}

// Validate checks if the CheckIn has valid data.
// PRE: CheckIn struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: RollNumber must not be empty, Timestamp must be set
func (c *CheckIn) Validate() error {
	if c.RollNumber == "" {
		return errors.New("check-in must be associated with a member")
	}
	if c.Timestamp.IsZero() {
		return errors.New("check-in timestamp must be set")
	}
	if _, err := member.ParseDate(c.Date); err != nil {
		return errors.New("check-in date must be YYYY-MM-DD")
	}
	return nil
}

// ExpiredError reports a check-in refused because the membership has lapsed.
type ExpiredError struct {
	Name       string
	ExpiryDate string
}

// Error implements error.
func (e *ExpiredError) Error() string {
	return fmt.Sprintf("membership for %s expired on %s", e.Name, e.ExpiryDate)
}

// Unwrap lets errors.Is match ErrMembershipExpired.
func (e *ExpiredError) Unwrap() error { return ErrMembershipExpired }

// AlreadyCheckedInError reports a second check-in on the same day.
type AlreadyCheckedInError struct {
	Existing CheckIn
}

// Error implements error.
func (e *AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("%s already checked in today at %s", e.Existing.Name, e.Existing.Time)
}

// Unwrap lets errors.Is match ErrAlreadyCheckedInToday.
func (e *AlreadyCheckedInError) Unwrap() error { return ErrAlreadyCheckedInToday }
