package attendance

import (
	"sort"
	"time"

	"gymdesk/internal/domain/member"
)

// MemberFinder resolves a roll number to a member.
// *member.Registry satisfies it.
type MemberFinder interface {
	FindByRoll(roll string) (member.Member, bool)
}

type dayKey struct {
	roll string
	date string
}

// Ledger is the append-only log of check-ins.
// It is not safe for concurrent use; callers serialise access.
type Ledger struct {
	events []CheckIn
	seen   map[dayKey]int
}

// NewLedger builds a ledger from a persisted event log.
func NewLedger(events []CheckIn) *Ledger {
	l := &Ledger{
		events: append([]CheckIn(nil), events...),
		seen:   make(map[dayKey]int, len(events)),
	}
	for i, e := range l.events {
		k := dayKey{roll: member.NormalizeRoll(e.RollNumber), date: e.Date}
		if _, ok := l.seen[k]; !ok {
			l.seen[k] = i
		}
	}
	return l
}

// Record checks a member in for now's calendar date.
// Checks run in order: member exists, membership not expired, not already in today.
// An expired member is refused before the duplicate check.
// PRE: members reflects the current registry
// POST: On success exactly one event is appended
// INVARIANT: At most one event per (roll number, date)
func (l *Ledger) Record(members MemberFinder, roll string, now time.Time) (CheckIn, error) {
	roll = member.NormalizeRoll(roll)
	if roll == "" {
		return CheckIn{}, &member.ValidationError{Field: "rollNumber", Reason: "is required"}
	}
	m, ok := members.FindByRoll(roll)
	if !ok {
		return CheckIn{}, ErrMemberNotFound
	}

	today := member.FormatDate(now)
	if m.ExpiryDate < today {
		return CheckIn{}, &ExpiredError{Name: m.Name, ExpiryDate: m.ExpiryDate}
	}

	k := dayKey{roll: roll, date: today}
	if i, ok := l.seen[k]; ok {
		return CheckIn{}, &AlreadyCheckedInError{Existing: l.events[i]}
	}

	e := CheckIn{
		RollNumber: roll,
		Name:       m.Name,
		Date:       today,
		Time:       now.Format(ClockLayout),
		Timestamp:  now,
	}
	l.events = append(l.events, e)
	l.seen[k] = len(l.events) - 1
	return e, nil
}

// OnDate returns the events for the given day, newest first.
// POST: Returns a fresh slice
func (l *Ledger) OnDate(day time.Time) []CheckIn {
	date := member.FormatDate(day)
	out := make([]CheckIn, 0)
	for _, e := range l.events {
		if e.Date == date {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// CountOn returns the number of check-ins on the given day.
func (l *Ledger) CountOn(day time.Time) int {
	date := member.FormatDate(day)
	n := 0
	for _, e := range l.events {
		if e.Date == date {
			n++
		}
	}
	return n
}

// All returns a copy of the full log in append order.
func (l *Ledger) All() []CheckIn {
	return append([]CheckIn(nil), l.events...)
}

// Len returns the number of recorded events.
func (l *Ledger) Len() int {
	return len(l.events)
}

// Clone returns an independent copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	return NewLedger(l.events)
}
