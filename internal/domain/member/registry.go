package member

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ExpiringSoonDays is the look-ahead window for the dashboard's expiring-soon count.
const ExpiringSoonDays = 7

// Candidate is the input to Registry.Add.
type Candidate struct {
	RollNumber     string
	Name           string
	Gender         string
	Phone          string
	Email          string
	JoinDate       string
	DurationMonths int
	FeePaid        string
}

// Patch holds the optional changes applied by Registry.Update.
// A positive ExtensionMonths wins over ExpiryDate.
type Patch struct {
	Name            *string
	Gender          *string
	Phone           *string
	Email           *string
	FeePaid         *string
	ExpiryDate      *string
	ExtensionMonths int
}

// ListFilter narrows Registry.List.
type ListFilter struct {
	Search string
	Status string // "", StatusActive or StatusExpired
}

// Stats is the dashboard summary of the registry.
type Stats struct {
	Total         int `json:"total"`
	Active        int `json:"active"`
	Expired       int `json:"expired"`
	ExpiringToday int `json:"expiringToday"`
	ExpiringSoon  int `json:"expiringSoon"`
}

// Registry is the in-memory collection of members keyed by normalized roll number.
// It is not safe for concurrent use; callers serialise access.
type Registry struct {
	members []Member
	index   map[string]int
}

// NewRegistry builds a registry from a persisted collection.
// When the persisted data holds duplicate roll numbers, lookups resolve to the first.
// POST: Registry owns a copy of members
func NewRegistry(members []Member) *Registry {
	r := &Registry{members: append([]Member(nil), members...)}
	r.reindex()
	return r
}

func (r *Registry) reindex() {
	r.index = make(map[string]int, len(r.members))
	for i, m := range r.members {
		key := NormalizeRoll(m.RollNumber)
		if _, exists := r.index[key]; !exists {
			r.index[key] = i
		}
	}
}

// Add registers a new member.
// PRE: c carries the form input
// POST: On success the member is stored with a computed expiry and CreatedAt = now
// INVARIANT: No two members share a normalized roll number
func (r *Registry) Add(c Candidate, now time.Time) (Member, error) {
	roll := NormalizeRoll(c.RollNumber)
	if roll == "" {
		return Member{}, &ValidationError{Field: "rollNumber", Reason: "is required"}
	}
	if strings.TrimSpace(c.Phone) == "" {
		return Member{}, &ValidationError{Field: "phone", Reason: "is required"}
	}
	if c.DurationMonths < 1 {
		return Member{}, &ValidationError{Field: "durationMonths", Reason: "must be at least 1"}
	}
	join, err := ParseDate(strings.TrimSpace(c.JoinDate))
	if err != nil {
		return Member{}, &ValidationError{Field: "joinDate", Reason: "must be a YYYY-MM-DD date"}
	}
	if _, exists := r.index[roll]; exists {
		return Member{}, ErrDuplicateIdentifier
	}

	m := Member{
		RollNumber: roll,
		Name:       strings.TrimSpace(c.Name),
		Gender:     strings.ToLower(strings.TrimSpace(c.Gender)),
		Phone:      strings.TrimSpace(c.Phone),
		Email:      strings.TrimSpace(c.Email),
		JoinDate:   FormatDate(join),
		ExpiryDate: FormatDate(AddMonths(join, c.DurationMonths)),
		FeePaid:    strings.TrimSpace(c.FeePaid),
		CreatedAt:  now,
	}
	if err := m.Validate(); err != nil {
		return Member{}, err
	}
	r.Insert(m)
	return m, nil
}

// Insert appends m without a duplicate check.
// PRE: caller has verified m.RollNumber is not already present
func (r *Registry) Insert(m Member) {
	m.RollNumber = NormalizeRoll(m.RollNumber)
	r.members = append(r.members, m)
	if _, exists := r.index[m.RollNumber]; !exists {
		r.index[m.RollNumber] = len(r.members) - 1
	}
}

// Update applies p to the member with the given roll number.
// An extension is measured from the currently stored expiry, not from today.
// PRE: roll identifies an existing member
// POST: Returns the updated member; RollNumber and CreatedAt are unchanged
func (r *Registry) Update(roll string, p Patch) (Member, error) {
	i, ok := r.index[NormalizeRoll(roll)]
	if !ok {
		return Member{}, ErrNotFound
	}
	m := r.members[i]

	if p.Name != nil {
		m.Name = strings.TrimSpace(*p.Name)
	}
	if p.Gender != nil {
		m.Gender = strings.ToLower(strings.TrimSpace(*p.Gender))
	}
	if p.Phone != nil {
		m.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Email != nil {
		m.Email = strings.TrimSpace(*p.Email)
	}
	if p.FeePaid != nil {
		m.FeePaid = strings.TrimSpace(*p.FeePaid)
	}

	switch {
	case p.ExtensionMonths > 0:
		expiry, err := AddMonthsISO(m.ExpiryDate, p.ExtensionMonths)
		if err != nil {
			return Member{}, &ValidationError{Field: "expiryDate", Reason: "stored value is not a date"}
		}
		m.ExpiryDate = expiry
	case p.ExtensionMonths < 0:
		return Member{}, &ValidationError{Field: "extensionMonths", Reason: "cannot be negative"}
	case p.ExpiryDate != nil:
		m.ExpiryDate = strings.TrimSpace(*p.ExpiryDate)
	}

	if err := m.Validate(); err != nil {
		return Member{}, err
	}
	r.members[i] = m
	return m, nil
}

// Delete removes the member. Check-ins referencing the roll number are kept.
// PRE: roll identifies an existing member
// POST: Member is absent from the registry
func (r *Registry) Delete(roll string) error {
	i, ok := r.index[NormalizeRoll(roll)]
	if !ok {
		return ErrNotFound
	}
	r.members = append(r.members[:i], r.members[i+1:]...)
	r.reindex()
	return nil
}

// FindByRoll looks up a member by roll number, case-insensitively.
func (r *Registry) FindByRoll(roll string) (Member, bool) {
	i, ok := r.index[NormalizeRoll(roll)]
	if !ok {
		return Member{}, false
	}
	return r.members[i], true
}

// List returns members matching f, ordered by name.
// Search is a case-insensitive substring match over name, roll number and phone.
// POST: Returns a fresh slice; mutating it does not affect the registry
func (r *Registry) List(f ListFilter, today time.Time) []Member {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		if needle != "" &&
			!strings.Contains(strings.ToLower(m.Name), needle) &&
			!strings.Contains(strings.ToLower(m.RollNumber), needle) &&
			!strings.Contains(strings.ToLower(m.Phone), needle) {
			continue
		}
		if f.Status != "" && m.Status(today) != f.Status {
			continue
		}
		out = append(out, m)
	}

	col := collate.New(language.English)
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}

// Stats summarises the registry as of today.
// Expiring soon means strictly after today and no more than ExpiringSoonDays ahead.
func (r *Registry) Stats(today time.Time) Stats {
	todayISO := FormatDate(today)
	horizon := FormatDate(today.AddDate(0, 0, ExpiringSoonDays))

	s := Stats{Total: len(r.members)}
	for _, m := range r.members {
		if m.ExpiryDate >= todayISO {
			s.Active++
		} else {
			s.Expired++
		}
		if m.ExpiryDate == todayISO {
			s.ExpiringToday++
		}
		if m.ExpiryDate > todayISO && m.ExpiryDate <= horizon {
			s.ExpiringSoon++
		}
	}
	return s
}

// Expiring returns members expiring today and within the look-ahead window,
// each ordered by expiry date.
func (r *Registry) Expiring(today time.Time) (dueToday, soon []Member) {
	todayISO := FormatDate(today)
	horizon := FormatDate(today.AddDate(0, 0, ExpiringSoonDays))
	for _, m := range r.members {
		switch {
		case m.ExpiryDate == todayISO:
			dueToday = append(dueToday, m)
		case m.ExpiryDate > todayISO && m.ExpiryDate <= horizon:
			soon = append(soon, m)
		}
	}
	sort.SliceStable(soon, func(i, j int) bool { return soon[i].ExpiryDate < soon[j].ExpiryDate })
	return dueToday, soon
}

// All returns a copy of every member in insertion order.
func (r *Registry) All() []Member {
	return append([]Member(nil), r.members...)
}

// Len returns the number of members.
func (r *Registry) Len() int {
	return len(r.members)
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	return NewRegistry(r.members)
}
