package memberimport

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gymdesk/internal/domain/member"
)

// HeaderOffset converts a zero-based row index into the spreadsheet row
// number an operator sees: one for 1-based counting, one for the header.
const HeaderOffset = 2

// SummaryErrorLimit is how many row errors Summary lists before truncating.
const SummaryErrorLimit = 5

// DefaultDurationMonths applies when a row has no usable duration.
const DefaultDurationMonths = 1

// ErrImportRowFailed is matched by every RowError.
var ErrImportRowFailed = errors.New("import row failed")

// RowError describes why one row was not imported.
type RowError struct {
	Row    int    `json:"row"`
	Roll   string `json:"rollNumber,omitempty"`
	Reason string `json:"reason"`
}

// Error implements error.
func (e *RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Reason)
}

// Unwrap lets errors.Is match ErrImportRowFailed.
func (e *RowError) Unwrap() error { return ErrImportRowFailed }

// Result aggregates the outcome of one import batch.
type Result struct {
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Imported  []member.Member `json:"-"`
	Failures  []RowError      `json:"failures"`
}

// Errors returns the display message for every failed row, in row order.
func (r Result) Errors() []string {
	out := make([]string, 0, len(r.Failures))
	for i := range r.Failures {
		out = append(out, r.Failures[i].Error())
	}
	return out
}

// Summary is the operator-facing text: counts, then at most SummaryErrorLimit
// errors and a note for the rest.
func (r Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Import complete: %d succeeded, %d failed.", r.Succeeded, r.Failed)
	msgs := r.Errors()
	if len(msgs) == 0 {
		return b.String()
	}
	b.WriteString("\n\nErrors:")
	for i, msg := range msgs {
		if i == SummaryErrorLimit {
			fmt.Fprintf(&b, "\n...and %d more errors.", len(msgs)-SummaryErrorLimit)
			break
		}
		b.WriteString("\n")
		b.WriteString(msg)
	}
	return b.String()
}

// Target is the registry an import writes into.
// *member.Registry satisfies it.
type Target interface {
	FindByRoll(roll string) (member.Member, bool)
	Insert(m member.Member)
}

// Reconcile validates each row and inserts the good ones into target.
// A bad row never stops the batch. Duplicates are checked against target as it
// grows, so a roll number repeated within the batch fails on its second row.
// PRE: rows are in spreadsheet order
// POST: Succeeded + Failed == len(rows)
func Reconcile(target Target, rows []Row, now time.Time) Result {
	var res Result
	for i, row := range rows {
		rowNum := i + HeaderOffset
		m, rowErr := resolve(row, rowNum, now)
		if rowErr == nil {
			if _, exists := target.FindByRoll(m.RollNumber); exists {
				rowErr = &RowError{Row: rowNum, Roll: m.RollNumber, Reason: fmt.Sprintf("duplicate roll number (%s)", m.RollNumber)}
			}
		}
		if rowErr != nil {
			res.Failed++
			res.Failures = append(res.Failures, *rowErr)
			continue
		}
		target.Insert(m)
		res.Succeeded++
		res.Imported = append(res.Imported, m)
	}
	return res
}

// resolve maps one row onto a Member, reporting every missing required field at once.
func resolve(row Row, rowNum int, now time.Time) (member.Member, *RowError) {
	roll := member.NormalizeRoll(row.text(FieldRoll))
	name := row.text(FieldName)
	phone := row.text(FieldPhone)

	var missing []string
	if roll == "" {
		missing = append(missing, "roll number")
	}
	if name == "" {
		missing = append(missing, "name")
	}
	if phone == "" {
		missing = append(missing, "phone")
	}

	rawJoin, hasJoin := row.lookup(FieldJoinDate)
	if !hasJoin {
		missing = append(missing, "join date")
	}
	if len(missing) > 0 {
		return member.Member{}, &RowError{Row: rowNum, Roll: roll, Reason: "missing required field(s): " + strings.Join(missing, ", ")}
	}

	join, err := ParseJoinDate(rawJoin)
	if err != nil {
		return member.Member{}, &RowError{Row: rowNum, Roll: roll, Reason: fmt.Sprintf("invalid join date (%s)", toString(rawJoin))}
	}

	fee := row.text(FieldFee)
	if fee == "" {
		fee = "0"
	}

	m := member.Member{
		RollNumber: roll,
		Name:       name,
		Gender:     strings.ToLower(row.text(FieldGender)),
		Phone:      phone,
		Email:      row.text(FieldEmail),
		JoinDate:   member.FormatDate(join),
		ExpiryDate: member.FormatDate(member.AddMonths(join, duration(row))),
		FeePaid:    fee,
		CreatedAt:  now,
	}
	if err := m.Validate(); err != nil {
		return member.Member{}, &RowError{Row: rowNum, Roll: roll, Reason: err.Error()}
	}
	return m, nil
}

// duration reads the row's duration in months, defaulting when absent,
// non-numeric or below one.
func duration(row Row) int {
	v, ok := row.lookup(FieldDuration)
	if !ok {
		return DefaultDurationMonths
	}
	n, ok := toNumber(v)
	if !ok || n < 1 || n > 1200 {
		return DefaultDurationMonths
	}
	return int(math.Floor(n))
}
