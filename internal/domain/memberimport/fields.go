package memberimport

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Logical field names resolved from a spreadsheet row.
const (
	FieldRoll     = "rollNumber"
	FieldName     = "name"
	FieldGender   = "gender"
	FieldPhone    = "phone"
	FieldEmail    = "email"
	FieldJoinDate = "joinDate"
	FieldFee      = "feePaid"
	FieldDuration = "durationMonths"
)

// Aliases lists, per logical field, the column headers accepted for it.
// Lookup takes the first alias holding a non-empty value.
var Aliases = []struct {
	Field   string
	Headers []string
}{
	{FieldRoll, []string{"ROLL NUMBER", "Roll Number", "Roll No", "RollNo", "roll number", "ROLL NO"}},
	{FieldName, []string{"Name", "NAME", "name"}},
	{FieldGender, []string{"GENDER", "Gender", "gender"}},
	{FieldPhone, []string{"MOBILE", "Mobile", "Phone", "phone", "mobile"}},
	{FieldEmail, []string{"EMAIL", "Email", "email"}},
	{FieldJoinDate, []string{"DOJ", "doj", "Join Date", "join date", "JOIN DATE"}},
	{FieldFee, []string{"Fee", "FEE", "fee", "Fee Paid", "fee paid"}},
	{FieldDuration, []string{"Duration", "duration", "DURATION"}},
}

// TemplateHeader is the column order of the downloadable import template.
var TemplateHeader = []string{"ROLL NUMBER", "Name", "GENDER", "MOBILE", "DOJ", "Fee"}

// Row is one parsed spreadsheet row keyed by column header.
// Values are strings or numbers.
type Row map[string]any

// lookup returns the raw value of the first alias with a non-empty value.
func (r Row) lookup(field string) (any, bool) {
	for _, a := range Aliases {
		if a.Field != field {
			continue
		}
		for _, h := range a.Headers {
			v, ok := r[h]
			if !ok || v == nil {
				continue
			}
			if toString(v) != "" {
				return v, true
			}
		}
	}
	return nil, false
}

// text resolves a field to its trimmed string form.
func (r Row) text(field string) string {
	v, ok := r.lookup(field)
	if !ok {
		return ""
	}
	return toString(v)
}

// toString renders string and numeric cell values. Numbers never use exponent form.
func toString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// toNumber returns the numeric value of a cell when it is a number or a purely numeric string.
func toNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
