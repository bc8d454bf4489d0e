package orchestrators

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"gymdesk/internal/application/books"
	"gymdesk/internal/domain/attendance"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/memberimport"
)

// ErrEmptyImport is returned when the upload holds no data rows.
var ErrEmptyImport = errors.New("import file has no data rows")

// ImportMembersInput carries rows already keyed by header cell.
// PRE: Rows are in spreadsheet order
// INVARIANT: When DryRun=true no writes occur
type ImportMembersInput struct {
	Rows   []memberimport.Row
	DryRun bool
}

// ImportMembersResult wraps the reconciler result with the run mode.
type ImportMembersResult struct {
	memberimport.Result
	DryRun   bool     `json:"dryRun"`
	Errors   []string `json:"errors"`
	Summary  string   `json:"summary"`
	Imported []string `json:"imported"` // roll numbers added, in row order
}

// ImportMembersDeps holds dependencies for ImportMembers.
type ImportMembersDeps struct {
	Books *books.Books
	Now   func() time.Time
}

// ExecuteImportMembers reconciles rows against the registry.
// A dry run reconciles against a copy of the registry and discards it.
// POST: Succeeded + Failed == len(Rows); a real run saves once
func ExecuteImportMembers(ctx context.Context, input ImportMembersInput, deps ImportMembersDeps) (ImportMembersResult, error) {
	if len(input.Rows) == 0 {
		return ImportMembersResult{}, ErrEmptyImport
	}
	now := deps.Now()

	var res memberimport.Result
	if input.DryRun {
		deps.Books.View(func(r *member.Registry, _ *attendance.Ledger) {
			res = memberimport.Reconcile(r.Clone(), input.Rows, now)
		})
	} else {
		err := deps.Books.UpdateMembers(ctx, func(r *member.Registry) error {
			res = memberimport.Reconcile(r, input.Rows, now)
			return nil
		})
		if err != nil {
			return ImportMembersResult{}, err
		}
	}

	rolls := make([]string, 0, len(res.Imported))
	for _, m := range res.Imported {
		rolls = append(rolls, m.RollNumber)
	}
	slog.Info("import_event", "event", "members_imported", "dry_run", input.DryRun,
		"rows", len(input.Rows), "succeeded", res.Succeeded, "failed", res.Failed, "rolls", rolls)
	return ImportMembersResult{
		Result:   res,
		DryRun:   input.DryRun,
		Errors:   res.Errors(),
		Summary:  res.Summary(),
		Imported: rolls,
	}, nil
}

// ParseCSVRows reads a CSV upload into rows keyed by header cell.
// Blank lines are skipped; short records leave trailing fields absent.
// PRE: The first record is the header
func ParseCSVRows(r io.Reader) ([]memberimport.Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyImport
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []memberimport.Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		row := make(memberimport.Row, len(header))
		blank := true
		for i, cell := range rec {
			if i >= len(header) || header[i] == "" {
				continue
			}
			row[header[i]] = cell
			if strings.TrimSpace(cell) != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, ErrEmptyImport
	}
	return rows, nil
}

// WriteImportTemplate writes the downloadable CSV template with two example rows.
func WriteImportTemplate(w io.Writer) error {
	cw := csv.NewWriter(w)
	records := [][]string{
		memberimport.TemplateHeader,
		{"HSF20212806", "John Doe", "male", "9876543210", "15 December 2025", "600"},
		{"HSF20212807", "Jane Smith", "female", "9876543211", "16 December 2025", "600"},
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}
