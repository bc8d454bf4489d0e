package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/application/projections"
	"gymdesk/internal/domain/memberimport"
)

// importTemplateName is the attachment name of the CSV template.
const importTemplateName = "Gym_Member_Template.csv"

// handleImport handles POST /api/import.
// The body is a JSON array of rows, a JSON object {"rows": [...]}, a text/csv
// upload, or a multipart form with a "file" part. ?dry_run=true reconciles
// without saving.
func handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	dryRun := false
	if v := r.URL.Query().Get("dry_run"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "dry_run must be true or false")
			return
		}
		dryRun = b
	}

	rows, err := readImportRows(w, r)
	if err != nil {
		if errors.Is(err, orchestrators.ErrEmptyImport) {
			writeDomainError(w, err)
			return
		}
		slog.Info("import_event", "event", "upload_rejected", "error", err.Error())
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := orchestrators.ExecuteImportMembers(r.Context(), orchestrators.ImportMembersInput{
		Rows:   rows,
		DryRun: dryRun,
	}, orchestrators.ImportMembersDeps{Books: svc.Books, Now: timeNow})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// readImportRows picks the parser from the Content-Type.
func readImportRows(w http.ResponseWriter, r *http.Request) ([]memberimport.Row, error) {
	ct := r.Header.Get("Content-Type")
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	switch {
	case strings.HasPrefix(ct, "application/json"):
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return decodeJSONRows(raw)

	case strings.HasPrefix(ct, "multipart/form-data"):
		r.Body = body
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing file part: %w", err)
		}
		defer file.Close()
		return orchestrators.ParseCSVRows(file)

	case strings.HasPrefix(ct, "text/csv"), strings.HasPrefix(ct, "text/plain"):
		return orchestrators.ParseCSVRows(body)

	default:
		return nil, fmt.Errorf("unsupported content type %q", ct)
	}
}

// decodeJSONRows accepts a bare array or an object with a rows field.
func decodeJSONRows(raw []byte) ([]memberimport.Row, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, orchestrators.ErrEmptyImport
	}
	var rows []memberimport.Row
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("invalid rows: %w", err)
		}
	} else {
		var wrapped struct {
			Rows []memberimport.Row `json:"rows"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("invalid rows: %w", err)
		}
		rows = wrapped.Rows
	}
	if len(rows) == 0 {
		return nil, orchestrators.ErrEmptyImport
	}
	return rows, nil
}

// handleImportTemplate handles GET /api/import/template
func handleImportTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	var buf bytes.Buffer
	if err := orchestrators.WriteImportTemplate(&buf); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+importTemplateName+`"`)
	buf.WriteTo(w)
}

// handleExport handles GET /api/export, the full backup download.
func handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	snap, err := projections.QueryExportData(r.Context(), projections.ExportDataDeps{Books: svc.Books, Now: timeNow})
	if err != nil {
		internalError(w, err)
		return
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		internalError(w, err)
		return
	}
	slog.Info("export_event", "event", "data_exported", "members", len(snap.Members), "checkins", len(snap.Checkins))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+snap.FileName()+`"`)
	w.Write(data)
}
