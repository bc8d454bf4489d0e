package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/csrf"

	"gymdesk/internal/adapters/http/middleware"
	outboxStore "gymdesk/internal/adapters/storage/outbox"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/attendance"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/outbox"
)

//go:embed templates/*.html
var templateFS embed.FS

// validate checks request DTOs. Field names in messages use the json tag.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// maxBodyBytes caps JSON and CSV request bodies.
const maxBodyBytes = 5 << 20

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeAndValidate decodes a JSON body into dto and runs its validate tags.
// On failure it has already written a 400.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dto any) bool {
	if err := strictDecode(w, r, dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return validDTO(w, dto)
}

// validDTO runs validate tags on dto. On failure it has already written a 400.
func validDTO(w http.ResponseWriter, dto any) bool {
	if err := validate.Struct(dto); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// validationMessage turns validator output into one readable line.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "datetime":
			msgs = append(msgs, fe.Field()+" must be a YYYY-MM-DD date")
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// writeDomainError maps domain failures to status codes. Anything unknown is a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var already *attendance.AlreadyCheckedInError
	var expired *attendance.ExpiredError
	switch {
	case errors.As(err, &already):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":       err.Error(),
			"name":        already.Existing.Name,
			"checkedInAt": already.Existing.Time,
		})
	case errors.As(err, &expired):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":      err.Error(),
			"name":       expired.Name,
			"expiryDate": expired.ExpiryDate,
		})
	case errors.Is(err, member.ErrNotFound),
		errors.Is(err, attendance.ErrMemberNotFound),
		errors.Is(err, outboxStore.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, member.ErrDuplicateIdentifier),
		errors.Is(err, outbox.ErrTerminal):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, orchestrators.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, member.ErrValidationFailed),
		errors.Is(err, orchestrators.ErrEmptyImport),
		errors.Is(err, account.ErrWrongPassword),
		errors.Is(err, account.ErrPasswordMismatch),
		errors.Is(err, account.ErrPasswordTooShort),
		errors.Is(err, account.ErrEmptyPassword),
		errors.Is(err, account.ErrEmptyUsername),
		errors.Is(err, account.ErrUsernameTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		internalError(w, err)
	}
}

// renderTemplate executes layout.html with the named page.
func renderTemplate(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	username := ""
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		username = sess.Username
	}
	funcMap := template.FuncMap{
		"currentUser": func() string { return username },
		"isLoggedIn":  func() bool { return username != "" },
		"csrfField":   func() template.HTML { return csrf.TemplateField(r) },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, fmt.Errorf("parse template %s: %w", templateName, err))
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render template %s: %w", templateName, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
