package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/application/projections"
	"gymdesk/internal/domain/attendance"
	"gymdesk/internal/domain/member"
)

type checkInRequest struct {
	RollNumber string `json:"rollNumber" validate:"required,max=32"`
}

// flashCookieName carries the kiosk result across the post-redirect-get.
const flashCookieName = "gymdesk_flash"

// Flash kinds, used as CSS classes on the dashboard.
const (
	flashSuccess = "success"
	flashWarning = "warning"
	flashError   = "error"
)

// handleCheckins handles GET (today's list) and POST (check in) for /api/checkins
func handleCheckins(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		result, err := projections.QueryGetCheckinsToday(ctx, projections.GetCheckinsTodayDeps{
			Books: svc.Books,
			Now:   timeNow,
		})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case http.MethodPost:
		var req checkInRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		event, err := orchestrators.ExecuteCheckInMember(ctx, orchestrators.CheckInMemberInput{RollNumber: req.RollNumber},
			orchestrators.CheckInMemberDeps{Books: svc.Books, Now: timeNow})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, event)

	default:
		methodNotAllowed(w)
	}
}

// handleDashboardAPI handles GET /api/dashboard
func handleDashboardAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	result, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardDeps{Books: svc.Books, Now: timeNow})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDashboard handles GET /dashboard, the desk page with the kiosk form.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	result, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardDeps{Books: svc.Books, Now: timeNow})
	if err != nil {
		internalError(w, err)
		return
	}
	flashKind, flashMsg := popFlash(w, r)
	renderTemplate(w, r, http.StatusOK, "dashboard.html", map[string]any{
		"Dashboard": result,
		"FlashKind": flashKind,
		"Flash":     flashMsg,
	})
}

// handleKioskCheckIn handles the dashboard form POST /checkin and redirects back with a flash message.
func handleKioskCheckIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	roll := r.FormValue("rollNumber")

	event, err := orchestrators.ExecuteCheckInMember(r.Context(), orchestrators.CheckInMemberInput{RollNumber: roll},
		orchestrators.CheckInMemberDeps{Books: svc.Books, Now: timeNow})
	kind, msg, ok := kioskMessage(roll, event, err)
	if !ok {
		internalError(w, err)
		return
	}
	setFlash(w, kind, msg)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// kioskMessage is the text shown at the desk for a check-in outcome.
// ok is false for errors that are not the member's fault.
func kioskMessage(roll string, event attendance.CheckIn, err error) (kind, msg string, ok bool) {
	var already *attendance.AlreadyCheckedInError
	var expired *attendance.ExpiredError
	switch {
	case err == nil:
		return flashSuccess, fmt.Sprintf("Welcome, %s! Check-in successful at %s", event.Name, event.Time), true
	case errors.As(err, &expired):
		return flashWarning, fmt.Sprintf("%s's membership has EXPIRED on %s. Please renew!", expired.Name, expired.ExpiryDate), true
	case errors.As(err, &already):
		return flashWarning, fmt.Sprintf("%s has already checked in today at %s", already.Existing.Name, already.Existing.Time), true
	case errors.Is(err, attendance.ErrMemberNotFound):
		return flashError, "No member found with roll number: " + member.NormalizeRoll(roll), true
	case errors.Is(err, member.ErrValidationFailed):
		return flashError, "Please enter a roll number", true
	default:
		return "", "", false
	}
}

func setFlash(w http.ResponseWriter, kind, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(kind + "|" + msg),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   60,
	})
}

// popFlash reads and clears the flash cookie.
func popFlash(w http.ResponseWriter, r *http.Request) (kind, msg string) {
	c, err := r.Cookie(flashCookieName)
	if err != nil {
		return "", ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Path: "/", MaxAge: -1})
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return "", ""
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] == '|' {
			return raw[:i], raw[i+1:]
		}
	}
	return "", ""
}
