package web

import (
	"errors"
	"net/http"

	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/application/orchestrators"
)

type loginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

type changeCredentialsRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required,max=72"`
	NewUsername     string `json:"newUsername" validate:"required,max=64"`
	NewPassword     string `json:"newPassword" validate:"required,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,max=72"`
}

// handleLogin handles GET (form) and POST (authenticate) for /login.
// POST accepts a form or a JSON body.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, http.StatusOK, "login.html", map[string]any{"Error": "", "Username": ""})

	case http.MethodPost:
		jsonReq := isJSONRequest(r)
		var req loginRequest
		if jsonReq {
			if !decodeAndValidate(w, r, &req) {
				return
			}
		} else {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			req.Username = r.FormValue("username")
			req.Password = r.FormValue("password")
		}

		result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
			Username: req.Username,
			Password: req.Password,
		}, orchestrators.LoginDeps{CredentialStore: svc.Credentials})
		if err != nil {
			if !errors.Is(err, orchestrators.ErrInvalidCredentials) {
				internalError(w, err)
				return
			}
			if jsonReq {
				writeDomainError(w, err)
				return
			}
			renderTemplate(w, r, http.StatusUnauthorized, "login.html", map[string]any{
				"Error":    "Invalid username or password!",
				"Username": req.Username,
			})
			return
		}

		token, err := sessions.Create(result.Username)
		if err != nil {
			internalError(w, err)
			return
		}
		middleware.SetSessionCookie(w, token, sessions.TTL())
		if jsonReq {
			writeJSON(w, http.StatusOK, map[string]string{"username": result.Username})
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)

	default:
		methodNotAllowed(w)
	}
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if token := middleware.SessionToken(r); token != "" {
		sessions.Delete(token)
	}
	middleware.ClearSessionCookie(w)
	if isJSONRequest(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleChangeCredentials handles POST /api/settings/credentials.
// Other sessions are dropped; the caller's session carries the new username.
func handleChangeCredentials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req changeCredentialsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := orchestrators.ExecuteChangeCredentials(r.Context(), orchestrators.ChangeCredentialsInput{
		CurrentPassword: req.CurrentPassword,
		NewUsername:     req.NewUsername,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	}, orchestrators.ChangeCredentialsDeps{CredentialStore: svc.Credentials, Now: timeNow})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sessions.Rename(middleware.SessionToken(r), updated.Username)
	writeJSON(w, http.StatusOK, map[string]string{
		"username": updated.Username,
		"message":  "Credentials updated successfully!",
	})
}
