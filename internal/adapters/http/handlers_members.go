package web

import (
	"net/http"

	"gymdesk/internal/application/listutil"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/application/projections"
	"gymdesk/internal/domain/member"
)

type addMemberRequest struct {
	RollNumber     string `json:"rollNumber" validate:"required,max=32"`
	Name           string `json:"name" validate:"required,max=100"`
	Gender         string `json:"gender" validate:"max=16"`
	Phone          string `json:"phone" validate:"required,max=32"`
	Email          string `json:"email" validate:"omitempty,email,max=254"`
	JoinDate       string `json:"joinDate" validate:"required"`
	DurationMonths int    `json:"durationMonths"`
	FeePaid        string `json:"feePaid" validate:"max=64"`
}

type updateMemberRequest struct {
	Name            *string `json:"name" validate:"omitnil,max=100"`
	Gender          *string `json:"gender" validate:"omitnil,max=16"`
	Phone           *string `json:"phone" validate:"omitnil,max=32"`
	Email           *string `json:"email" validate:"omitnil,omitempty,email,max=254"`
	FeePaid         *string `json:"feePaid" validate:"omitnil,max=64"`
	ExpiryDate      *string `json:"expiryDate" validate:"omitnil,datetime=2006-01-02"`
	ExtensionMonths int     `json:"extensionMonths" validate:"gte=0,lte=120"`
}

// handleMembers handles GET (list) and POST (add) for /api/members
func handleMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		query := projections.GetMemberListQuery{
			Search: q.Get("q"),
			Status: q.Get("status"),
			Page:   listutil.ParsePageParams(q),
		}
		result, err := projections.QueryGetMemberList(ctx, query, projections.GetMemberListDeps{
			Books: svc.Books,
			Now:   timeNow,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case http.MethodPost:
		var req addMemberRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		added, err := orchestrators.ExecuteAddMember(ctx, orchestrators.AddMemberInput{
			Candidate: member.Candidate{
				RollNumber:     req.RollNumber,
				Name:           req.Name,
				Gender:         req.Gender,
				Phone:          req.Phone,
				Email:          req.Email,
				JoinDate:       req.JoinDate,
				DurationMonths: req.DurationMonths,
				FeePaid:        req.FeePaid,
			},
		}, orchestrators.AddMemberDeps{
			Books:  svc.Books,
			Backup: svc.Backup,
			Now:    timeNow,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, added)

	default:
		methodNotAllowed(w)
	}
}

// handleMemberByRoll handles GET, PUT and DELETE for /api/members/{roll}
func handleMemberByRoll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roll := r.PathValue("roll")

	switch r.Method {
	case http.MethodGet:
		view, err := projections.QueryGetMember(ctx, projections.GetMemberQuery{RollNumber: roll},
			projections.GetMemberDeps{Books: svc.Books, Now: timeNow})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)

	case http.MethodPut:
		var req updateMemberRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		updated, err := orchestrators.ExecuteUpdateMember(ctx, orchestrators.UpdateMemberInput{
			RollNumber: roll,
			Patch: member.Patch{
				Name:            req.Name,
				Gender:          req.Gender,
				Phone:           req.Phone,
				Email:           req.Email,
				FeePaid:         req.FeePaid,
				ExpiryDate:      req.ExpiryDate,
				ExtensionMonths: req.ExtensionMonths,
			},
		}, orchestrators.UpdateMemberDeps{Books: svc.Books})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := orchestrators.ExecuteDeleteMember(ctx, roll, orchestrators.DeleteMemberDeps{Books: svc.Books}); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w)
	}
}
