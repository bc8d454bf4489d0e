package projections

import (
	"context"
	"time"

	"gymdesk/internal/application/listutil"
	"gymdesk/internal/domain/attendance"
	"gymdesk/internal/domain/member"
)

// GetMemberListQuery carries query parameters.
type GetMemberListQuery struct {
	Search string
	Status string // "", "active" or "expired"
	Page   listutil.PageParams
}

// GetMemberListResult carries the query result.
type GetMemberListResult struct {
	Members []MemberView       `json:"members"`
	Total   int                `json:"total"`
	Page    *listutil.PageInfo `json:"page,omitempty"`
}

// GetMemberListDeps holds dependencies for GetMemberList.
type GetMemberListDeps struct {
	Books BooksReader
	Now   func() time.Time
}

// QueryGetMemberList searches and filters the registry.
// PRE: Status is empty or a known status
// POST: Members are ordered by name; an empty match is not an error
// POST: Total counts every match; Members holds only the requested page when paging is enabled
func QueryGetMemberList(_ context.Context, query GetMemberListQuery, deps GetMemberListDeps) (GetMemberListResult, error) {
	today := deps.Now()
	if query.Status != "" && query.Status != member.StatusActive && query.Status != member.StatusExpired {
		return GetMemberListResult{}, &member.ValidationError{Field: "status", Reason: "must be active or expired"}
	}
	var members []member.Member
	deps.Books.View(func(r *member.Registry, _ *attendance.Ledger) {
		members = r.List(member.ListFilter{Search: query.Search, Status: query.Status}, today)
	})
	total := len(members)
	var page *listutil.PageInfo
	if query.Page.Enabled() {
		info := listutil.NewPageInfo(query.Page, total)
		page = &info
		members = listutil.Window(members, info)
	}
	views := make([]MemberView, 0, len(members))
	for _, m := range members {
		views = append(views, viewOf(m, today))
	}
	return GetMemberListResult{Members: views, Total: total, Page: page}, nil
}
