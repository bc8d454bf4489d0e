// Package export defines the full-data snapshot an operator downloads as a backup.
package export

import (
	"time"

	"gymdesk/internal/domain/attendance"
	"gymdesk/internal/domain/member"
)

// FilePrefix starts every export file name.
const FilePrefix = "gym-data-"

// Snapshot is the downloadable copy of both collections.
type Snapshot struct {
	Members    []member.Member      `json:"members"`
	Checkins   []attendance.CheckIn `json:"checkins"`
	ExportDate time.Time            `json:"exportDate"`
}

// NewSnapshot builds a snapshot. Nil collections become empty arrays.
func NewSnapshot(members []member.Member, checkins []attendance.CheckIn, now time.Time) Snapshot {
	if members == nil {
		members = []member.Member{}
	}
	if checkins == nil {
		checkins = []attendance.CheckIn{}
	}
	return Snapshot{Members: members, Checkins: checkins, ExportDate: now.UTC()}
}

// FileName is the attachment name, e.g. gym-data-2024-03-10.json.
func (s Snapshot) FileName() string {
	return FilePrefix + s.ExportDate.Format(member.DateLayout) + ".json"
}
