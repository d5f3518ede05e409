package entity

import (
	"database/sql"
	"strings"
	"time"
)

type Member struct {
	ID         int    `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	SlackID    string `db:"slack_id" json:"slack_id"`
	IsActive   bool   `db:"is_active" json:"is_active"`
	IsExcluded bool   `db:"is_excluded" json:"is_excluded"`
	IsCurator  bool   `db:"is_curator" json:"is_curator"`
}

// Eligible reports whether the member can be picked for rotation.
func (m *Member) Eligible() bool {
	return m.IsActive && !m.IsExcluded && strings.TrimSpace(m.Name) != ""
}

type Assignment struct {
	ID         int       `db:"id" json:"id"`
	MemberID   *int64    `db:"member_id" json:"member_id"`
	MemberName string    `db:"member_name" json:"member_name"`
	AnchorOn   time.Time `db:"anchor_on" json:"anchor_on"`
	StartOn    time.Time `db:"start_on" json:"start_on"`
	EndOn      time.Time `db:"end_on" json:"end_on"`
	IsManual   bool      `db:"is_manual" json:"is_manual"`
	IsSkip     bool      `db:"is_skip" json:"is_skip"`
	AssignedBy string    `db:"assigned_by" json:"assigned_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type LegacyDutyRecord struct {
	ID       int       `db:"id"`
	Name     string    `db:"name"`
	ServedOn time.Time `db:"served_on"`
	IsSkip   bool      `db:"is_skip"`
}

type NotificationTask struct {
	ID           int            `db:"id"`
	AssignmentID int            `db:"assignment_id"`
	MemberName   string         `db:"member_name"`
	SlackID      string         `db:"slack_id"`
	StartOn      time.Time      `db:"start_on"`
	EndOn        time.Time      `db:"end_on"`
	Attempts     int            `db:"attempts"`
	LastError    sql.NullString `db:"last_error"`
	SentAt       sql.NullTime   `db:"sent_at"`
	CreatedAt    time.Time      `db:"created_at"`
}

// Actor is whoever the access-control collaborator authenticated for
// the current request.
type Actor struct {
	ID   string
	Name string
	Role string
}
