package domain

import "time"

// ReportStatus is the triage state of a flood report.
type ReportStatus string

const (
	StatusPending    ReportStatus = "Pending"
	StatusInProgress ReportStatus = "In Progress"
	StatusResolved   ReportStatus = "Resolved"
)

// Valid reports whether s is one of the known triage states. Any valid
// status may follow any other: triage staff can move reports backward
// (e.g. Resolved back to Pending), so there is no transition graph.
func (s ReportStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// ReportOwner is the public subset of the owning user joined onto reads.
type ReportOwner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Report is a citizen-submitted flood incident. OwnerID is immutable after
// creation; Image is an opaque reference into the asset store, for which
// this report is the sole owner of record.
type Report struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id"`
	Owner       *ReportOwner `json:"owner,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Image       string       `json:"image,omitempty"`
	Status      ReportStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
