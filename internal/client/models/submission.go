package models

import "time"

// SubmissionStatus is the sync lifecycle of a locally created submission.
type SubmissionStatus string

const (
	SubmissionPending SubmissionStatus = "pending"
	SubmissionSyncing SubmissionStatus = "syncing"
	SubmissionSynced  SubmissionStatus = "synced"
	SubmissionFailed  SubmissionStatus = "failed"
)

// Answer is the per-question payload of a submission. FileURL is filled by
// the asset upload pipeline before the submission is posted; Marks carries a
// grade override or a server-computed mark.
type Answer struct {
	Value    string   `json:"value,omitempty"`
	FileURL  string   `json:"file_url,omitempty"`
	Marks    *float64 `json:"marks,omitempty"`
	Complete bool     `json:"complete,omitempty"`
}

// OfflineSubmission is a submission created while offline and destined for
// the server. Rows are never deleted; they remain as an audit trail.
//
// Invariant: Status == SubmissionSynced exactly when ServerID is non-nil.
type OfflineSubmission struct {
	LocalID       int64
	CorrelationID string // immutable for the record's entire lifetime
	AssessmentID  int64
	StudentName   string
	Answers       map[string]Answer // keyed by question id
	Status        SubmissionStatus
	CreatedAt     time.Time
	SyncedAt      *time.Time
	ServerID      *int64
	LastError     string
}
