package models

import "time"

// Answer is one field's value within a submission, including any grading
// applied on the server side.
type Answer struct {
	Value    string   `json:"value,omitempty"`
	FileURL  string   `json:"file_url,omitempty"`
	Marks    *float64 `json:"marks,omitempty"`
	Complete bool     `json:"complete,omitempty"`
}

// Submission is the server-owned record of one submitted form. CorrelationID
// is the client-generated idempotency key: posting the same payload twice
// lands on the same row.
type Submission struct {
	ID            int64
	CorrelationID string
	UserID        string
	AssessmentID  int64
	StudentName   string
	Answers       map[string]Answer
	Complete      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
