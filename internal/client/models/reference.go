package models

import "time"

// School is read-only reference data pulled from the server and replaced
// wholesale on refresh.
type School struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
}

// Question is one field of an assessment form.
type Question struct {
	ID       string  `json:"id"`
	Prompt   string  `json:"prompt"`
	MaxMarks float64 `json:"max_marks"`
}

// Assessment is a form definition; submissions reference it by id.
type Assessment struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Subject   string     `json:"subject,omitempty"`
	Questions []Question `json:"questions"`
}

// SyncedSubmission mirrors a submission the server already owns, fetched for
// offline review and grading. Local mark edits are projected onto it
// optimistically until confirmed pushed.
type SyncedSubmission struct {
	ServerID     int64             `json:"id"`
	AssessmentID int64             `json:"assessment_id"`
	StudentName  string            `json:"student_name"`
	Answers      map[string]Answer `json:"answers"`
	Complete     bool              `json:"complete"`
	FetchedAt    time.Time         `json:"-"`
}
