package models

// School is one row of the read-only reference list served to clients.
type School struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
}

// Question is one field of an assessment form definition.
type Question struct {
	ID       string  `json:"id"`
	Prompt   string  `json:"prompt"`
	MaxMarks float64 `json:"max_marks"`
}

// Assessment is a form definition clients fill in.
type Assessment struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Subject   string     `json:"subject,omitempty"`
	Questions []Question `json:"questions"`
}
