package http

import "github.com/dkrivenko/marksync/internal/server/models"

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Salt  []byte `json:"salt"`
}

type submissionRequest struct {
	CorrelationID string                   `json:"correlation_id" validate:"required,uuid"`
	AssessmentID  int64                    `json:"assessment_id" validate:"required"`
	StudentName   string                   `json:"student_name" validate:"required"`
	Answers       map[string]models.Answer `json:"answers"`
	Complete      bool                     `json:"complete"`
}

type submissionResponse struct {
	ID      int64                    `json:"id"`
	Answers map[string]models.Answer `json:"answers"`
}

type uploadResponse struct {
	URL string `json:"url"`
}

type gradePush struct {
	SubmissionID int64   `json:"submission_id" validate:"required"`
	FieldID      string  `json:"field_id" validate:"required"`
	Marks        float64 `json:"marks" validate:"gte=0"`
	Complete     bool    `json:"complete"`
}

type gradingItem struct {
	ID           int64                    `json:"id"`
	AssessmentID int64                    `json:"assessment_id"`
	StudentName  string                   `json:"student_name"`
	Answers      map[string]models.Answer `json:"answers"`
	Complete     bool                     `json:"complete"`
}

type errorResponse struct {
	Error string `json:"error"`
}
