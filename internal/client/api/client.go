// Package api is the transport client for the remote sync server. It speaks
// the plain-HTTP contract the server honors: idempotent submission upsert by
// correlation id, one-asset-per-call uploads, full-replacement snapshot
// reads, an idempotent grade batch, and a side-effect-free health probe.
package api

import (
	"context"

	"github.com/dkrivenko/marksync/internal/client/models"
)

// LoginResult carries what the client needs to cache for offline use.
type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Salt  []byte `json:"salt"`
}

// SubmissionRequest is the full payload of one offline submission. The
// correlation id is the sole key the server uses to decide create-vs-update,
// so retried posts after a lost response land on the same row.
type SubmissionRequest struct {
	CorrelationID string                   `json:"correlation_id"`
	AssessmentID  int64                    `json:"assessment_id"`
	StudentName   string                   `json:"student_name"`
	Answers       map[string]models.Answer `json:"answers"`
	Complete      bool                     `json:"complete"`
}

// SubmissionResult is the server's reconciliation answer: the server-assigned
// id plus any server-computed per-field values (e.g. auto-graded marks).
type SubmissionResult struct {
	ID      int64                    `json:"id"`
	Answers map[string]models.Answer `json:"answers"`
}

// GradePush is one per-answer mark override plus the completion hint for the
// owning submission. Re-applying the same marks on the server is a no-op.
type GradePush struct {
	SubmissionID int64   `json:"submission_id"`
	FieldID      string  `json:"field_id"`
	Marks        float64 `json:"marks"`
	Complete     bool    `json:"complete"`
}

// Client is the remote API surface the sync engine depends on. Implementations
// must map transport failures to common.ErrUnavailable and auth failures to
// common.ErrUnauthorized so callers can sort transient from fatal.
type Client interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Health(ctx context.Context) error
	SubmitSubmission(ctx context.Context, req *SubmissionRequest) (*SubmissionResult, error)
	UploadAsset(ctx context.Context, filename string, data []byte) (string, error)
	FetchSchools(ctx context.Context) ([]models.School, error)
	FetchAssessments(ctx context.Context) ([]models.Assessment, error)
	FetchGrading(ctx context.Context) ([]models.SyncedSubmission, error)
	PushGrades(ctx context.Context, grades []GradePush) error
	SetToken(token string)
	Close() error
}
