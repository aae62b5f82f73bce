package submissions

import (
	"context"

	"github.com/dkrivenko/marksync/internal/server/models"
)

// Repository persists server-owned submissions. Upsert keys on the
// client-generated correlation id, so retried posts after a lost response
// land on the same row.
type Repository interface {
	UpsertByCorrelationID(ctx context.Context, sub *models.Submission) (*models.Submission, error)
	GetByID(ctx context.Context, id int64) (*models.Submission, error)
	List(ctx context.Context) ([]*models.Submission, error)
	UpdateAnswers(ctx context.Context, id int64, answers map[string]models.Answer, complete bool) error
}
