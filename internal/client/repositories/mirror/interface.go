package mirror

import (
	"context"

	"github.com/dkrivenko/marksync/internal/client/models"
)

// Repository describes the read cache of server-owned submissions fetched
// for offline review and grading. Replace swaps the whole snapshot
// atomically; Put projects a local edit onto a single row.
type Repository interface {
	Replace(ctx context.Context, subs []models.SyncedSubmission) error
	Put(ctx context.Context, sub *models.SyncedSubmission) error
	Get(ctx context.Context, serverID int64) (*models.SyncedSubmission, error)
	GetAll(ctx context.Context) ([]models.SyncedSubmission, error)
}
