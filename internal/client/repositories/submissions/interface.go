package submissions

import (
	"context"

	"github.com/dkrivenko/marksync/internal/client/models"
)

// Repository describes persistence for offline submissions. Implementations
// are backed by the local SQLite database. Rows are created by the
// form-completion flow, mutated only by the sync orchestrator, and never
// deleted.
type Repository interface {
	// Insert stores a new submission and returns its local id.
	Insert(ctx context.Context, s *models.OfflineSubmission) (int64, error)

	// GetByLocalID returns a single submission.
	GetByLocalID(ctx context.Context, localID int64) (*models.OfflineSubmission, error)

	// GetOutbox returns submissions not yet confirmed synced (pending,
	// syncing, or failed), oldest first. A row stranded at syncing by a
	// crash or an interrupted cycle re-enters the next cycle this way.
	GetOutbox(ctx context.Context) ([]*models.OfflineSubmission, error)

	// GetAll returns every submission, oldest first.
	GetAll(ctx context.Context) ([]*models.OfflineSubmission, error)

	// UpdateAnswers rewrites the stored payload (e.g. after asset URLs are
	// resolved into it).
	UpdateAnswers(ctx context.Context, localID int64, answers map[string]models.Answer) error

	// MarkSyncing flags the submission as owned by the running sync cycle.
	MarkSyncing(ctx context.Context, localID int64) error

	// MarkSynced records a successful sync: status, server id, and sync time
	// change together so the synced⟺server-id invariant cannot be observed
	// half-applied.
	MarkSynced(ctx context.Context, localID int64, serverID int64, syncedAt int64) error

	// MarkFailed records a failed sync attempt with the error message and
	// leaves the record intact for the next cycle.
	MarkFailed(ctx context.Context, localID int64, msg string) error
}
