package grades

import (
	"context"
	"time"

	"github.com/dkrivenko/marksync/internal/client/models"
)

// Repository describes persistence for pending grade edits. The table is
// keyed by (owner, field): an upsert on that key supersedes any earlier
// unsynced value in place, it never appends.
type Repository interface {
	// Upsert stores a grade edit, replacing a previous one for the same
	// (owner, field) key and resetting it to unsynced.
	Upsert(ctx context.Context, g *models.PendingGrade) error

	// GetByOwner returns all grades for one owner, synced or not.
	GetByOwner(ctx context.Context, owner models.RecordRef) ([]*models.PendingGrade, error)

	// GetUnsynced returns all grades not yet confirmed pushed.
	GetUnsynced(ctx context.Context) ([]*models.PendingGrade, error)

	// MarkSynced flags one grade as pushed. updatedAt must be the value
	// captured when the grade was read; if a newer edit has superseded it
	// in the meantime, the row is left unsynced and no error is returned.
	MarkSynced(ctx context.Context, owner models.RecordRef, fieldID string, updatedAt time.Time) error

	// DeleteByOwner removes all grades for an owner (used once a locally
	// created submission has landed with the grades folded in).
	DeleteByOwner(ctx context.Context, owner models.RecordRef) error
}
