package grades

import (
	"context"
	"fmt"
	"time"

	"github.com/dkrivenko/marksync/internal/client/models"
	"github.com/dkrivenko/marksync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert relies on the unique (owner, field_id) index so the write path of a
// grading keystroke is a single indexed statement.
func (r *SQLiteRepository) Upsert(ctx context.Context, g *models.PendingGrade) error {
	query := `INSERT INTO pending_grades (owner, field_id, marks, complete, synced, updated_at)
			VALUES (?, ?, ?, ?, 0, ?)
			ON CONFLICT(owner, field_id) DO UPDATE SET
				marks = excluded.marks,
				complete = excluded.complete,
				synced = 0,
				updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		g.Owner.Key(), g.FieldID, g.Marks, boolToInt(g.Complete), g.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert grade: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByOwner(ctx context.Context, owner models.RecordRef) ([]*models.PendingGrade, error) {
	query := `SELECT owner, field_id, marks, complete, synced, updated_at
			FROM pending_grades WHERE owner=? ORDER BY field_id`
	return r.list(ctx, query, owner.Key())
}

func (r *SQLiteRepository) GetUnsynced(ctx context.Context) ([]*models.PendingGrade, error) {
	query := `SELECT owner, field_id, marks, complete, synced, updated_at
			FROM pending_grades WHERE synced=0 ORDER BY owner, field_id`
	return r.list(ctx, query)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*models.PendingGrade, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select grades: %w", err)
	}
	defer rows.Close()

	var result []*models.PendingGrade
	for rows.Next() {
		var (
			g         models.PendingGrade
			owner     string
			complete  int
			synced    int
			updatedAt int64
		)
		if err := rows.Scan(&owner, &g.FieldID, &g.Marks, &complete, &synced, &updatedAt); err != nil {
			return nil, err
		}
		ref, err := models.ParseRef(owner)
		if err != nil {
			return nil, err
		}
		g.Owner = ref
		g.Complete = complete != 0
		g.Synced = synced != 0
		g.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		result = append(result, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkSynced flags one grade as pushed, but only the exact value that was
// read: the update also matches on updated_at, so an edit upserted after the
// read (a newer value that was never pushed) is left unsynced. Zero affected
// rows means superseded or gone and is not an error.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, owner models.RecordRef, fieldID string, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pending_grades SET synced=1 WHERE owner=? AND field_id=? AND updated_at=?`,
		owner.Key(), fieldID, updatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to mark grade synced: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra > 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByOwner(ctx context.Context, owner models.RecordRef) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_grades WHERE owner=?`, owner.Key())
	if err != nil {
		return fmt.Errorf("failed to delete grades: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
