package assets

import (
	"context"
	"fmt"

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

func (r *SQLiteRepository) Insert(ctx context.Context, a *models.PendingAsset) (int64, error) {
	query := `INSERT INTO pending_assets (submission_id, field_id, data, filename, status, remote_url)
			VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		a.SubmissionID, a.FieldID, a.Data, a.Filename, string(a.Status), a.RemoteURL)
	if err != nil {
		return 0, fmt.Errorf("failed to insert asset: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetBySubmission(ctx context.Context, submissionID int64) ([]*models.PendingAsset, error) {
	query := `SELECT local_id, submission_id, field_id, data, filename, status, remote_url
			FROM pending_assets WHERE submission_id=? ORDER BY local_id`
	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to select assets: %w", err)
	}
	defer rows.Close()

	var result []*models.PendingAsset
	for rows.Next() {
		a := &models.PendingAsset{}
		var status string
		if err := rows.Scan(&a.LocalID, &a.SubmissionID, &a.FieldID, &a.Data,
			&a.Filename, &status, &a.RemoteURL); err != nil {
			return nil, err
		}
		a.Status = models.AssetStatus(status)
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) MarkUploading(ctx context.Context, localID int64) error {
	return r.setStatus(ctx, localID, models.AssetUploading, "")
}

func (r *SQLiteRepository) MarkUploaded(ctx context.Context, localID int64, remoteURL string) error {
	return r.setStatus(ctx, localID, models.AssetUploaded, remoteURL)
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, localID int64) error {
	return r.setStatus(ctx, localID, models.AssetFailed, "")
}

func (r *SQLiteRepository) setStatus(ctx context.Context, localID int64, status models.AssetStatus, url string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pending_assets SET status=?, remote_url=? WHERE local_id=?`,
		string(status), url, localID)
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}
