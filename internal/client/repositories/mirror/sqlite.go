package mirror

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkrivenko/marksync/internal/client/models"
	"github.com/dkrivenko/marksync/internal/common"
	"github.com/dkrivenko/marksync/internal/dbx"
)

// SQLiteRepository implements Repository. It holds *sql.DB so snapshot
// replacement can run in its own transaction.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Replace(ctx context.Context, subs []models.SyncedSubmission) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM synced_submissions`); err != nil {
			return fmt.Errorf("failed to clear mirror: %w", err)
		}
		for i := range subs {
			if err := upsert(ctx, tx, &subs[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Put(ctx context.Context, sub *models.SyncedSubmission) error {
	return upsert(ctx, r.db, sub)
}

func upsert(ctx context.Context, db dbx.DBTX, sub *models.SyncedSubmission) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}
	query := `INSERT INTO synced_submissions (server_id, assessment_id, student_name, answers, complete, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(server_id) DO UPDATE SET
				assessment_id = excluded.assessment_id,
				student_name = excluded.student_name,
				answers = excluded.answers,
				complete = excluded.complete,
				fetched_at = excluded.fetched_at`
	_, err = db.ExecContext(ctx, query,
		sub.ServerID, sub.AssessmentID, sub.StudentName, string(answers),
		boolToInt(sub.Complete), sub.FetchedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert mirror row: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, serverID int64) (*models.SyncedSubmission, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT server_id, assessment_id, student_name, answers, complete, fetched_at
		 FROM synced_submissions WHERE server_id=?`, serverID)
	s, err := scanRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return s, err
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.SyncedSubmission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT server_id, assessment_id, student_name, answers, complete, fetched_at
		 FROM synced_submissions ORDER BY server_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select mirror rows: %w", err)
	}
	defer rows.Close()

	var result []models.SyncedSubmission
	for rows.Next() {
		s, err := scanRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanRow(scan func(dest ...any) error) (*models.SyncedSubmission, error) {
	var (
		s         models.SyncedSubmission
		answers   string
		complete  int
		fetchedAt sql.NullInt64
	)
	if err := scan(&s.ServerID, &s.AssessmentID, &s.StudentName, &answers, &complete, &fetchedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &s.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}
	s.Complete = complete != 0
	if fetchedAt.Valid {
		s.FetchedAt = time.Unix(fetchedAt.Int64, 0).UTC()
	}
	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
