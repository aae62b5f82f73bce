package submissions

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

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `local_id, correlation_id, assessment_id, student_name, answers, status, created_at, synced_at, server_id, last_error`

func (r *SQLiteRepository) Insert(ctx context.Context, s *models.OfflineSubmission) (int64, error) {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return 0, fmt.Errorf("failed to encode answers: %w", err)
	}

	query := `INSERT INTO offline_submissions
			(correlation_id, assessment_id, student_name, answers, status, created_at, last_error)
			VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		s.CorrelationID, s.AssessmentID, s.StudentName, string(answers),
		string(s.Status), s.CreatedAt.Unix(), s.LastError)
	if err != nil {
		return 0, fmt.Errorf("failed to insert submission: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetByLocalID(ctx context.Context, localID int64) (*models.OfflineSubmission, error) {
	query := `SELECT ` + selectColumns + ` FROM offline_submissions WHERE local_id=?`
	row := r.db.QueryRowContext(ctx, query, localID)

	s, err := scanSubmission(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return s, nil
}

// GetOutbox returns every record not yet confirmed synced, including rows
// left at syncing by an interrupted cycle — resubmitting those is safe
// because the correlation id makes the server upsert idempotent.
func (r *SQLiteRepository) GetOutbox(ctx context.Context) ([]*models.OfflineSubmission, error) {
	query := `SELECT ` + selectColumns + ` FROM offline_submissions
			WHERE status IN (?, ?, ?) ORDER BY local_id`
	return r.list(ctx, query,
		string(models.SubmissionPending), string(models.SubmissionSyncing), string(models.SubmissionFailed))
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]*models.OfflineSubmission, error) {
	query := `SELECT ` + selectColumns + ` FROM offline_submissions ORDER BY local_id`
	return r.list(ctx, query)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*models.OfflineSubmission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select submissions: %w", err)
	}
	defer rows.Close()

	var result []*models.OfflineSubmission
	for rows.Next() {
		s, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanSubmission(scan func(dest ...any) error) (*models.OfflineSubmission, error) {
	var (
		s         models.OfflineSubmission
		answers   string
		status    string
		createdAt int64
		syncedAt  sql.NullInt64
		serverID  sql.NullInt64
	)
	if err := scan(&s.LocalID, &s.CorrelationID, &s.AssessmentID, &s.StudentName,
		&answers, &status, &createdAt, &syncedAt, &serverID, &s.LastError); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &s.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}
	s.Status = models.SubmissionStatus(status)
	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	if syncedAt.Valid {
		t := time.Unix(syncedAt.Int64, 0).UTC()
		s.SyncedAt = &t
	}
	if serverID.Valid {
		id := serverID.Int64
		s.ServerID = &id
	}
	return &s, nil
}

func (r *SQLiteRepository) UpdateAnswers(ctx context.Context, localID int64, answers map[string]models.Answer) error {
	encoded, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}
	return r.exec(ctx, `UPDATE offline_submissions SET answers=? WHERE local_id=?`, string(encoded), localID)
}

func (r *SQLiteRepository) MarkSyncing(ctx context.Context, localID int64) error {
	return r.exec(ctx, `UPDATE offline_submissions SET status=? WHERE local_id=?`,
		string(models.SubmissionSyncing), localID)
}

// MarkSynced sets status, server id, sync time, and clears the error in one
// statement, keeping the synced⟺server-id invariant atomic.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, localID int64, serverID int64, syncedAt int64) error {
	return r.exec(ctx, `UPDATE offline_submissions
			SET status=?, server_id=?, synced_at=?, last_error='' WHERE local_id=?`,
		string(models.SubmissionSynced), serverID, syncedAt, localID)
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, localID int64, msg string) error {
	return r.exec(ctx, `UPDATE offline_submissions SET status=?, last_error=? WHERE local_id=?`,
		string(models.SubmissionFailed), msg, localID)
}

func (r *SQLiteRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
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
