// Package submissions provides the PostgreSQL-backed repository for
// server-side submission persistence and grading queries.
package submissions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkrivenko/marksync/internal/common"
	"github.com/dkrivenko/marksync/internal/dbx"
	"github.com/dkrivenko/marksync/internal/server/models"
)

// PostgresRepository implements submission storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// UpsertByCorrelationID inserts the submission or, when its correlation id is
// already known, replaces the stored payload. The server-assigned id is
// stable across retries. A conflicting row belonging to another user is left
// untouched and the call fails with ErrNotFound.
func (r *PostgresRepository) UpsertByCorrelationID(ctx context.Context, sub *models.Submission) (*models.Submission, error) {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}

	query := `
		INSERT INTO submissions (correlation_id, user_id, assessment_id, student_name, answers, complete)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (correlation_id)
		DO UPDATE SET
			student_name = EXCLUDED.student_name,
			answers = EXCLUDED.answers,
			complete = EXCLUDED.complete,
			updated_at = now()
			WHERE submissions.user_id = EXCLUDED.user_id
		RETURNING id, created_at, updated_at;
	`

	err = r.db.QueryRowContext(ctx, query,
		sub.CorrelationID, sub.UserID, sub.AssessmentID, sub.StudentName, answers, sub.Complete).
		Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return sub, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Submission, error) {
	query := `
		SELECT id, correlation_id, user_id, assessment_id, student_name, answers, complete, created_at, updated_at
		FROM submissions
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// List returns every submission, oldest first. The grading feed deliberately
// includes not-yet-complete submissions so ungraded work is reviewable.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Submission, error) {
	query := `
		SELECT id, correlation_id, user_id, assessment_id, student_name, answers, complete, created_at, updated_at
		FROM submissions
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select submissions: %w", err)
	}
	defer rows.Close()

	var result []*models.Submission
	for rows.Next() {
		item, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateAnswers replaces the answers payload and completion state of one
// submission. Used by grading, which re-applies safely.
func (r *PostgresRepository) UpdateAnswers(ctx context.Context, id int64, answers map[string]models.Answer, complete bool) error {
	encoded, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	query := `UPDATE submissions SET answers = $1, complete = $2, updated_at = now() WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, encoded, complete, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scanRow(row scannable) (*models.Submission, error) {
	sub := &models.Submission{}
	var answers []byte
	err := row.Scan(&sub.ID, &sub.CorrelationID, &sub.UserID, &sub.AssessmentID,
		&sub.StudentName, &answers, &sub.Complete, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &sub.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}
	return sub, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Submission, error) {
	sub, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return sub, nil
}
