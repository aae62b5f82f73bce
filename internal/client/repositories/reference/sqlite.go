package reference

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkrivenko/marksync/internal/client/models"
	"github.com/dkrivenko/marksync/internal/common"
	"github.com/dkrivenko/marksync/internal/dbx"
)

// SQLiteRepository implements Repository. Unlike the point-operation repos it
// holds *sql.DB directly because snapshot replacement needs its own
// transaction to be all-or-nothing.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReplaceSchools(ctx context.Context, schools []models.School) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM schools`); err != nil {
			return fmt.Errorf("failed to clear schools: %w", err)
		}
		for _, s := range schools {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schools (id, name, region) VALUES (?, ?, ?)`,
				s.ID, s.Name, s.Region); err != nil {
				return fmt.Errorf("failed to insert school: %w", err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) GetSchools(ctx context.Context) ([]models.School, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, region FROM schools ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select schools: %w", err)
	}
	defer rows.Close()

	var result []models.School
	for rows.Next() {
		var s models.School
		if err := rows.Scan(&s.ID, &s.Name, &s.Region); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) ReplaceAssessments(ctx context.Context, assessments []models.Assessment) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM assessments`); err != nil {
			return fmt.Errorf("failed to clear assessments: %w", err)
		}
		for _, a := range assessments {
			questions, err := json.Marshal(a.Questions)
			if err != nil {
				return fmt.Errorf("failed to encode questions: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO assessments (id, title, subject, questions) VALUES (?, ?, ?, ?)`,
				a.ID, a.Title, a.Subject, string(questions)); err != nil {
				return fmt.Errorf("failed to insert assessment: %w", err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) GetAssessments(ctx context.Context) ([]models.Assessment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, subject, questions FROM assessments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select assessments: %w", err)
	}
	defer rows.Close()

	var result []models.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetAssessment(ctx context.Context, id int64) (*models.Assessment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, subject, questions FROM assessments WHERE id=?`, id)
	a, err := scanAssessment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return a, err
}

func scanAssessment(scan func(dest ...any) error) (*models.Assessment, error) {
	var (
		a         models.Assessment
		questions string
	)
	if err := scan(&a.ID, &a.Title, &a.Subject, &questions); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(questions), &a.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	return &a, nil
}
