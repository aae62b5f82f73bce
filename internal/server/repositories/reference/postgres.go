// Package reference serves the read-only school and assessment lists.
package reference

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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListSchools(ctx context.Context) ([]models.School, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, region FROM schools ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select schools: %w", err)
	}
	defer rows.Close()

	var result []models.School
	for rows.Next() {
		var item models.School
		if err := rows.Scan(&item.ID, &item.Name, &item.Region); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ListAssessments(ctx context.Context) ([]models.Assessment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, subject, questions FROM assessments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select assessments: %w", err)
	}
	defer rows.Close()

	var result []models.Assessment
	for rows.Next() {
		item, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetAssessment(ctx context.Context, id int64) (*models.Assessment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, title, subject, questions FROM assessments WHERE id = $1`, id)
	item, err := scanAssessment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAssessment(row scannable) (*models.Assessment, error) {
	item := &models.Assessment{}
	var questions []byte
	if err := row.Scan(&item.ID, &item.Title, &item.Subject, &questions); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &item.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	return item, nil
}
