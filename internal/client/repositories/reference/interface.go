package reference

import (
	"context"

	"github.com/dkrivenko/marksync/internal/client/models"
)

// Repository describes persistence for read-mostly reference snapshots
// (schools and assessment definitions). Snapshots are replaced wholesale;
// replacement is atomic, so readers never observe a partially refreshed set.
type Repository interface {
	ReplaceSchools(ctx context.Context, schools []models.School) error
	GetSchools(ctx context.Context) ([]models.School, error)

	ReplaceAssessments(ctx context.Context, assessments []models.Assessment) error
	GetAssessments(ctx context.Context) ([]models.Assessment, error)
	GetAssessment(ctx context.Context, id int64) (*models.Assessment, error)
}
