package reference

import (
	"context"

	"github.com/dkrivenko/marksync/internal/server/models"
)

type Repository interface {
	ListSchools(ctx context.Context) ([]models.School, error)
	ListAssessments(ctx context.Context) ([]models.Assessment, error)
	GetAssessment(ctx context.Context, id int64) (*models.Assessment, error)
}
