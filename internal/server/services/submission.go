package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkrivenko/marksync/internal/common"
	"github.com/dkrivenko/marksync/internal/dbx"
	"github.com/dkrivenko/marksync/internal/server/config"
	"github.com/dkrivenko/marksync/internal/server/models"
	"github.com/dkrivenko/marksync/internal/server/repositories/reference"
	"github.com/dkrivenko/marksync/internal/server/repositories/submissions"
	"github.com/dkrivenko/marksync/internal/server/storage"
)

// AssetPutter stores one blob and returns its public URL.
type AssetPutter interface {
	Put(ctx context.Context, filename string, data []byte) (string, error)
}

// GradePatch is one per-answer mark override plus the completion hint for the
// owning submission.
type GradePatch struct {
	SubmissionID int64
	FieldID      string
	Marks        float64
	Complete     bool
}

// SubmissionService handles the write path of the sync API: idempotent
// submission upsert, asset storage, the grading feed, and grade application.
type SubmissionService struct {
	db          *sql.DB
	submissions submissions.Repository
	reference   reference.Repository
	assets      AssetPutter
}

func NewSubmissionService(db *sql.DB, cfg *config.Config) *SubmissionService {
	return &SubmissionService{
		db:          db,
		submissions: submissions.NewPostgresRepository(db),
		reference:   reference.NewPostgresRepository(db),
		assets:      storage.NewAssetStore(cfg),
	}
}

// Submit validates and upserts one submission keyed by its correlation id,
// returning the server-assigned id and the stored answers (including any
// marks already applied on an earlier delivery of the same payload).
func (s *SubmissionService) Submit(ctx context.Context, sub *models.Submission) (*models.Submission, error) {
	if sub.CorrelationID == "" {
		return nil, fmt.Errorf("%w: missing correlation id", common.ErrInternal)
	}

	if _, err := s.reference.GetAssessment(ctx, sub.AssessmentID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("unknown assessment %d: %w", sub.AssessmentID, common.ErrNotFound)
		}
		return nil, err
	}

	return s.submissions.UpsertByCorrelationID(ctx, sub)
}

// StoreAsset uploads one attachment blob and returns its durable URL.
func (s *SubmissionService) StoreAsset(ctx context.Context, filename string, data []byte) (string, error) {
	return s.assets.Put(ctx, filename, data)
}

// GradingFeed returns the submissions available for offline review,
// including ungraded ones.
func (s *SubmissionService) GradingFeed(ctx context.Context) ([]*models.Submission, error) {
	return s.submissions.List(ctx)
}

// ApplyGrades applies a batch of mark overrides in one transaction.
// Re-applying the same batch is a no-op at the data level, so retried pushes
// after a lost response are safe.
func (s *SubmissionService) ApplyGrades(ctx context.Context, patches []GradePatch) error {
	if len(patches) == 0 {
		return nil
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := submissions.NewPostgresRepository(tx)
		for _, p := range patches {
			sub, err := repo.GetByID(ctx, p.SubmissionID)
			if err != nil {
				return fmt.Errorf("submission %d: %w", p.SubmissionID, err)
			}
			if sub.Answers == nil {
				sub.Answers = map[string]models.Answer{}
			}
			answer := sub.Answers[p.FieldID]
			marks := p.Marks
			answer.Marks = &marks
			answer.Complete = p.Complete
			sub.Answers[p.FieldID] = answer
			if p.Complete {
				sub.Complete = true
			}
			if err := repo.UpdateAnswers(ctx, sub.ID, sub.Answers, sub.Complete); err != nil {
				return fmt.Errorf("submission %d: %w", p.SubmissionID, err)
			}
		}
		return nil
	})
}

// Schools returns the school reference list.
func (s *SubmissionService) Schools(ctx context.Context) ([]models.School, error) {
	return s.reference.ListSchools(ctx)
}

// Assessments returns the assessment definitions.
func (s *SubmissionService) Assessments(ctx context.Context) ([]models.Assessment, error) {
	return s.reference.ListAssessments(ctx)
}
