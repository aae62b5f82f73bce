package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dkrivenko/marksync/internal/client/models"
	"github.com/dkrivenko/marksync/internal/client/repositories/assets"
	"github.com/dkrivenko/marksync/internal/client/repositories/submissions"
	"github.com/google/uuid"
)

// Attachment is a binary answer captured by the form-completion flow.
type Attachment struct {
	FieldID  string
	Filename string
	Data     []byte
}

// SubmissionService is the form-completion flow's entry point: it records a
// finished form and its attachments locally, to be synced later. It never
// talks to the network.
type SubmissionService interface {
	// Create stores a new offline submission with a freshly generated
	// correlation id and returns it.
	Create(ctx context.Context, assessmentID int64, studentName string,
		answers map[string]models.Answer, attachments []Attachment) (*models.OfflineSubmission, error)

	// List returns every locally known submission, oldest first.
	List(ctx context.Context) ([]*models.OfflineSubmission, error)

	// Outbox returns the submissions not yet confirmed synced.
	Outbox(ctx context.Context) ([]*models.OfflineSubmission, error)
}

type submissionService struct {
	submissions submissions.Repository
	assets      assets.Repository
	clock       func() time.Time
}

func NewSubmissionService(subs submissions.Repository, assetsRepo assets.Repository, clock func() time.Time) SubmissionService {
	if clock == nil {
		clock = time.Now
	}
	return &submissionService{submissions: subs, assets: assetsRepo, clock: clock}
}

func (s *submissionService) Create(ctx context.Context, assessmentID int64, studentName string,
	answers map[string]models.Answer, attachments []Attachment) (*models.OfflineSubmission, error) {

	if answers == nil {
		answers = map[string]models.Answer{}
	}
	sub := &models.OfflineSubmission{
		CorrelationID: uuid.NewString(),
		AssessmentID:  assessmentID,
		StudentName:   studentName,
		Answers:       answers,
		Status:        models.SubmissionPending,
		CreatedAt:     s.clock().UTC(),
	}

	localID, err := s.submissions.Insert(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	sub.LocalID = localID

	for _, att := range attachments {
		asset := &models.PendingAsset{
			SubmissionID: localID,
			FieldID:      att.FieldID,
			Data:         att.Data,
			Filename:     att.Filename,
			Status:       models.AssetPending,
		}
		if _, err := s.assets.Insert(ctx, asset); err != nil {
			return nil, fmt.Errorf("saving attachment error: %w", err)
		}
	}

	return sub, nil
}

func (s *submissionService) List(ctx context.Context) ([]*models.OfflineSubmission, error) {
	return s.submissions.GetAll(ctx)
}

func (s *submissionService) Outbox(ctx context.Context) ([]*models.OfflineSubmission, error) {
	return s.submissions.GetOutbox(ctx)
}
