package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkrivenko/marksync/internal/client/models"
	"github.com/dkrivenko/marksync/internal/client/repositories/grades"
	"github.com/dkrivenko/marksync/internal/client/repositories/mirror"
	"github.com/dkrivenko/marksync/internal/common"
)

// GradingService records mark edits while offline. An edit against a
// server-owned submission is also projected optimistically onto the local
// mirror so review screens show the new value before it is pushed.
type GradingService interface {
	// Grade upserts the pending mark for (owner, field). A repeated edit for
	// the same key supersedes the previous unsynced value in place.
	Grade(ctx context.Context, owner models.RecordRef, fieldID string, marks float64, complete bool) error

	// Review returns the mirrored submissions available for offline grading.
	Review(ctx context.Context) ([]models.SyncedSubmission, error)

	// Pending returns all not-yet-pushed grade edits.
	Pending(ctx context.Context) ([]*models.PendingGrade, error)
}

type gradingService struct {
	grades grades.Repository
	mirror mirror.Repository
	clock  func() time.Time
}

func NewGradingService(gradesRepo grades.Repository, mirrorRepo mirror.Repository, clock func() time.Time) GradingService {
	if clock == nil {
		clock = time.Now
	}
	return &gradingService{grades: gradesRepo, mirror: mirrorRepo, clock: clock}
}

func (s *gradingService) Grade(ctx context.Context, owner models.RecordRef, fieldID string, marks float64, complete bool) error {
	g := &models.PendingGrade{
		Owner:     owner,
		FieldID:   fieldID,
		Marks:     marks,
		Complete:  complete,
		UpdatedAt: s.clock().UTC(),
	}
	if err := s.grades.Upsert(ctx, g); err != nil {
		return fmt.Errorf("failed to record grade: %w", err)
	}

	if owner.Kind != models.RefRemote {
		return nil
	}

	// Optimistic projection: pending confirmation, the mirror shows the
	// local value.
	sub, err := s.mirror.Get(ctx, owner.ServerID)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if sub.Answers == nil {
		sub.Answers = map[string]models.Answer{}
	}
	a := sub.Answers[fieldID]
	a.Marks = &marks
	sub.Answers[fieldID] = a
	if complete {
		sub.Complete = true
	}
	return s.mirror.Put(ctx, sub)
}

func (s *gradingService) Review(ctx context.Context) ([]models.SyncedSubmission, error) {
	return s.mirror.GetAll(ctx)
}

func (s *gradingService) Pending(ctx context.Context) ([]*models.PendingGrade, error) {
	return s.grades.GetUnsynced(ctx)
}
