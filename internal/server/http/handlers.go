package http

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/dkrivenko/marksync/internal/common"
	"github.com/dkrivenko/marksync/internal/server/models"
	"github.com/dkrivenko/marksync/internal/server/services"
)

// UserAPI is the slice of the user service the handlers need.
type UserAPI interface {
	Login(ctx context.Context, userName, password string) (*services.LoginResult, error)
}

// SubmissionAPI is the slice of the submission service the handlers need.
type SubmissionAPI interface {
	Submit(ctx context.Context, sub *models.Submission) (*models.Submission, error)
	StoreAsset(ctx context.Context, filename string, data []byte) (string, error)
	GradingFeed(ctx context.Context) ([]*models.Submission, error)
	ApplyGrades(ctx context.Context, patches []services.GradePatch) error
	Schools(ctx context.Context) ([]models.School, error)
	Assessments(ctx context.Context) ([]models.Assessment, error)
}

type Handlers struct {
	users       UserAPI
	submissions SubmissionAPI
	validate    *validator.Validate
}

func NewHandlers(users UserAPI, submissions SubmissionAPI) *Handlers {
	return &Handlers{
		users:       users,
		submissions: submissions,
		validate:    validator.New(),
	}
}

func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

func (h *Handlers) Login(c *fiber.Ctx) error {
	req := &loginRequest{}
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	result, err := h.users.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong username or password")
		}
		return fiber.ErrInternalServerError
	}

	return c.JSON(loginResponse{Token: result.Token, Role: result.Role, Salt: result.Salt})
}

func (h *Handlers) Submit(c *fiber.Ctx) error {
	req := &submissionRequest{}
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	sub := &models.Submission{
		CorrelationID: req.CorrelationID,
		UserID:        c.Locals("user_id").(string),
		AssessmentID:  req.AssessmentID,
		StudentName:   req.StudentName,
		Answers:       req.Answers,
		Complete:      req.Complete,
	}

	stored, err := h.submissions.Submit(c.UserContext(), sub)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		return fiber.ErrInternalServerError
	}

	return c.JSON(submissionResponse{ID: stored.ID, Answers: stored.Answers})
}

func (h *Handlers) Upload(c *fiber.Ctx) error {
	filename := c.Get("X-Filename")
	if filename == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing X-Filename header")
	}
	data := c.Body()
	if len(data) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "empty body")
	}

	url, err := h.submissions.StoreAsset(c.UserContext(), filename, data)
	if err != nil {
		return fiber.ErrInternalServerError
	}

	return c.JSON(uploadResponse{URL: url})
}

func (h *Handlers) Schools(c *fiber.Ctx) error {
	schools, err := h.submissions.Schools(c.UserContext())
	if err != nil {
		return fiber.ErrInternalServerError
	}
	if schools == nil {
		schools = []models.School{}
	}
	return c.JSON(schools)
}

func (h *Handlers) Assessments(c *fiber.Ctx) error {
	assessments, err := h.submissions.Assessments(c.UserContext())
	if err != nil {
		return fiber.ErrInternalServerError
	}
	if assessments == nil {
		assessments = []models.Assessment{}
	}
	return c.JSON(assessments)
}

func (h *Handlers) Grading(c *fiber.Ctx) error {
	feed, err := h.submissions.GradingFeed(c.UserContext())
	if err != nil {
		return fiber.ErrInternalServerError
	}

	items := make([]gradingItem, 0, len(feed))
	for _, sub := range feed {
		items = append(items, gradingItem{
			ID:           sub.ID,
			AssessmentID: sub.AssessmentID,
			StudentName:  sub.StudentName,
			Answers:      sub.Answers,
			Complete:     sub.Complete,
		})
	}
	return c.JSON(items)
}

func (h *Handlers) ApplyGrades(c *fiber.Ctx) error {
	var batch []gradePush
	if err := c.BodyParser(&batch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	patches := make([]services.GradePatch, 0, len(batch))
	for _, g := range batch {
		if err := h.validate.Struct(&g); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		patches = append(patches, services.GradePatch{
			SubmissionID: g.SubmissionID,
			FieldID:      g.FieldID,
			Marks:        g.Marks,
			Complete:     g.Complete,
		})
	}

	if err := h.submissions.ApplyGrades(c.UserContext(), patches); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		return fiber.ErrInternalServerError
	}

	return c.SendStatus(fiber.StatusNoContent)
}
