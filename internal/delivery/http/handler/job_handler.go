package handler

import (
	"time"

	"skill-connect/internal/delivery/http/dto"
	"skill-connect/internal/domain/geo"
	"skill-connect/internal/domain/matching"
	"skill-connect/internal/pkg/response"
	"skill-connect/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type JobHandler struct {
	engine *usecase.Engine
}

func NewJobHandler(engine *usecase.Engine) *JobHandler {
	return &JobHandler{engine: engine}
}

func (h *JobHandler) RegisterRoutes(r fiber.Router) {
	grp := r.Group("/jobs")
	grp.Put("/:job_id", h.Upsert)
	grp.Get("/:job_id", h.Get)
	grp.Post("/:job_id/cancel", h.Cancel)
}

func (h *JobHandler) Upsert(c fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid job id")
	}

	var req dto.UpsertJobRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	job := usecase.JobPosting{
		ID:             jobID,
		SkillID:        req.SkillID,
		MinProficiency: req.MinProficiency,
		Location:       geo.Location{Lat: req.Lat, Lon: req.Lon},
		BudgetMin:      req.BudgetMin,
		BudgetMax:      req.BudgetMax,
		Urgency:        matching.Urgency(req.Urgency),
		PostedAt:       req.PostedAt,
		Duration:       time.Duration(req.DurationMinutes) * time.Minute,
	}
	if err := h.engine.UpsertJob(c.Context(), job); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, job)
}

func (h *JobHandler) Get(c fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid job id")
	}
	job, err := h.engine.Job(jobID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, job)
}

func (h *JobHandler) Cancel(c fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid job id")
	}
	if err := h.engine.CancelJob(c.Context(), jobID); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}
