package handler

import (
	"skill-connect/internal/delivery/http/dto"
	"skill-connect/internal/domain/availability"
	"skill-connect/internal/pkg/response"
	"skill-connect/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type HoldHandler struct {
	engine *usecase.Engine
}

func NewHoldHandler(engine *usecase.Engine) *HoldHandler {
	return &HoldHandler{engine: engine}
}

func (h *HoldHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/jobs/:job_id/hold", h.Place)
	r.Post("/jobs/:job_id/complete", h.Complete)
	r.Post("/holds/confirm", h.Confirm)
	r.Post("/holds/release", h.Release)
}

func (h *HoldHandler) Place(c fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid job id")
	}

	var req dto.HoldRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	workerID, err := uuid.Parse(req.WorkerID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid worker id")
	}

	hold, err := h.engine.CommitMatch(c.Context(), jobID, workerID,
		availability.Span{Start: req.Start, End: req.End})
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.HoldResponse{
		HoldID:    hold.ID,
		JobID:     hold.JobID,
		WorkerID:  hold.WorkerID,
		Start:     hold.Span.Start,
		End:       hold.Span.End,
		ExpiresAt: hold.ExpiresAt,
	})
}

func (h *HoldHandler) Confirm(c fiber.Ctx) error {
	hold, err := parseHoldAction(c)
	if err != nil {
		return err
	}
	booked, err := h.engine.ConfirmMatch(c.Context(), hold)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.WindowResponse{
		ID:    booked.ID,
		Start: booked.Span.Start,
		End:   booked.Span.End,
		State: string(booked.State),
	})
}

func (h *HoldHandler) Release(c fiber.Ctx) error {
	hold, err := parseHoldAction(c)
	if err != nil {
		return err
	}
	h.engine.RejectMatch(c.Context(), hold)
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func (h *HoldHandler) Complete(c fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid job id")
	}

	var req dto.CompleteJobRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	workerID, err := uuid.Parse(req.WorkerID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid worker id")
	}

	err = h.engine.CompleteJob(c.Context(), jobID, workerID,
		availability.Span{Start: req.Start, End: req.End}, req.Rating)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func parseHoldAction(c fiber.Ctx) (availability.Hold, error) {
	var req dto.HoldActionRequest
	if err := c.Bind().Body(&req); err != nil {
		return availability.Hold{}, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	holdID, err := uuid.Parse(req.HoldID)
	if err != nil {
		return availability.Hold{}, fiber.NewError(fiber.StatusBadRequest, "invalid hold id")
	}
	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		return availability.Hold{}, fiber.NewError(fiber.StatusBadRequest, "invalid job id")
	}
	workerID, err := uuid.Parse(req.WorkerID)
	if err != nil {
		return availability.Hold{}, fiber.NewError(fiber.StatusBadRequest, "invalid worker id")
	}
	return availability.Hold{
		ID:       holdID,
		JobID:    jobID,
		WorkerID: workerID,
		Span:     availability.Span{Start: req.Start, End: req.End},
	}, nil
}
