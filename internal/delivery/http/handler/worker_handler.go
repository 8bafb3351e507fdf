package handler

import (
	"skill-connect/internal/delivery/http/dto"
	"skill-connect/internal/domain/availability"
	"skill-connect/internal/domain/geo"
	"skill-connect/internal/pkg/response"
	"skill-connect/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type WorkerHandler struct {
	engine *usecase.Engine
}

func NewWorkerHandler(engine *usecase.Engine) *WorkerHandler {
	return &WorkerHandler{engine: engine}
}

func (h *WorkerHandler) RegisterRoutes(r fiber.Router) {
	grp := r.Group("/workers")
	grp.Get("/", h.List)
	grp.Put("/:worker_id", h.Upsert)
	grp.Delete("/:worker_id", h.Remove)
	grp.Get("/:worker_id/windows", h.Windows)
}

func (h *WorkerHandler) List(c fiber.Ctx) error {
	activeOnly := c.Query("active", "true") != "false"
	entries, err := h.engine.ListWorkers(activeOnly, c.Query("skill"))
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, entries)
}

func (h *WorkerHandler) Upsert(c fiber.Ctx) error {
	workerID, err := uuid.Parse(c.Params("worker_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid worker id")
	}

	var req dto.UpsertWorkerRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	skills := make([]usecase.ClaimedSkill, 0, len(req.Skills))
	for _, s := range req.Skills {
		skills = append(skills, usecase.ClaimedSkill{SkillID: s.SkillID, Proficiency: s.Proficiency})
	}
	windows := make([]availability.Span, 0, len(req.Windows))
	for _, w := range req.Windows {
		windows = append(windows, availability.Span{Start: w.Start, End: w.End})
	}

	profile := usecase.WorkerProfile{
		ID:              workerID,
		Skills:          skills,
		Location:        geo.Location{Lat: req.Lat, Lon: req.Lon},
		ServiceRadiusKm: req.ServiceRadiusKm,
		Active:          req.Active,
	}
	if err := h.engine.UpsertWorker(c.Context(), profile, windows); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, profile)
}

func (h *WorkerHandler) Remove(c fiber.Ctx) error {
	workerID, err := uuid.Parse(c.Params("worker_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid worker id")
	}
	if err := h.engine.RemoveWorker(c.Context(), workerID); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func (h *WorkerHandler) Windows(c fiber.Ctx) error {
	workerID, err := uuid.Parse(c.Params("worker_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid worker id")
	}
	windows := h.engine.Ledger().Windows(workerID)
	out := make([]dto.WindowResponse, 0, len(windows))
	for _, w := range windows {
		out = append(out, dto.WindowResponse{
			ID:    w.ID,
			Start: w.Span.Start,
			End:   w.Span.End,
			State: string(w.State),
		})
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}
