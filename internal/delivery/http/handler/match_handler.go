package handler

import (
	"strconv"

	"skill-connect/internal/delivery/http/dto"
	"skill-connect/internal/pkg/response"
	"skill-connect/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type MatchHandler struct {
	engine *usecase.Engine
}

func NewMatchHandler(engine *usecase.Engine) *MatchHandler {
	return &MatchHandler{engine: engine}
}

func (h *MatchHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/jobs/:job_id/candidates", h.WorkersForJob)
	r.Get("/workers/:worker_id/jobs", h.JobsForWorker)
}

func (h *MatchHandler) WorkersForJob(c fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid job id")
	}

	page, pageSize := paging(c)
	result, err := h.engine.MatchWorkersForJob(c.Context(), jobID, page, pageSize)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, toMatchPage(result))
}

func (h *MatchHandler) JobsForWorker(c fiber.Ctx) error {
	workerID, err := uuid.Parse(c.Params("worker_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid worker id")
	}

	page, pageSize := paging(c)
	result, err := h.engine.MatchJobsForWorker(c.Context(), workerID, page, pageSize)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, toMatchPage(result))
}

func paging(c fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "0"))
	return page, pageSize
}

func toMatchPage(p usecase.MatchPage) dto.MatchPageResponse {
	items := make([]dto.MatchItemResponse, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, dto.MatchItemResponse{
			ID:          it.ID,
			Score:       it.Score,
			DistanceKm:  it.DistanceKm,
			Explanation: it.Explanation,
		})
	}
	return dto.MatchPageResponse{Items: items, Page: p.Page, PageSize: p.PageSize, Candidates: p.Candidates}
}
