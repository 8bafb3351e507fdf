package handler

import (
	"skill-connect/internal/pkg/response"
	"skill-connect/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type HealthHandler struct {
	engine *usecase.Engine
}

func NewHealthHandler(engine *usecase.Engine) *HealthHandler {
	return &HealthHandler{engine: engine}
}

func (h *HealthHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

type StatsHandler struct {
	engine *usecase.Engine
}

func NewStatsHandler(engine *usecase.Engine) *StatsHandler {
	return &StatsHandler{engine: engine}
}

func (h *StatsHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/stats", h.Stats)
}

func (h *StatsHandler) Stats(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, response.MessageOK, h.engine.Stats())
}
