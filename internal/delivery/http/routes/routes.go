package routes

import (
	"skill-connect/internal/delivery/http/handler"
	"skill-connect/internal/domain/skill"
	"skill-connect/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	health *handler.HealthHandler
	stats  *handler.StatsHandler
	match  *handler.MatchHandler
	worker *handler.WorkerHandler
	job    *handler.JobHandler
	hold   *handler.HoldHandler
	skill  *handler.SkillHandler
}

func NewRegistry(engine *usecase.Engine, taxonomy *skill.Taxonomy) *Registry {
	return &Registry{
		health: handler.NewHealthHandler(engine),
		stats:  handler.NewStatsHandler(engine),
		match:  handler.NewMatchHandler(engine),
		worker: handler.NewWorkerHandler(engine),
		job:    handler.NewJobHandler(engine),
		hold:   handler.NewHoldHandler(engine),
		skill:  handler.NewSkillHandler(engine, taxonomy),
	}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.health.RegisterRoutes(app)

	v1 := app.Group("/api").Group("/v1")
	r.stats.RegisterRoutes(v1)
	r.match.RegisterRoutes(v1)
	r.worker.RegisterRoutes(v1)
	r.job.RegisterRoutes(v1)
	r.hold.RegisterRoutes(v1)
	r.skill.RegisterRoutes(v1)
}
