package handler

import (
	"skill-connect/internal/delivery/http/dto"
	"skill-connect/internal/domain/skill"
	"skill-connect/internal/pkg/response"
	"skill-connect/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type SkillHandler struct {
	engine   *usecase.Engine
	taxonomy *skill.Taxonomy
}

func NewSkillHandler(engine *usecase.Engine, taxonomy *skill.Taxonomy) *SkillHandler {
	return &SkillHandler{engine: engine, taxonomy: taxonomy}
}

func (h *SkillHandler) RegisterRoutes(r fiber.Router) {
	grp := r.Group("/skills")
	grp.Post("/", h.Add)
	grp.Get("/resolve", h.Resolve)
}

// Add publishes a new taxonomy node. Administrative operation.
func (h *SkillHandler) Add(c fiber.Ctx) error {
	var req dto.AddSkillRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	err := h.engine.AddSkill(skill.Skill{
		ID:       req.ID,
		Name:     req.Name,
		Parent:   req.Parent,
		Synonyms: req.Synonyms,
	})
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusCreated, "created", nil)
}

// Resolve normalizes free text to a canonical skill, surfacing how match
// queries will interpret a claim before it is submitted.
func (h *SkillHandler) Resolve(c fiber.Ctx) error {
	resolved, err := h.taxonomy.Resolve(c.Query("q"))
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, resolved)
}
