package controller

import (
	"campus-qa-be/internal/dto"
	"campus-qa-be/internal/pkg/serverutils"
	"campus-qa-be/pkg/rag"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type IQueryController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
}

type queryController struct {
	orchestrator *rag.Orchestrator
	validate     *validator.Validate
}

func NewQueryController(orchestrator *rag.Orchestrator) IQueryController {
	return &queryController{
		orchestrator: orchestrator,
		validate:     validator.New(),
	}
}

func (c *queryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/v1")
	h.Post("/ask", c.Ask)
}

func (c *queryController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "invalid request body"))
	}
	if err := c.validate.Struct(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	answer := c.orchestrator.Answer(ctx.UserContext(), req.Query, req.SessionID)

	return ctx.JSON(serverutils.SuccessResponse(dto.AskResponse{
		Answer:    answer.Answer,
		SessionID: req.SessionID,
		Evidence:  answer.Evidence,
	}))
}
