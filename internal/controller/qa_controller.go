package controller

import (
	"github.com/gofiber/fiber/v2"

	"ai-docqa-be/internal/dto"
	"ai-docqa-be/internal/pkg/serverutils"
	"ai-docqa-be/internal/service"
)

type IQAController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	ListCheckpoints(ctx *fiber.Ctx) error
	ReplayCheckpoint(ctx *fiber.Ctx) error
	ResumeCheckpoint(ctx *fiber.Ctx) error
	ClearCheckpoints(ctx *fiber.Ctx) error
	ResetSession(ctx *fiber.Ctx) error
}

type qaController struct {
	service service.IQAService
}

func NewQAController(service service.IQAService) IQAController {
	return &qaController{service: service}
}

func (c *qaController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/qa/v1")
	h.Post("/ask", c.Ask)
	h.Get("/threads/:thread_id/checkpoints", c.ListCheckpoints)
	h.Get("/threads/:thread_id/replay", c.ReplayCheckpoint)
	h.Post("/threads/:thread_id/resume", c.ResumeCheckpoint)
	h.Delete("/threads/:thread_id/checkpoints", c.ClearCheckpoints)
	h.Delete("/sessions/:session_id", c.ResetSession)
}

func (c *qaController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.service.AnswerQuestion(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Question answered", res))
}

func (c *qaController) ListCheckpoints(ctx *fiber.Ctx) error {
	threadID := ctx.Params("thread_id")

	res, err := c.service.ListCheckpoints(ctx.Context(), threadID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Thread checkpoints", res))
}

func (c *qaController) ReplayCheckpoint(ctx *fiber.Ctx) error {
	threadID := ctx.Params("thread_id")
	checkpointID := ctx.Query("checkpoint_id")

	res, err := c.service.ReplayCheckpoint(ctx.Context(), threadID, checkpointID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Execution trace", res))
}

func (c *qaController) ResumeCheckpoint(ctx *fiber.Ctx) error {
	threadID := ctx.Params("thread_id")

	var req dto.ResumeRequest
	if err := ctx.BodyParser(&req); err != nil && len(ctx.Body()) > 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	res, err := c.service.ResumeCheckpoint(ctx.Context(), threadID, req.CheckpointID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Workflow resumed", res))
}

func (c *qaController) ClearCheckpoints(ctx *fiber.Ctx) error {
	threadID := ctx.Params("thread_id")

	deleted, err := c.service.ClearCheckpoints(ctx.Context(), threadID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Checkpoints cleared", dto.ClearCheckpointsResponse{Deleted: deleted}))
}

func (c *qaController) ResetSession(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")

	if err := c.service.ResetSession(ctx.Context(), sessionID); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Session reset", nil))
}
