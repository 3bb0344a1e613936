package controller

import (
	"bufio"
	"context"

	"notely-be/internal/dto"
	"notely-be/internal/pkg/logger"
	"notely-be/internal/pkg/serverutils"
	"notely-be/internal/service"
	"notely-be/pkg/stream"

	"github.com/gofiber/fiber/v2"
)

type IAiController interface {
	RegisterRoutes(r fiber.Router)
	Transform(ctx *fiber.Ctx) error
	Regenerate(ctx *fiber.Ctx) error
	DetectSections(ctx *fiber.Ctx) error
	DetectChunkSections(ctx *fiber.Ctx) error
	Generate(ctx *fiber.Ctx) error
	Inline(ctx *fiber.Ctx) error
}

type aiController struct {
	aiService service.IAiService
	jwtSecret string
	logger    logger.ILogger
}

func NewAiController(aiService service.IAiService, jwtSecret string, log logger.ILogger) IAiController {
	return &aiController{aiService: aiService, jwtSecret: jwtSecret, logger: log}
}

// AI endpoints answer with the bare payload, not the envelope.
func (c *aiController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ai/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("/transform", c.Transform)
	h.Post("/regenerate", c.Regenerate)
	h.Post("/sections", c.DetectSections)
	h.Post("/sections/chunks", c.DetectChunkSections)
	h.Post("/generate", c.Generate)
	h.Post("/inline", c.Inline)
}

func (c *aiController) Transform(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	var req dto.TransformRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.aiService.Transform(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *aiController) Regenerate(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	var req dto.RegenerateRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.aiService.Regenerate(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *aiController) DetectSections(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	var req dto.DetectSectionsRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.aiService.DetectSections(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *aiController) DetectChunkSections(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	var req dto.ChunkSectionsRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.aiService.DetectChunkSections(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *aiController) Inline(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	var req dto.InlineRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.aiService.Inline(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

// Generate streams thinking, chunk and complete/error events over SSE.
// Credential problems are answered as plain HTTP errors before the stream
// opens. A write failure means the client left and cancels the provider call.
func (c *aiController) Generate(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	var req dto.GenerateRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	gen, err := c.aiService.PrepareGeneration(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// The fiber ctx is recycled once the handler returns; the writer runs
	// after that, so it gets its own context.
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx.UserContext()))
	prompt := req.Prompt

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		emit := func(e stream.Event) error {
			frame, err := stream.Encode(e)
			if err != nil {
				return err
			}
			if _, err := w.Write(frame); err != nil {
				cancel()
				return err
			}
			if err := w.Flush(); err != nil {
				cancel()
				return err
			}
			return nil
		}

		if err := gen.Run(streamCtx, prompt, emit); err != nil {
			c.logger.Warn("AiController", "Generation stream ended with error", map[string]interface{}{
				"user_id": userId, "error": err.Error(),
			})
		}
	})
	return nil
}
