package controller

import (
	"notely-be/internal/dto"
	"notely-be/internal/pkg/serverutils"
	"notely-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
	SelectLanguage(ctx *fiber.Ctx) error
	SelectTone(ctx *fiber.Ctx) error
	Regenerate(ctx *fiber.Ctx) error
	Edit(ctx *fiber.Ctx) error
	Save(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
	jwtSecret      string
}

func NewSessionController(sessionService service.ISessionService, jwtSecret string) ISessionController {
	return &sessionController{sessionService: sessionService, jwtSecret: jwtSecret}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("", c.Create)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Close)
	h.Post(":id/save", c.Save)
	h.Post(":id/sections/:sectionId/language", c.SelectLanguage)
	h.Post(":id/sections/:sectionId/tone", c.SelectTone)
	h.Post(":id/sections/:sectionId/regenerate", c.Regenerate)
	h.Patch(":id/sections/:sectionId", c.Edit)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	var req dto.CreateSessionRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.sessionService.Create(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.sessionService.Get(ctx.UserContext(), userId, ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *sessionController) Close(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	if err := c.sessionService.Close(ctx.UserContext(), userId, ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Session closed", nil))
}

func (c *sessionController) SelectLanguage(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	var req dto.SelectLanguageRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.sessionService.SelectLanguage(ctx.UserContext(), userId, ctx.Params("id"), ctx.Params("sectionId"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Language selected", res))
}

func (c *sessionController) SelectTone(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	var req dto.SelectToneRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.sessionService.SelectTone(ctx.UserContext(), userId, ctx.Params("id"), ctx.Params("sectionId"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Tone selected", res))
}

func (c *sessionController) Regenerate(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	var req dto.RegenerateSectionRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.sessionService.Regenerate(ctx.UserContext(), userId, ctx.Params("id"), ctx.Params("sectionId"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Section regenerated", res))
}

func (c *sessionController) Edit(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	var req dto.EditSectionRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.sessionService.Edit(ctx.UserContext(), userId, ctx.Params("id"), ctx.Params("sectionId"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Section updated", res))
}

func (c *sessionController) Save(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	var req dto.SaveSessionRequest
	if len(ctx.Body()) > 0 {
		if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
			return err
		}
	}
	if req.DeviceId == "" {
		req.DeviceId = deviceID(ctx)
	}

	res, err := c.sessionService.Save(ctx.UserContext(), userId, ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session saved", res))
}
