package controller

import (
	"time"

	"notely-be/internal/dto"
	"notely-be/internal/pkg/serverutils"
	"notely-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISyncController interface {
	RegisterRoutes(r fiber.Router)
	Status(ctx *fiber.Ctx) error
	Pull(ctx *fiber.Ctx) error
	Push(ctx *fiber.Ctx) error
}

type syncController struct {
	syncService service.ISyncService
	jwtSecret   string
}

func NewSyncController(syncService service.ISyncService, jwtSecret string) ISyncController {
	return &syncController{syncService: syncService, jwtSecret: jwtSecret}
}

func (c *syncController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sync/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get("/status", c.Status)
	h.Post("/pull", c.Pull)
	h.Post("/push", c.Push)
}

func (c *syncController) Status(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var since *time.Time
	if raw := ctx.Query("lastSyncAt"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return &serverutils.ValidationError{Fields: map[string]string{"lastSyncAt": "must be an RFC 3339 timestamp"}}
		}
		since = &t
	}

	res, err := c.syncService.Status(ctx.UserContext(), userId, since)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get sync status", res))
}

func (c *syncController) Pull(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.SyncPullRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.syncService.Pull(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success pull notes", res))
}

// Push answers 200 even when some notes conflict; conflicts are listed
// per note in the response.
func (c *syncController) Push(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.SyncPushRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.syncService.Push(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success push notes", res))
}
