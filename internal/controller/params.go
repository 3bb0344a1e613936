package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func uuidParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// deviceID reads the caller's device id from the X-Device-Id header, falling
// back to the device_id query parameter.
func deviceID(ctx *fiber.Ctx) string {
	if d := ctx.Get("X-Device-Id"); d != "" {
		return d
	}
	return ctx.Query("device_id")
}
