package controller

import (
	"notely-be/internal/pkg/serverutils"
	ws "notely-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type IWsController interface {
	RegisterRoutes(r fiber.Router)
}

type wsController struct {
	hub       *ws.Hub
	jwtSecret string
}

func NewWsController(hub *ws.Hub, jwtSecret string) IWsController {
	return &wsController{hub: hub, jwtSecret: jwtSecret}
}

// Browsers cannot set headers on websocket upgrades, so the token comes in
// the query string (?token=...&device_id=...).
func (c *wsController) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", serverutils.JwtMiddleware(c.jwtSecret), c.upgrade, websocket.New(c.serve))
}

func (c *wsController) upgrade(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	ctx.Locals("ws_user_id", userId)
	ctx.Locals("ws_device_id", deviceID(ctx))
	return ctx.Next()
}

func (c *wsController) serve(conn *websocket.Conn) {
	userId, _ := conn.Locals("ws_user_id").(uuid.UUID)
	deviceId, _ := conn.Locals("ws_device_id").(string)
	ws.ServeWs(c.hub, conn, userId, deviceId)
}
