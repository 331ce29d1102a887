package handler

import (
	"career-chat-be/internal/pkg/logger"
	"career-chat-be/internal/pkg/serverutils"
	internalWS "career-chat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type LiveHandler struct {
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewLiveHandler(hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *LiveHandler {
	return &LiveHandler{hub: hub, jwtSecret: jwtSecret, logger: log}
}

func (h *LiveHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/chat/v1/live", h.ServeWs)
}

// ServeWs upgrades to a push-only stream of the caller's chat events.
func (h *LiveHandler) ServeWs(c *fiber.Ctx) error {
	// Priority 1: Query Param (browsers cannot set headers on a websocket handshake)
	tokenStr := c.Query("token")

	// Priority 2: Authorization Header (Tooling/Non-browser standard)
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
	}

	userID, err := serverutils.ParseToken(h.jwtSecret, tokenStr)
	if err != nil {
		h.logger.Warn("LiveHandler", "Invalid token in websocket handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		internalWS.ServeWs(h.hub, conn, userID)
	})(c)
}
