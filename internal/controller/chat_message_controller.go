package controller

import (
	"career-chat-be/internal/dto"
	"career-chat-be/internal/pkg/serverutils"
	"career-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatMessageController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	DeleteBySession(ctx *fiber.Ctx) error
}

type chatMessageController struct {
	service service.IChatMessageService
}

func NewChatMessageController(service service.IChatMessageService) IChatMessageController {
	return &chatMessageController{service: service}
}

func (c *chatMessageController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/chat/v1")
	h.Post("/sessions/:id/messages", auth, c.Create)
	h.Get("/sessions/:id/messages", auth, c.List)
	h.Delete("/sessions/:id/messages", auth, c.DeleteBySession)
	h.Delete("/messages/:id", auth, c.Delete)
}

func (c *chatMessageController) Create(ctx *fiber.Ctx) error {
	sessionId, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.CreateMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), serverutils.UserID(ctx), sessionId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Message sent", res))
}

func (c *chatMessageController) List(ctx *fiber.Ctx) error {
	sessionId, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), serverutils.UserID(ctx), sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat messages", res))
}

func (c *chatMessageController) Delete(ctx *fiber.Ctx) error {
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.Delete(ctx.UserContext(), serverutils.UserID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat message deleted", res))
}

func (c *chatMessageController) DeleteBySession(ctx *fiber.Ctx) error {
	sessionId, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.DeleteBySession(ctx.UserContext(), serverutils.UserID(ctx), sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat messages deleted", res))
}
