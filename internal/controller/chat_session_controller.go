package controller

import (
	"career-chat-be/internal/dto"
	"career-chat-be/internal/pkg/serverutils"
	"career-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatSessionController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Recent(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type chatSessionController struct {
	service service.IChatSessionService
}

func NewChatSessionController(service service.IChatSessionService) IChatSessionController {
	return &chatSessionController{service: service}
}

func (c *chatSessionController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/chat/v1/sessions")
	h.Post("", auth, c.Create)
	h.Get("", auth, c.List)
	// static segments before /:id
	h.Get("/recent", auth, c.Recent)
	h.Get("/search", auth, c.Search)
	h.Get("/:id", auth, c.Get)
	h.Put("/:id", auth, c.Update)
	h.Delete("/:id", auth, c.Delete)
}

func (c *chatSessionController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), serverutils.UserID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Chat session created", res))
}

func (c *chatSessionController) List(ctx *fiber.Ctx) error {
	res, err := c.service.ListByUser(ctx.UserContext(), serverutils.UserID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat sessions", res))
}

func (c *chatSessionController) Recent(ctx *fiber.Ctx) error {
	res, err := c.service.Recent(ctx.UserContext(), serverutils.UserID(ctx), ctx.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Recent chat sessions", res))
}

func (c *chatSessionController) Search(ctx *fiber.Ctx) error {
	res, err := c.service.Search(ctx.UserContext(), serverutils.UserID(ctx), ctx.Query("q"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Search results", res))
}

func (c *chatSessionController) Get(ctx *fiber.Ctx) error {
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.Get(ctx.UserContext(), serverutils.UserID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat session", res))
}

func (c *chatSessionController) Update(ctx *fiber.Ctx) error {
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), serverutils.UserID(ctx), id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat session updated", res))
}

func (c *chatSessionController) Delete(ctx *fiber.Ctx) error {
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.Delete(ctx.UserContext(), serverutils.UserID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat session deleted", res))
}
