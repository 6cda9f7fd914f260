package controller

import (
	"risk-review-be/internal/dto"
	"risk-review-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPatchController interface {
	RegisterRoutes(r fiber.Router)
	RequestPatch(ctx *fiber.Ctx) error
	RequestBatch(ctx *fiber.Ctx) error
	ApplyEdits(ctx *fiber.Ctx) error
}

type patchController struct {
	service service.IPatchService
}

func NewPatchController(service service.IPatchService) IPatchController {
	return &patchController{service: service}
}

func (c *patchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/patches")
	h.Post("", c.RequestPatch)
	h.Post("/batch", c.RequestBatch)
	h.Post("/apply", c.ApplyEdits)
}

func (c *patchController) RequestPatch(ctx *fiber.Ctx) error {
	var req dto.PatchRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.RequestPatch(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *patchController) RequestBatch(ctx *fiber.Ctx) error {
	var req dto.BatchPatchRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.RequestBatch(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *patchController) ApplyEdits(ctx *fiber.Ctx) error {
	var req dto.ApplyEditsRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.ApplyEdits(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}
