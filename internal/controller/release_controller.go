package controller

import (
	"risk-review-be/internal/dto"
	"risk-review-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IReleaseController interface {
	RegisterRoutes(r fiber.Router)
	Release(ctx *fiber.Ctx) error
}

type releaseController struct {
	service service.IReleaseService
}

func NewReleaseController(service service.IReleaseService) IReleaseController {
	return &releaseController{service: service}
}

func (c *releaseController) RegisterRoutes(r fiber.Router) {
	r.Post("/release", c.Release)
}

func (c *releaseController) Release(ctx *fiber.Ctx) error {
	var req dto.ReleaseRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Release(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}
