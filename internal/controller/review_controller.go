package controller

import (
	"risk-review-be/internal/dto"
	"risk-review-be/internal/pkg/apperror"
	"risk-review-be/internal/pkg/serverutils"
	"risk-review-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IReviewController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Recheck(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	PersonaReview(ctx *fiber.Ctx) error
}

type reviewController struct {
	service service.IReviewService
}

func NewReviewController(service service.IReviewService) IReviewController {
	return &reviewController{service: service}
}

func (c *reviewController) RegisterRoutes(r fiber.Router) {
	r.Post("/reviews", c.Create)
	r.Get("/reviews/:reviewId", c.Show)
	r.Post("/reviews/:reviewId/recheck", c.Recheck)
	r.Post("/persona-review", c.PersonaReview)
}

func (c *reviewController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateReviewRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *reviewController) Recheck(ctx *fiber.Ctx) error {
	var req dto.RecheckRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.InvalidInput("request body must be a JSON object")
	}
	req.ReviewId = ctx.Params("reviewId")
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Recheck(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *reviewController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Show(ctx.UserContext(), ctx.Params("reviewId"))
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *reviewController) PersonaReview(ctx *fiber.Ctx) error {
	var req dto.PersonaReviewRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.PersonaReview(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

// parseBody decodes and validates a JSON body. Both failures are
// INVALID_INPUT and happen before any service call.
func parseBody(ctx *fiber.Ctx, req interface{}) error {
	if err := ctx.BodyParser(req); err != nil {
		return apperror.InvalidInput("request body must be a JSON object")
	}
	return serverutils.ValidateRequest(req)
}
