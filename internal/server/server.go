package server

import (
	"log"
	"time"

	"risk-review-be/internal/bootstrap"
	"risk-review-be/internal/config"
	"risk-review-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := NewApp(cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

// NewApp builds the fiber app with every middleware and route. Tests drive
// it through app.Test.
func NewApp(cfg *config.Config, container *bootstrap.Container) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    10 * 1024 * 1024, // 10MB
		ErrorHandler: serverutils.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CorsAllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, x-api-key",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	if cfg.App.OtelEnabled {
		app.Use(otelfiber.Middleware())
	}

	app.Use(accessLog(container))

	app.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"ok": true})
	})

	registerRoutes(app, cfg, container)

	return app
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	v1 := app.Group("/v1", serverutils.AuthMiddleware(cfg.Keys.ApiKey, cfg.Keys.JwtSecret))

	c.ReviewController.RegisterRoutes(v1)
	c.PatchController.RegisterRoutes(v1)
	c.ReleaseController.RegisterRoutes(v1)
}

func accessLog(c *bootstrap.Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			// the error handler has not run yet; report what it will send
			status = serverutils.StatusOf(err)
		}
		c.Logger.Info("HTTP", "Request handled", map[string]interface{}{
			"method":     ctx.Method(),
			"path":       ctx.Path(),
			"status":     status,
			"elapsed_ms": time.Since(start).Milliseconds(),
			"request_id": ctx.GetRespHeader(fiber.HeaderXRequestID),
		})
		return err
	}
}
