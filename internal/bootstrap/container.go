package bootstrap

import (
	"context"
	"fmt"
	"log"

	"risk-review-be/internal/config"
	"risk-review-be/internal/controller"
	"risk-review-be/internal/pkg/logger"
	"risk-review-be/internal/repository/contract"
	"risk-review-be/internal/repository/implementation"
	"risk-review-be/internal/repository/memory"
	"risk-review-be/internal/service"
	"risk-review-be/pkg/database"
	"risk-review-be/pkg/enrich"
	"risk-review-be/pkg/llm"
	"risk-review-be/pkg/llm/factory"
	"risk-review-be/pkg/llm/mock"
	pktNats "risk-review-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	ReviewController  controller.IReviewController
	PatchController   controller.IPatchController
	ReleaseController controller.IReleaseController

	// Background Services (Exposed for main.go to run)
	AuditConsumer service.IReviewAuditConsumer

	Logger logger.ILogger

	closers []func()
}

// Dependencies are the pieces that talk to the outside world. Tests pass
// their own; NewContainer builds them from config.
type Dependencies struct {
	Repo   contract.ReviewRepository
	Live   llm.Generator
	Bridge service.EventBridge
	Logger logger.ILogger
	Audit  logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	auditLogger := logger.NewIsolatedLogger(cfg.App.EventLogFilePath)

	var closers []func()

	// 2. Review Record Store
	repo, closeRepo, err := newRepository(cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize review store: %v", err)
	}
	if closeRepo != nil {
		closers = append(closers, closeRepo)
	}
	log.Printf("[INFO] Using review store: %s", cfg.Store.Backend)

	// 3. Reviewer
	live, err := factory.NewGenerator(context.Background(), factory.Config{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.LLMModel,
		GeminiBackend: cfg.Ai.GeminiBackend,
		APIKey:        cfg.Keys.GoogleGemini,
		Project:       cfg.Ai.GoogleProject,
		Location:      cfg.Ai.GoogleLocation,
		BaseURL:       cfg.Ai.OllamaBaseURL,
	})
	if err != nil {
		if !cfg.Review.MockEnabled {
			log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
		}
		log.Printf("[WARN] No live reviewer (%v); only mock reviews will succeed", err)
	} else {
		log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	}

	// 4. NATS bridge
	deps := Dependencies{
		Repo:   repo,
		Live:   live,
		Logger: sysLogger,
		Audit:  auditLogger,
	}
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			deps.Bridge = natsPub
			closers = append(closers, natsPub.Close)
		}
	}

	c, err := Assemble(cfg, deps)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	c.closers = append(c.closers, closers...)
	c.closers = append(c.closers, func() {
		_ = sysLogger.Sync()
		_ = auditLogger.Sync()
	})
	return c
}

// Assemble wires services and controllers around deps.
func Assemble(cfg *config.Config, deps Dependencies) (*Container, error) {
	gate, err := service.NewReleaseGate(cfg.Review.ReleasePolicy, cfg.Review.ReleaseMinScore)
	if err != nil {
		return nil, err
	}

	// Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	publisher := service.NewReviewEventPublisher(pubSub, deps.Bridge, deps.Logger)

	var enricher service.Enricher
	if cfg.Enrichment.Enabled {
		fetcher := enrich.NewFetcher(cfg.Enrichment.FetchTimeout, cfg.Enrichment.MaxBytes, func(url string, err error) {
			deps.Logger.Warn("Enrichment", "Dropped linked resource", map[string]interface{}{"url": url, "error": err.Error()})
		})
		enricher = service.NewMediaEnricher(fetcher, cfg.Enrichment.MaxItems, deps.Logger)
	}

	reviewer := service.NewReviewer(deps.Live, mock.NewMockProvider(), enricher, deps.Logger, service.ReviewerOptions{
		MockEnabled: cfg.Review.MockEnabled,
		Temperature: cfg.Ai.Temperature,
		Timeout:     cfg.Ai.Timeout,
		MaxTimeout:  cfg.Ai.MaxTimeout,
	})

	reviewService := service.NewReviewService(deps.Repo, reviewer, publisher, deps.Logger)
	patchService := service.NewPatchService(deps.Repo, reviewer, publisher, deps.Logger)
	releaseService := service.NewReleaseService(deps.Repo, reviewer, gate, publisher, deps.Logger)

	return &Container{
		ReviewController:  controller.NewReviewController(reviewService),
		PatchController:   controller.NewPatchController(patchService),
		ReleaseController: controller.NewReleaseController(releaseService),

		AuditConsumer: service.NewReviewAuditConsumer(pubSub, deps.Audit),
		Logger:        deps.Logger,

		closers: []func(){func() { _ = pubSub.Close() }},
	}, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func newRepository(cfg *config.Config) (contract.ReviewRepository, func(), error) {
	switch cfg.Store.Backend {
	case "memory", "":
		return memory.NewReviewRepository(cfg.Store.TTL), nil, nil
	case "redis":
		repo, err := implementation.NewReviewRedisRepository(cfg.Store.RedisURL, cfg.Store.TTL)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	case "postgres":
		db, err := database.NewGormDBFromDSN(cfg.Store.Connection)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		repo := implementation.NewReviewRepository(db)
		if err := repo.Migrate(); err != nil {
			return nil, nil, fmt.Errorf("migrate review_records: %w", err)
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repo, closeDB, nil
	default:
		return nil, nil, fmt.Errorf("unsupported STORE_BACKEND %q", cfg.Store.Backend)
	}
}
