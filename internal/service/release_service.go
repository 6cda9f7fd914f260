package service

import (
	"context"
	"fmt"

	"risk-review-be/internal/dto"
	"risk-review-be/internal/entity"
	"risk-review-be/internal/pkg/logger"
	"risk-review-be/internal/repository/contract"
	"risk-review-be/pkg/events"
	"risk-review-be/pkg/llm"
	"risk-review-be/pkg/redact"
)

type IReleaseService interface {
	Release(ctx context.Context, req *dto.ReleaseRequest) (*dto.ReleaseResponse, error)
}

type releaseService struct {
	repo      contract.ReviewRepository
	reviewer  *Reviewer
	gate      ReleaseGate
	publisher IReviewEventPublisher
	logger    logger.ILogger
}

func NewReleaseService(
	repo contract.ReviewRepository,
	reviewer *Reviewer,
	gate ReleaseGate,
	publisher IReviewEventPublisher,
	logger logger.ILogger,
) IReleaseService {
	return &releaseService{
		repo:      repo,
		reviewer:  reviewer,
		gate:      gate,
		publisher: publisher,
		logger:    logger,
	}
}

// Release gates on the stored report, not on anything in the request. A
// failed gate never reaches the reviewer.
func (s *releaseService) Release(ctx context.Context, req *dto.ReleaseRequest) (*dto.ReleaseResponse, error) {
	record, err := loadRecord(ctx, s.repo, req.ReviewId)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Check(record.Report); err != nil {
		s.logger.Info("ReviewService", "Release refused by gate", map[string]interface{}{
			"review_id": record.ReviewId,
			"policy":    s.gate.Policy,
			"score":     record.Report.Score,
			"verdict":   record.Report.Verdict,
		})
		return nil, err
	}

	settings := req.Settings.ToEntity()

	var artifact entity.ReleaseArtifact
	llmReq := llm.NewRequest(llm.TaskRelease, releasePrompt(record.ReviewId, settings, req.Text))
	if err := s.reviewer.Generate(ctx, req.Config, llmReq, &artifact); err != nil {
		return nil, err
	}

	// the model's echoed scope is never trusted
	artifact.PublishedScope = settings.PublishScope
	if artifact.FixSummary == nil {
		artifact.FixSummary = []string{}
	}
	if artifact.Checklist == nil {
		artifact.Checklist = []string{}
	}

	if settings.RedactMode == entity.RedactModeStrict {
		scrubbed := redact.Scrub(artifact.SafeMarkdown)
		if scrubbed.Total > 0 {
			artifact.SafeMarkdown = scrubbed.Text
			artifact.FixSummary = append(artifact.FixSummary,
				fmt.Sprintf("Removed %d secret-looking value(s) before publication.", scrubbed.Total))
		}
	}

	res := &dto.ReleaseResponse{
		ReleaseId:      newID("rel_"),
		Verdict:        entity.VerdictOk,
		SafeMarkdown:   artifact.SafeMarkdown,
		FixSummary:     artifact.FixSummary,
		Checklist:      artifact.Checklist,
		PublishedScope: artifact.PublishedScope,
	}

	s.logger.Info("ReviewService", "Review released", map[string]interface{}{
		"review_id":  record.ReviewId,
		"release_id": res.ReleaseId,
		"scope":      res.PublishedScope,
	})
	s.publisher.Publish(ctx, events.New(events.ReviewReleased, map[string]interface{}{
		"reviewId":       record.ReviewId,
		"releaseId":      res.ReleaseId,
		"publishedScope": res.PublishedScope,
		"score":          record.Report.Score,
	}))
	return res, nil
}
