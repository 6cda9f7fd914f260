package service

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"risk-review-be/internal/dto"
	"risk-review-be/internal/entity"
	"risk-review-be/internal/pkg/apperror"
	"risk-review-be/internal/pkg/logger"
	"risk-review-be/internal/repository/contract"
	"risk-review-be/pkg/events"
	"risk-review-be/pkg/llm"
)

type IReviewService interface {
	Create(ctx context.Context, req *dto.CreateReviewRequest) (*dto.ReviewResponse, error)
	Recheck(ctx context.Context, req *dto.RecheckRequest) (*dto.ReviewResponse, error)
	Show(ctx context.Context, reviewId string) (*dto.ShowReviewResponse, error)
	PersonaReview(ctx context.Context, req *dto.PersonaReviewRequest) (*dto.PersonaReviewResponse, error)
}

type reviewService struct {
	repo      contract.ReviewRepository
	reviewer  *Reviewer
	publisher IReviewEventPublisher
	logger    logger.ILogger
	locks     *keyedMutex
	now       func() time.Time
}

func NewReviewService(
	repo contract.ReviewRepository,
	reviewer *Reviewer,
	publisher IReviewEventPublisher,
	logger logger.ILogger,
) IReviewService {
	return &reviewService{
		repo:      repo,
		reviewer:  reviewer,
		publisher: publisher,
		logger:    logger,
		locks:     newKeyedMutex(64),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *reviewService) Create(ctx context.Context, req *dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	settings := req.Settings.ToEntity()

	report, err := s.obtainReport(ctx, "", req.Text, settings, req.Config)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &entity.ReviewRecord{
		ReviewId:  newID("rev_"),
		Document:  req.Text,
		Settings:  settings,
		Report:    *report,
		State:     entity.ReviewStateCreated,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Put(ctx, record); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to store review", err)
	}

	s.logger.Info("ReviewService", "Review created", map[string]interface{}{
		"review_id":  record.ReviewId,
		"verdict":    report.Verdict,
		"score":      report.Score,
		"findings":   len(report.Findings),
		"doc_length": len(req.Text),
	})
	s.publish(ctx, events.ReviewCreated, record)

	return &dto.ReviewResponse{ReviewId: record.ReviewId, Report: *report}, nil
}

// Recheck is an upsert by id: an unknown id is created rather than refused.
// The store is only touched once a complete report is in hand.
func (s *reviewService) Recheck(ctx context.Context, req *dto.RecheckRequest) (*dto.ReviewResponse, error) {
	settings := req.Settings.ToEntity()

	report, err := s.obtainReport(ctx, req.ReviewId, req.Text, settings, req.Config)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(req.ReviewId)
	defer unlock()

	now := s.now()
	record := &entity.ReviewRecord{
		ReviewId:  req.ReviewId,
		Document:  req.Text,
		Settings:  settings,
		Report:    *report,
		State:     entity.ReviewStateCreated,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	prev, err := s.repo.Get(ctx, req.ReviewId)
	switch {
	case err == nil:
		record.State = entity.ReviewStateRechecked
		record.Version = prev.Version + 1
		record.CreatedAt = prev.CreatedAt
	case errors.Is(err, contract.ErrReviewNotFound):
	default:
		return nil, apperror.Wrap(apperror.KindInternal, "failed to load review", err)
	}

	if err := s.repo.Put(ctx, record); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to store review", err)
	}

	s.logger.Info("ReviewService", "Review rechecked", map[string]interface{}{
		"review_id":  record.ReviewId,
		"version":    record.Version,
		"verdict":    report.Verdict,
		"score":      report.Score,
		"findings":   len(report.Findings),
		"doc_length": len(req.Text),
	})
	s.publish(ctx, events.ReviewRechecked, record)

	return &dto.ReviewResponse{ReviewId: record.ReviewId, Report: *report}, nil
}

func (s *reviewService) Show(ctx context.Context, reviewId string) (*dto.ShowReviewResponse, error) {
	record, err := loadRecord(ctx, s.repo, reviewId)
	if err != nil {
		return nil, err
	}
	return &dto.ShowReviewResponse{
		ReviewId: record.ReviewId,
		Text:     record.Document,
		Settings: record.Settings,
		Report:   record.Report,
		State:    string(record.State),
		Version:  record.Version,
	}, nil
}

// PersonaReview is stateless; the store is never read or written.
func (s *reviewService) PersonaReview(ctx context.Context, req *dto.PersonaReviewRequest) (*dto.PersonaReviewResponse, error) {
	settings := req.Settings.ToEntity()

	var out entity.PersonaReport
	llmReq := llm.NewRequest(llm.TaskPersona, personaPrompt(settings, req.Text))
	if err := s.reviewer.Generate(ctx, req.Config, llmReq, &out); err != nil {
		return nil, err
	}

	// the echoed audience is never trusted
	out.Audience = settings.Audience
	if out.Items == nil {
		out.Items = []entity.PersonaItem{}
	}
	return &out, nil
}

func (s *reviewService) obtainReport(ctx context.Context, reviewId, text string, settings entity.Settings, cfg *dto.RequestConfig) (*entity.Report, error) {
	llmReq := llm.NewRequest(llm.TaskReport, reportPrompt(reviewId, settings, text))
	llmReq.Attachments = s.reviewer.Attachments(ctx, cfg, text)

	var report entity.Report
	if err := s.reviewer.Generate(ctx, cfg, llmReq, &report); err != nil {
		return nil, err
	}
	if err := report.CheckIntegrity(); err != nil {
		s.logger.Warn("ReviewService", "Reviewer report failed integrity check", map[string]interface{}{"error": err.Error()})
		return nil, apperror.UpstreamMalformed("reviewer report is inconsistent", err)
	}
	return &report, nil
}

func (s *reviewService) publish(ctx context.Context, eventType string, record *entity.ReviewRecord) {
	s.publisher.Publish(ctx, events.New(eventType, map[string]interface{}{
		"reviewId":      record.ReviewId,
		"version":       record.Version,
		"verdict":       record.Report.Verdict,
		"score":         record.Report.Score,
		"totalFindings": record.Report.Summary.TotalFindings,
		"publishScope":  record.Settings.PublishScope,
	}))
}

func loadRecord(ctx context.Context, repo contract.ReviewRepository, reviewId string) (*entity.ReviewRecord, error) {
	record, err := repo.Get(ctx, reviewId)
	if errors.Is(err, contract.ErrReviewNotFound) {
		return nil, apperror.NotFound("reviewId not found")
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to load review", err)
	}
	return record, nil
}

// keyedMutex serialises read-modify-write cycles per review id. Ids hash
// onto a fixed set of stripes, so unrelated ids rarely contend.
type keyedMutex struct {
	stripes []sync.Mutex
}

func newKeyedMutex(n int) *keyedMutex {
	return &keyedMutex{stripes: make([]sync.Mutex, n)}
}

func (k *keyedMutex) Lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &k.stripes[h.Sum32()%uint32(len(k.stripes))]
	m.Lock()
	return m.Unlock
}
