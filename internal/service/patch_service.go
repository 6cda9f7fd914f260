package service

import (
	"context"
	"fmt"

	"risk-review-be/internal/dto"
	"risk-review-be/internal/entity"
	"risk-review-be/internal/pkg/apperror"
	"risk-review-be/internal/pkg/logger"
	"risk-review-be/internal/repository/contract"
	"risk-review-be/pkg/events"
	"risk-review-be/pkg/llm"
	"risk-review-be/pkg/patch"

	"golang.org/x/sync/errgroup"
)

const ApplyModeReplaceText = "replaceText"

type IPatchService interface {
	RequestPatch(ctx context.Context, req *dto.PatchRequest) (*dto.PatchResponse, error)
	RequestBatch(ctx context.Context, req *dto.BatchPatchRequest) (*dto.BatchPatchResponse, error)
	ApplyEdits(ctx context.Context, req *dto.ApplyEditsRequest) (*dto.ApplyEditsResponse, error)
}

// patchService proposes fixes for stored findings. It reads the store but
// never writes it: a patched document only becomes a record through a
// recheck.
type patchService struct {
	repo      contract.ReviewRepository
	reviewer  *Reviewer
	publisher IReviewEventPublisher
	logger    logger.ILogger
	// maxParallel bounds concurrent reviewer calls of one batch
	maxParallel int
}

func NewPatchService(
	repo contract.ReviewRepository,
	reviewer *Reviewer,
	publisher IReviewEventPublisher,
	logger logger.ILogger,
) IPatchService {
	return &patchService{
		repo:        repo,
		reviewer:    reviewer,
		publisher:   publisher,
		logger:      logger,
		maxParallel: 4,
	}
}

func (s *patchService) RequestPatch(ctx context.Context, req *dto.PatchRequest) (*dto.PatchResponse, error) {
	record, err := loadRecord(ctx, s.repo, req.ReviewId)
	if err != nil {
		return nil, err
	}
	finding, ok := record.Report.FindFinding(req.FindingId)
	if !ok {
		return nil, apperror.NotFound("findingId not found for this reviewId")
	}

	res, err := s.generate(ctx, record.ReviewId, finding, req.Text, req.Config)
	if err != nil {
		return nil, err
	}

	s.logger.Info("PatchService", "Patch generated", map[string]interface{}{
		"review_id":  record.ReviewId,
		"finding_id": finding.Id,
		"patch_id":   res.PatchId,
		"located":    res.Range != nil,
	})
	s.publisher.Publish(ctx, events.New(events.ReviewPatchRequested, map[string]interface{}{
		"reviewId":  record.ReviewId,
		"findingId": finding.Id,
		"patchId":   res.PatchId,
	}))
	return res, nil
}

// RequestBatch asks for one patch per selected finding, all against the
// same document, then applies them in report order through the sequential
// applier. Any reviewer failure fails the whole batch.
func (s *patchService) RequestBatch(ctx context.Context, req *dto.BatchPatchRequest) (*dto.BatchPatchResponse, error) {
	record, err := loadRecord(ctx, s.repo, req.ReviewId)
	if err != nil {
		return nil, err
	}
	findings, err := selectFindings(record.Report, req.FindingIds)
	if err != nil {
		return nil, err
	}

	patches := make([]dto.PatchResponse, len(findings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for i, f := range findings {
		i, f := i, f
		g.Go(func() error {
			res, err := s.generate(gctx, record.ReviewId, f, req.Text, req.Config)
			if err != nil {
				return err
			}
			patches[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	edits := make([]patch.Edit, len(patches))
	claimed := make(map[patch.Span]bool, len(patches))
	for i, p := range patches {
		if p.Range != nil && !claimed[*p.Range] {
			claimed[*p.Range] = true
			edits[i] = patch.Edit{FindingID: p.FindingId, Span: *p.Range, Replacement: p.Apply.Replacement}
			continue
		}
		// Either absent from the document or the same occurrence an earlier
		// finding already claimed. As a literal edit it is searched for again
		// at apply time and rejected as anchor-not-found once consumed.
		edits[i] = patch.NewTextEdit(p.FindingId, p.Apply.OriginalText, p.Apply.Replacement)
	}
	result := patch.Apply(req.Text, edits)

	counts := countsOf(result)
	s.logger.Info("PatchService", "Patch batch applied", map[string]interface{}{
		"review_id": record.ReviewId,
		"edits":     len(edits),
		"counts":    counts,
	})
	for _, p := range patches {
		s.publisher.Publish(ctx, events.New(events.ReviewPatchRequested, map[string]interface{}{
			"reviewId":  record.ReviewId,
			"findingId": p.FindingId,
			"patchId":   p.PatchId,
			"batch":     true,
		}))
	}

	return &dto.BatchPatchResponse{
		ReviewId: record.ReviewId,
		Text:     result.Document,
		Patches:  patches,
		Outcomes: result.Outcomes,
		Counts:   counts,
	}, nil
}

// ApplyEdits runs caller-supplied edits through the sequential applier.
// Offsets are rune indexes into req.Text.
func (s *patchService) ApplyEdits(_ context.Context, req *dto.ApplyEditsRequest) (*dto.ApplyEditsResponse, error) {
	edits := make([]patch.Edit, len(req.Edits))
	for i, e := range req.Edits {
		if e.Anchor != "" {
			edits[i] = patch.NewTextEdit(e.FindingId, e.Anchor, e.Replacement)
			continue
		}
		edits[i] = patch.Edit{
			FindingID:   e.FindingId,
			Span:        patch.Span{Start: e.Start, End: e.End},
			Replacement: e.Replacement,
		}
	}

	result := patch.Apply(req.Text, edits)
	return &dto.ApplyEditsResponse{
		Text:     result.Document,
		Outcomes: result.Outcomes,
		Counts:   countsOf(result),
	}, nil
}

// generate anchors the patch on the finding's first highlight.
func (s *patchService) generate(ctx context.Context, reviewId string, f *entity.Finding, text string, cfg *dto.RequestConfig) (*dto.PatchResponse, error) {
	if len(f.Highlights) == 0 {
		return nil, apperror.NotFound(fmt.Sprintf("finding %s has no highlighted text to patch", f.Id))
	}
	anchor := f.Highlights[0].Text

	llmReq := llm.NewRequest(llm.TaskPatch, patchPrompt(reviewId, f, anchor, text))
	llmReq.Anchor = anchor

	var gen entity.Patch
	if err := s.reviewer.Generate(ctx, cfg, llmReq, &gen); err != nil {
		return nil, err
	}

	res := &dto.PatchResponse{
		PatchId:   newID("ptc_"),
		FindingId: f.Id,
		Before:    gen.OriginalText,
		After:     gen.Replacement,
		Apply: dto.PatchApply{
			Mode:         ApplyModeReplaceText,
			OriginalText: gen.OriginalText,
			Replacement:  gen.Replacement,
		},
	}
	if span, ok := patch.Locate(text, gen.OriginalText); ok {
		res.Range = &span
	}
	return res, nil
}

// selectFindings keeps report order whatever order ids were given in.
func selectFindings(report entity.Report, ids []string) ([]*entity.Finding, error) {
	if len(ids) == 0 {
		out := make([]*entity.Finding, len(report.Findings))
		for i := range report.Findings {
			out[i] = &report.Findings[i]
		}
		return out, nil
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := report.FindFinding(id); !ok {
			return nil, apperror.NotFound(fmt.Sprintf("findingId %s not found for this reviewId", id))
		}
		wanted[id] = true
	}
	out := make([]*entity.Finding, 0, len(wanted))
	for i := range report.Findings {
		if wanted[report.Findings[i].Id] {
			out = append(out, &report.Findings[i])
		}
	}
	return out, nil
}

func countsOf(r patch.Result) map[string]int {
	out := make(map[string]int, 3)
	for status, n := range r.Counts() {
		out[string(status)] = n
	}
	return out
}
