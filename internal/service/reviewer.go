package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"risk-review-be/internal/dto"
	"risk-review-be/internal/pkg/apperror"
	"risk-review-be/internal/pkg/logger"
	"risk-review-be/pkg/llm"

	"github.com/google/uuid"
)

// Enricher turns media linked from a document into reviewer attachments.
// It never fails; unreachable resources are simply left out.
type Enricher interface {
	Attachments(ctx context.Context, document string) []llm.Attachment
}

type ReviewerOptions struct {
	// MockEnabled is the process-wide switch consulted for mock "auto".
	MockEnabled bool
	Temperature float64
	Timeout     time.Duration
	MaxTimeout  time.Duration
}

// Reviewer is the one door to the external generator. It picks the live or
// mock backend, bounds the call with a timeout, validates the output
// against the task schema and maps failures onto the error taxonomy.
type Reviewer struct {
	live     llm.Generator
	mock     llm.Generator
	enricher Enricher
	logger   logger.ILogger
	opts     ReviewerOptions
}

func NewReviewer(live, mock llm.Generator, enricher Enricher, logger logger.ILogger, opts ReviewerOptions) *Reviewer {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxTimeout < opts.Timeout {
		opts.MaxTimeout = opts.Timeout
	}
	return &Reviewer{
		live:     live,
		mock:     mock,
		enricher: enricher,
		logger:   logger,
		opts:     opts,
	}
}

// UseMock resolves a request's mock mode. "auto" defers to the process-wide
// switch.
func (r *Reviewer) UseMock(mode string) bool {
	switch mode {
	case dto.MockOn:
		return true
	case dto.MockOff:
		return false
	default:
		return r.opts.MockEnabled
	}
}

func (r *Reviewer) timeout(seconds int) time.Duration {
	if seconds <= 0 {
		return r.opts.Timeout
	}
	d := time.Duration(seconds) * time.Second
	if d > r.opts.MaxTimeout {
		return r.opts.MaxTimeout
	}
	return d
}

// Attachments runs enrichment for live calls only.
func (r *Reviewer) Attachments(ctx context.Context, cfg *dto.RequestConfig, document string) []llm.Attachment {
	if r.enricher == nil || r.UseMock(cfg.MockMode()) {
		return nil
	}
	return r.enricher.Attachments(ctx, document)
}

// Generate performs one structured-output call and decodes the validated
// result into out. Nothing is retried.
func (r *Reviewer) Generate(ctx context.Context, cfg *dto.RequestConfig, req llm.Request, out interface{}) error {
	gen, source := r.live, "live"
	if r.UseMock(cfg.MockMode()) {
		gen, source = r.mock, "mock"
	}
	if gen == nil {
		return apperror.UpstreamUnavailable("reviewer is not configured; use config.mock=on", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout(cfg.Timeout()))
	defer cancel()

	start := time.Now()
	raw, err := gen.Generate(ctx, req, llm.WithTemperature(r.opts.Temperature))
	if err == nil {
		err = llm.Decode(req.Task, raw, out)
	}

	details := map[string]interface{}{
		"task":        string(req.Task),
		"source":      source,
		"attachments": len(req.Attachments),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	}
	if err != nil {
		details["error"] = err.Error()
		r.logger.Warn("Reviewer", "Reviewer call failed", details)
		return classify(err)
	}
	r.logger.Debug("Reviewer", "Reviewer call succeeded", details)
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, llm.ErrThrottled):
		return apperror.UpstreamThrottled("reviewer rate limit reached; retry later", err)
	case errors.Is(err, llm.ErrMalformed):
		return apperror.UpstreamMalformed("reviewer returned output that does not match the expected shape", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperror.UpstreamUnavailable("reviewer call timed out", err)
	default:
		return apperror.UpstreamUnavailable("reviewer call failed", err)
	}
}

// newID returns prefix followed by 16 lowercase hex characters.
func newID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
