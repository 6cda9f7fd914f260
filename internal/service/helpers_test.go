package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"risk-review-be/internal/dto"
	"risk-review-be/internal/entity"
	"risk-review-be/internal/pkg/logger"
	"risk-review-be/internal/repository/memory"
	"risk-review-be/pkg/events"
	"risk-review-be/pkg/llm"
	"risk-review-be/pkg/llm/mock"

	"github.com/stretchr/testify/require"
)

// scriptedGenerator answers from a per-task script and records every call.
type scriptedGenerator struct {
	mu        sync.Mutex
	responses map[llm.Task][]byte
	err       error
	delay     time.Duration
	calls     []llm.Request
}

func newScriptedGenerator() *scriptedGenerator {
	return &scriptedGenerator{responses: map[llm.Task][]byte{}}
}

func (g *scriptedGenerator) Generate(ctx context.Context, req llm.Request, _ ...llm.Option) ([]byte, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	raw, ok := g.responses[req.Task]
	err := g.err
	g.mu.Unlock()

	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, llm.ClassifyTransport("scripted", ctx.Err())
		}
	}
	if err != nil {
		return nil, err
	}
	if req.Task == llm.TaskPatch && !ok {
		return json.Marshal(map[string]string{
			"originalText": req.Anchor,
			"replacement":  "<" + req.Anchor + ">",
		})
	}
	if !ok {
		return nil, fmt.Errorf("%w: nothing scripted for %s", llm.ErrUnavailable, req.Task)
	}
	return raw, nil
}

func (g *scriptedGenerator) set(task llm.Task, raw []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses[task] = raw
}

func (g *scriptedGenerator) callCount(task llm.Task) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c.Task == task {
			n++
		}
	}
	return n
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type stubEnricher struct {
	calls int
}

func (e *stubEnricher) Attachments(context.Context, string) []llm.Attachment {
	e.calls++
	return []llm.Attachment{{MimeType: "image/png", Data: []byte{0x89}, SourceURL: "https://img.example/a.png"}}
}

func finding(id, severity, text string) entity.Finding {
	return entity.Finding{
		Id:         id,
		Category:   "privacy",
		Severity:   severity,
		Title:      "title " + id,
		Reason:     "reason",
		Suggestion: "suggestion",
		Highlights: []entity.Highlight{{Text: text, Context: "..."}},
	}
}

// reportJSON builds a report whose summary and highlight index agree with
// its findings.
func reportJSON(t *testing.T, verdict string, score int, findings ...entity.Finding) []byte {
	t.Helper()
	r := entity.Report{
		Verdict:    verdict,
		Score:      score,
		Summary:    entity.ReportSummary{TotalFindings: len(findings), ByCategory: map[string]int{}},
		Findings:   append([]entity.Finding{}, findings...),
		Highlights: entity.HighlightIndex{Mode: "text", Items: []entity.HighlightItem{}},
	}
	for _, f := range findings {
		r.Summary.ByCategory[f.Category]++
		switch f.Severity {
		case entity.SeverityLow:
			r.Summary.BySeverity.Low++
		case entity.SeverityMedium:
			r.Summary.BySeverity.Medium++
		case entity.SeverityHigh:
			r.Summary.BySeverity.High++
		case entity.SeverityCritical:
			r.Summary.BySeverity.Critical++
		}
		for _, h := range f.Highlights {
			r.Highlights.Items = append(r.Highlights.Items, entity.HighlightItem{FindingId: f.Id, Text: h.Text})
		}
	}
	raw, err := json.Marshal(r)
	require.NoError(t, err)
	return raw
}

type fixture struct {
	repo      *memory.ReviewRepository
	live      *scriptedGenerator
	enricher  *stubEnricher
	publisher *recordingPublisher
	reviewer  *Reviewer
	reviews   IReviewService
	patches   IPatchService
	releases  IReleaseService
}

func newFixture(t *testing.T, opts ReviewerOptions, gate ReleaseGate) *fixture {
	t.Helper()
	f := &fixture{
		repo:      memory.NewReviewRepository(0),
		live:      newScriptedGenerator(),
		enricher:  &stubEnricher{},
		publisher: &recordingPublisher{},
	}
	log := logger.NewNopLogger()
	f.reviewer = NewReviewer(f.live, mock.NewMockProvider(), f.enricher, log, opts)
	f.reviews = NewReviewService(f.repo, f.reviewer, f.publisher, log)
	f.patches = NewPatchService(f.repo, f.reviewer, f.publisher, log)
	f.releases = NewReleaseService(f.repo, f.reviewer, gate, f.publisher, log)
	return f
}

func defaultFixture(t *testing.T) *fixture {
	return newFixture(t, ReviewerOptions{Timeout: time.Second}, ReleaseGate{Policy: GatePolicyScore, MinScore: 70})
}

var testSettings = dto.SettingsRequest{
	PublishScope: "unlisted",
	Tone:         "neutral",
	Audience:     "engineers",
	RedactMode:   "light",
}

func live() *dto.RequestConfig { return &dto.RequestConfig{Mock: dto.MockOff} }

func mocked() *dto.RequestConfig { return &dto.RequestConfig{Mock: dto.MockOn} }

func nopLogger() *logger.ZapLogger { return logger.NewNopLogger() }
