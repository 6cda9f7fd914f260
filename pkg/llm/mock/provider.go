// Package mock serves canned reviewer payloads so the whole review flow can
// run without a live model.
package mock

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"risk-review-be/pkg/llm"
)

// Replacement is what the mock patch puts in place of the anchor.
const Replacement = "[redacted]"

//go:embed fixtures/*.json
var fixtureFS embed.FS

type MockProvider struct {
	Fixtures map[llm.Task][]byte
}

var _ llm.Generator = &MockProvider{}

func NewMockProvider() *MockProvider {
	p := &MockProvider{Fixtures: make(map[llm.Task][]byte, 3)}
	for _, task := range []llm.Task{llm.TaskReport, llm.TaskRelease, llm.TaskPersona} {
		raw, err := fixtureFS.ReadFile("fixtures/" + string(task) + ".json")
		if err != nil {
			panic(fmt.Sprintf("mock: missing fixture for %s: %v", task, err))
		}
		p.Fixtures[task] = raw
	}
	return p
}

func (m *MockProvider) Generate(ctx context.Context, req llm.Request, _ ...llm.Option) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, llm.ClassifyTransport("mock", err)
	}

	if req.Task == llm.TaskPatch {
		return json.Marshal(map[string]string{
			"originalText": req.Anchor,
			"replacement":  Replacement,
			"note":         "mock patch",
		})
	}

	raw, ok := m.Fixtures[req.Task]
	if !ok {
		return nil, fmt.Errorf("%w: no mock fixture for task %q", llm.ErrUnavailable, req.Task)
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}
