package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risk-review-be/pkg/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewAPIKeyProvider("test-key", "gemini-test")
	p.BaseURL = srv.URL
	p.Client = srv.Client()
	return p
}

func TestGenerateSendsSchemaAndReturnsText(t *testing.T) {
	var got generateRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"originalText\":\"a\","},{"text":"\"replacement\":\"b\"}"}]}}]}`))
	})

	req := llm.NewRequest(llm.TaskPatch, "[originalText]\na")
	req.Attachments = []llm.Attachment{{MimeType: "image/png", Data: []byte{1, 2, 3}}}

	out, err := p.Generate(context.Background(), req, llm.WithTemperature(0.5))

	require.NoError(t, err)
	assert.JSONEq(t, `{"originalText":"a","replacement":"b"}`, string(out))
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
	assert.Equal(t, 0.5, got.GenerationConfig.Temperature)
	assert.NotEmpty(t, got.GenerationConfig.ResponseJsonSchema)
	require.NotNil(t, got.SystemInstruction)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Equal(t, "AQID", got.Contents[0].Parts[1].InlineData.Data)
}

func TestGenerateThrottled(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := p.Generate(context.Background(), llm.NewRequest(llm.TaskReport, "x"))

	assert.True(t, errors.Is(err, llm.ErrThrottled))
}

func TestGenerateServerErrorIsUnavailable(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := p.Generate(context.Background(), llm.NewRequest(llm.TaskReport, "x"))

	assert.True(t, errors.Is(err, llm.ErrUnavailable))
}

func TestGenerateEmptyCandidatesIsMalformed(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	})

	_, err := p.Generate(context.Background(), llm.NewRequest(llm.TaskReport, "x"))

	assert.True(t, errors.Is(err, llm.ErrMalformed))
}

func TestGenerateCancelledContextIsUnavailable(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, llm.NewRequest(llm.TaskReport, "x"))

	assert.True(t, errors.Is(err, llm.ErrUnavailable))
}
