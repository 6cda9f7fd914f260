package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/google"

	"risk-review-be/pkg/llm"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	cloudScope     = "https://www.googleapis.com/auth/cloud-platform"
)

type GeminiProvider struct {
	// BaseURL ends right before "/models/{model}:generateContent".
	BaseURL   string
	ModelName string
	APIKey    string
	Client    *http.Client
}

// Ensure GeminiProvider implements Generator
var _ llm.Generator = &GeminiProvider{}

// NewAPIKeyProvider talks to the Gemini Developer API with an API key.
func NewAPIKeyProvider(apiKey, modelName string) *GeminiProvider {
	return &GeminiProvider{
		BaseURL:   DefaultBaseURL,
		ModelName: modelName,
		APIKey:    apiKey,
		Client: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
}

// NewVertexProvider talks to Vertex AI using Application Default Credentials.
func NewVertexProvider(ctx context.Context, project, location, modelName string) (*GeminiProvider, error) {
	if project == "" {
		return nil, fmt.Errorf("vertex backend requires a project")
	}
	if location == "" {
		location = "us-central1"
	}
	client, err := google.DefaultClient(ctx, cloudScope)
	if err != nil {
		return nil, fmt.Errorf("load application default credentials: %w", err)
	}
	client.Timeout = 300 * time.Second

	host := location + "-aiplatform.googleapis.com"
	if location == "global" {
		host = "aiplatform.googleapis.com"
	}
	return &GeminiProvider{
		BaseURL:   fmt.Sprintf("https://%s/v1/projects/%s/locations/%s/publishers/google", host, project, location),
		ModelName: modelName,
		Client:    client,
	}, nil
}

// --- Request/Response structs (Internal to this package) ---

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature        float64         `json:"temperature"`
	ResponseMimeType   string          `json:"responseMimeType"`
	ResponseJsonSchema json.RawMessage `json:"responseJsonSchema,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// --- Interface Implementation ---

func (g *GeminiProvider) Generate(ctx context.Context, req llm.Request, opts ...llm.Option) ([]byte, error) {
	options := llm.ApplyOptions(llm.Options{Temperature: 0.2, Model: g.ModelName}, opts...)

	parts := []part{{Text: req.Prompt}}
	for _, a := range req.Attachments {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: a.MimeType,
			Data:     base64.StdEncoding.EncodeToString(a.Data),
		}})
	}

	payload := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:        options.Temperature,
			ResponseMimeType:   "application/json",
			ResponseJsonSchema: req.Schema,
		},
	}
	if req.SystemInstruction != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: req.SystemInstruction}}}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(g.BaseURL, "/"), options.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		httpReq.Header.Set("x-goog-api-key", g.APIKey)
	}

	resp, err := g.Client.Do(httpReq)
	if err != nil {
		return nil, llm.ClassifyTransport("gemini", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.ClassifyTransport("gemini", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, llm.ClassifyStatus("gemini", resp.StatusCode, bodyBytes)
	}

	var geminiResp generateResponse
	if err := json.Unmarshal(bodyBytes, &geminiResp); err != nil {
		return nil, fmt.Errorf("%w: gemini envelope: %v", llm.ErrMalformed, err)
	}
	if len(geminiResp.Candidates) == 0 {
		reason := "no candidates"
		if geminiResp.PromptFeedback != nil && geminiResp.PromptFeedback.BlockReason != "" {
			reason = "blocked: " + geminiResp.PromptFeedback.BlockReason
		}
		return nil, fmt.Errorf("%w: gemini %s", llm.ErrMalformed, reason)
	}

	var sb strings.Builder
	for _, p := range geminiResp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, fmt.Errorf("%w: gemini returned empty text (finishReason=%s)", llm.ErrMalformed, geminiResp.Candidates[0].FinishReason)
	}
	return []byte(text), nil
}
