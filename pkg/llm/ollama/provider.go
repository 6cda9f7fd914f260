package ollama

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

	"risk-review-be/pkg/llm"
)

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

// Ensure OllamaProvider implements Generator
var _ llm.Generator = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   json.RawMessage `json:"format,omitempty"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// --- Interface Implementation ---

func (o *OllamaProvider) Generate(ctx context.Context, req llm.Request, opts ...llm.Option) ([]byte, error) {
	// 1. Process Options
	options := llm.ApplyOptions(llm.Options{Temperature: 0.2, Model: o.ModelName}, opts...)

	// 2. Build messages; only images travel, ollama has no document input
	user := ollamaMessage{Role: "user", Content: req.Prompt}
	for _, a := range req.Attachments {
		if strings.HasPrefix(a.MimeType, "image/") {
			user.Images = append(user.Images, base64.StdEncoding.EncodeToString(a.Data))
		}
	}
	messages := make([]ollamaMessage, 0, 2)
	if req.SystemInstruction != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: req.SystemInstruction})
	}
	messages = append(messages, user)

	// 3. Prepare Payload
	reqPayload := ollamaChatRequest{
		Model:    options.Model,
		Messages: messages,
		Stream:   false,
		Format:   req.Schema,
		Options: &ollamaOptions{
			Temperature: options.Temperature,
		},
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	// 4. Send Request
	url := strings.TrimRight(o.BaseURL, "/") + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(httpReq)
	if err != nil {
		return nil, llm.ClassifyTransport("ollama", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.ClassifyTransport("ollama", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, llm.ClassifyStatus("ollama", resp.StatusCode, bodyBytes)
	}

	// 5. Parse Response
	var ollamaResp ollamaChatResponse
	if err := json.Unmarshal(bodyBytes, &ollamaResp); err != nil {
		return nil, fmt.Errorf("%w: ollama envelope: %v", llm.ErrMalformed, err)
	}

	text := strings.TrimSpace(ollamaResp.Message.Content)
	if text == "" {
		return nil, fmt.Errorf("%w: ollama returned empty content", llm.ErrMalformed)
	}
	return []byte(text), nil
}
