package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"risk-review-be/internal/dto"
	"risk-review-be/pkg/patch"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

const sampleText = `# Sample

This is a test blog post.
Taro Tanaka / tanaka.taro@example.co.jp
Internal URL: http://intra-admin.corp.local:8080/
Looks like a key: sk-THIS_IS_NOT_REAL_BUT_LOOKS_LIKE_A_KEY
`

const releaseMinScore = 70

type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// post sends body as JSON and decodes a 2xx response into out. Error
// bodies are returned verbatim so the server's detail is visible.
func (c *client) post(path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := strings.TrimRight(c.baseURL, "/") + path
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d %s\nresponse=%s", resp.StatusCode, url, respBody)
	}
	return json.Unmarshal(respBody, out)
}

func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

func loadMarkdown(path string) string {
	if path == "" {
		return sampleText
	}
	b, err := os.ReadFile(path)
	if err != nil {
		color.Yellow("[warn] md file not readable (%v), using sample text", err)
		return sampleText
	}
	return string(b)
}

func fail(err error) {
	color.Red("Failed: %v", err)
	os.Exit(1)
}

func main() {
	_ = godotenv.Load()

	baseURL := flag.String("base-url", "http://localhost:8000", "service base URL")
	mdPath := flag.String("md", "", "markdown file to review (sample text when empty)")
	mock := flag.String("mock", dto.MockAuto, "mock mode: auto, on or off")
	publishScope := flag.String("publish-scope", "public", "publish scope")
	tone := flag.String("tone", "technical", "tone")
	audience := flag.String("audience", "engineers", "audience")
	redactMode := flag.String("redact-mode", "light", "redaction mode")
	apiKey := flag.String("api-key", os.Getenv("API_KEY"), "x-api-key header value")
	flag.Parse()

	c := &client{baseURL: *baseURL, apiKey: *apiKey, http: &http.Client{Timeout: 5 * time.Minute}}
	settings := dto.SettingsRequest{
		PublishScope: *publishScope,
		Tone:         *tone,
		Audience:     *audience,
		RedactMode:   *redactMode,
	}
	cfg := &dto.RequestConfig{Mock: *mock}

	text := loadMarkdown(*mdPath)
	color.Cyan("Starting review flow (input length %d)", len([]rune(text)))

	// 1. Create Review
	color.Yellow("\n[1] POST /v1/reviews")
	var created dto.ReviewResponse
	if err := c.post("/v1/reviews", dto.CreateReviewRequest{Text: text, Settings: settings, Config: cfg}, &created); err != nil {
		fail(err)
	}
	prettyPrint(map[string]interface{}{
		"reviewId": created.ReviewId,
		"verdict":  created.Report.Verdict,
		"score":    created.Report.Score,
		"findings": len(created.Report.Findings),
	})

	// 2. Persona Review
	color.Yellow("\n[2] POST /v1/persona-review")
	var persona dto.PersonaReviewResponse
	if err := c.post("/v1/persona-review", dto.PersonaReviewRequest{Text: text, Settings: settings, Config: cfg}, &persona); err != nil {
		fail(err)
	}
	prettyPrint(map[string]interface{}{
		"audience": persona.Audience,
		"verdict":  persona.Verdict,
		"total":    persona.Summary.Total,
	})

	// 3. Batch patch every finding
	color.Yellow("\n[3] POST /v1/patches/batch")
	workingText := text
	if len(created.Report.Findings) == 0 {
		color.Green("No findings, skipping patch step")
	} else {
		var batch dto.BatchPatchResponse
		req := dto.BatchPatchRequest{ReviewId: created.ReviewId, Text: text, Config: cfg}
		if err := c.post("/v1/patches/batch", req, &batch); err != nil {
			fail(err)
		}
		workingText = batch.Text
		for _, o := range batch.Outcomes {
			line := fmt.Sprintf("%-10s %s %s", o.Status, o.FindingID, o.Reason)
			if o.Status == patch.StatusApplied {
				color.Green("%s", line)
			} else {
				color.Yellow("%s", line)
			}
		}
		prettyPrint(batch.Counts)
	}

	// 4. Recheck
	color.Yellow("\n[4] POST /v1/reviews/%s/recheck", created.ReviewId)
	var rechecked dto.ReviewResponse
	recheckReq := dto.RecheckRequest{Text: workingText, Settings: settings, Config: cfg}
	if err := c.post("/v1/reviews/"+created.ReviewId+"/recheck", recheckReq, &rechecked); err != nil {
		fail(err)
	}
	score := rechecked.Report.Score
	prettyPrint(map[string]interface{}{
		"reviewId":      created.ReviewId,
		"verdict":       rechecked.Report.Verdict,
		"score":         score,
		"totalFindings": rechecked.Report.Summary.TotalFindings,
	})

	// 5. Release
	color.Yellow("\n[5] POST /v1/release (only if score >= %d)", releaseMinScore)
	if score < releaseMinScore {
		color.Yellow("Score %d < %d, skipping release", score, releaseMinScore)
		return
	}
	var released dto.ReleaseResponse
	releaseReq := dto.ReleaseRequest{ReviewId: created.ReviewId, Text: workingText, Settings: settings, Config: cfg}
	if err := c.post("/v1/release", releaseReq, &released); err != nil {
		fail(err)
	}
	prettyPrint(map[string]interface{}{
		"releaseId":       released.ReleaseId,
		"verdict":         released.Verdict,
		"publishedScope":  released.PublishedScope,
		"fixSummaryCount": len(released.FixSummary),
		"checklistCount":  len(released.Checklist),
	})

	if released.SafeMarkdown != "" {
		if err := os.WriteFile("safe_markdown.md", []byte(released.SafeMarkdown), 0o644); err != nil {
			fail(err)
		}
		color.Green("Wrote safe_markdown.md")
	}
}
