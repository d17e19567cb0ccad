// File: internal/oracle/client.go
package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	stdjson "encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/storyhud/storyhud/internal/faults"
)

// Config describes the OpenAI-compatible vision endpoint and its sampling
// parameters.
type Config struct {
	URL              string
	Model            string
	Timeout          time.Duration
	Temperature      float64
	TopP             float64
	MaxTokens        int
	FrequencyPenalty float64
	// MinCallInterval throttles decision calls so a local VLM is never
	// hammered faster than it can serve.
	MinCallInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:              "http://localhost:1234/v1/chat/completions",
		Model:            "qwen3-vl-2b-instruct",
		Timeout:          30 * time.Second,
		Temperature:      0.7,
		TopP:             0.8,
		MaxTokens:        800,
		FrequencyPenalty: 1.1,
	}
}

// Client talks to the decision oracle: one PNG in, one raw text response
// out. The oracle is stateless; all continuity rides inside the image.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.MinCallInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.MinCallInterval), 1)
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		logger:     logger.Named("oracle"),
	}
}

// -- OpenAI-compatible chat payloads (internal to this file) --

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             float64       `json:"top_p,omitempty"`
	FrequencyPenalty float64       `json:"frequency_penalty,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content stdjson.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Decide submits the current screenshot and returns the raw model text.
// goal is included only on the first call of a run; afterwards the on-screen
// story carries it. Transport failures, timeouts and malformed HTTP bodies
// are all fatal for the call and classified as transport failures.
func (c *Client) Decide(ctx context.Context, png []byte, goal string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	text := "Continue story-memory from overlay. Output JSON."
	if goal != "" {
		text = fmt.Sprintf("GOAL: %s\n\n%s", goal, text)
	}

	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: text},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
				}},
			}},
		},
		Temperature:      c.cfg.Temperature,
		MaxTokens:        c.cfg.MaxTokens,
		TopP:             c.cfg.TopP,
		FrequencyPenalty: c.cfg.FrequencyPenalty,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", faults.Wrap(faults.ClassTransport, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", faults.Wrap(faults.ClassTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", faults.Wrap(faults.ClassTransport, fmt.Errorf("oracle call failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", faults.Wrap(faults.ClassTransport, fmt.Errorf("read oracle response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return "", faults.New(faults.ClassTransport, "oracle returned HTTP %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", faults.Wrap(faults.ClassTransport, fmt.Errorf("invalid oracle envelope: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", faults.New(faults.ClassTransport, "oracle response has no choices")
	}

	content, err := flattenContent(parsed.Choices[0].Message.Content)
	if err != nil {
		return "", faults.Wrap(faults.ClassTransport, err)
	}

	c.logger.Debug("oracle responded",
		zap.Duration("latency", time.Since(start)),
		zap.Int("image_bytes", len(png)),
		zap.Int("content_bytes", len(content)))
	return content, nil
}

// flattenContent accepts both content shapes the API allows: a plain string
// or a list of typed parts.
func flattenContent(raw stdjson.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", fmt.Errorf("unrecognized message content shape")
	}
	var buf bytes.Buffer
	for _, p := range parts {
		buf.WriteString(p.Text)
	}
	return buf.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
