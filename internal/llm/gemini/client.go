package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/jorgelunams/contratospoc/internal/extract"
	"github.com/jorgelunams/contratospoc/internal/llm"
)

type Config struct {
	APIKey          string
	Model           string // default "gemini-1.5-pro"
	Temperature     float32
	MaxOutputTokens int32
	ValidateSchema  bool
}

// Client extracts contract semantics with a Gemini model in JSON mode.
type Client struct {
	client *genai.Client
	cfg    Config
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key not configured")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-pro"
	}
	client, err := genai.NewClient(ctx, append(opts, option.WithAPIKey(cfg.APIKey))...)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, cfg: cfg, logger: logger}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) InferContractSemantics(ctx context.Context, bundle extract.PageTextBundle) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	model := c.client.GenerativeModel(c.cfg.Model)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(c.cfg.Temperature)
	if c.cfg.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(c.cfg.MaxOutputTokens)
	}

	prompt := llm.BuildContractPrompt(bundle)
	c.logger.Info("llm.extract.start", "req_id", rid, "provider", "gemini", "model", c.cfg.Model, "pages", len(bundle.Pages), "prompt_len", len(prompt))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Error("llm.extract.generate_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		break
	}
	if strings.TrimSpace(sb.String()) == "" {
		c.logger.Error("llm.extract.empty_content", "req_id", rid, "candidates", len(resp.Candidates))
		return "", errors.New("empty gemini response")
	}

	content := llm.Inspect(sb.String(), c.cfg.ValidateSchema, c.logger, "req_id", rid)
	c.logger.Info("llm.extract.ok", "req_id", rid, "content_len", len(content), "elapsed_ms", time.Since(start).Milliseconds())
	return content, nil
}
