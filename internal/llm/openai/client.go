package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jorgelunams/contratospoc/internal/extract"
	"github.com/jorgelunams/contratospoc/internal/llm"
)

// InferContractSemantics sends the contract prompt as a single user message
// and returns the model's text. The text is not guaranteed to be valid JSON.
func (c *Client) InferContractSemantics(ctx context.Context, bundle extract.PageTextBundle) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	prompt := llm.BuildContractPrompt(bundle)

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"provider", c.cfg.Provider,
		"model", c.cfg.Model,
		"pages", len(bundle.Pages),
		"prompt_len", len(prompt),
	)

	body := map[string]any{
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
		"max_completion_tokens": c.cfg.MaxCompletionTokens,
	}
	if c.cfg.Provider == ProviderOpenAI {
		body["model"] = c.cfg.Model
	}
	if c.cfg.Temperature != 0 {
		body["temperature"] = c.cfg.Temperature
	}

	raw, err := c.caller.PostJSON(ctx, c.endpoint(), body, c.headers())
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("no choices in chat completion")
	}
	choice := cc.Choices[0]
	if strings.TrimSpace(choice.Message.Content) == "" {
		c.logger.Error("llm.extract.empty_content", "req_id", rid, "finish_reason", choice.FinishReason)
		return "", fmt.Errorf("empty completion (finish_reason=%s)", choice.FinishReason)
	}

	content := llm.Inspect(choice.Message.Content, c.cfg.ValidateSchema, c.logger, "req_id", rid)
	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"finish_reason", choice.FinishReason,
		"prompt_tokens", cc.Usage.PromptTokens,
		"completion_tokens", cc.Usage.CompletionTokens,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func (c *Client) endpoint() string {
	if c.cfg.Provider == ProviderOpenAI {
		return c.cfg.Endpoint + "/chat/completions"
	}
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.cfg.Endpoint, url.PathEscape(c.cfg.Model), url.QueryEscape(c.cfg.APIVersion))
}

func (c *Client) headers() map[string]string {
	if c.cfg.Provider == ProviderOpenAI {
		return map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	}
	return map[string]string{"api-key": c.cfg.APIKey}
}
