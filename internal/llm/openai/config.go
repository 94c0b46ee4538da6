package openai

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jorgelunams/contratospoc/internal/llm"
)

const (
	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"
)

// Config for the chat completions client.
type Config struct {
	Provider            string        // "azure" (default) or "openai"
	Endpoint            string        // azure resource URL, or base URL for openai (default https://api.openai.com/v1)
	APIKey              string        // if empty, falls back to env AZURE_OPENAI_API_KEY / OPENAI_API_KEY
	Model               string        // azure deployment or openai model, default "o1-mini"
	APIVersion          string        // azure only, default "2024-12-01-preview"
	Temperature         float32       // omitted when zero; reasoning models reject it
	MaxCompletionTokens int           // default 35000
	Timeout             time.Duration // http client timeout
	ValidateSchema      bool
}

type Client struct {
	cfg    Config
	caller *llm.Caller
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Provider == "" {
		cfg.Provider = ProviderAzure
	}
	if cfg.APIKey == "" {
		if cfg.Provider == ProviderAzure {
			cfg.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
		} else {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if cfg.Endpoint == "" && cfg.Provider == ProviderOpenAI {
		cfg.Endpoint = "https://api.openai.com/v1"
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.Model == "" {
		cfg.Model = "o1-mini"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-12-01-preview"
	}
	if cfg.MaxCompletionTokens <= 0 {
		cfg.MaxCompletionTokens = 35000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg: cfg,
		caller: &llm.Caller{
			Client: &http.Client{Timeout: cfg.Timeout},
			Logger: logger,
		},
		logger: logger,
	}
}
