package gemini_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/jorgelunams/contratospoc/internal/extract"
	"github.com/jorgelunams/contratospoc/internal/llm/gemini"
)

func TestInferContractSemantics(t *testing.T) {
	var prompt string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		prompt = string(data)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": `{"Contrato":{"tipo_contrato":"Anexo"}}`}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer ts.Close()

	ctx := context.Background()
	c, err := gemini.NewClient(ctx, gemini.Config{APIKey: "test-key"}, nil, option.WithEndpoint(ts.URL))
	require.NoError(t, err)
	defer c.Close()

	out, err := c.InferContractSemantics(ctx, extract.NewBundle([]string{"Contrato de arriendo"}))
	require.NoError(t, err)
	assert.Equal(t, `{"Contrato":{"tipo_contrato":"Anexo"}}`, out)
	assert.Contains(t, prompt, "Contrato de arriendo")
	assert.Contains(t, prompt, "application/json")
}

func TestMissingAPIKey(t *testing.T) {
	_, err := gemini.NewClient(context.Background(), gemini.Config{}, nil)
	assert.ErrorContains(t, err, "gemini api key not configured")
}
