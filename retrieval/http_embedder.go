package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/randalmurphal/promptchain/provider"
)

const embedderName = "embeddings"

// HTTPEmbedderOptions configures an HTTPEmbedder.
type HTTPEmbedderOptions struct {
	// URL is the full embeddings endpoint, e.g. "http://localhost:8000/v1/embeddings".
	URL    string
	Model  string
	APIKey string

	// Timeout bounds each request. Zero means 30s.
	Timeout time.Duration

	// HTTPClient overrides the traced default client.
	HTTPClient *http.Client
}

// HTTPEmbedder calls an OpenAI-compatible /v1/embeddings endpoint.
type HTTPEmbedder struct {
	url    string
	model  string
	apiKey string
	client *http.Client
}

// NewHTTPEmbedder creates an embedder for opts.URL.
func NewHTTPEmbedder(opts HTTPEmbedderOptions) (*HTTPEmbedder, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("retrieval: embeddings URL is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("retrieval: embeddings model is required")
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &HTTPEmbedder{url: opts.URL, model: opts.Model, apiKey: opts.APIKey, client: client}, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type embeddingResponse struct {
	Data []embeddingData `json:"data"`
}

// Embed implements Embedder. Rate limits and server errors come back as
// transient provider errors.
func (e *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(embeddingRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, provider.NewTransientError(embedderName, "embed", fmt.Errorf("%w: %w", provider.ErrTimeout, ctx.Err()))
		}
		return nil, provider.NewTransientError(embedderName, "embed", fmt.Errorf("%w: %w", provider.ErrUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, classifyStatus(resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrEmbedding, err)
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbedding, len(out.Data), len(texts))
	}
	slices.SortFunc(out.Data, func(a, b embeddingData) int { return a.Index - b.Index })
	vectors := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

func classifyStatus(code int, msg string) error {
	err := fmt.Errorf("embeddings endpoint returned status %d: %s", code, msg)
	switch {
	case code == http.StatusTooManyRequests:
		return provider.NewTransientError(embedderName, "embed", fmt.Errorf("%w: %w", provider.ErrRateLimited, err))
	case code == http.StatusPaymentRequired:
		return provider.NewQuotaError(embedderName, "embed", err)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return provider.NewError(embedderName, "embed", fmt.Errorf("%w: %w", provider.ErrCredentialsNotFound, err), false)
	case code >= 500:
		return provider.NewTransientError(embedderName, "embed", fmt.Errorf("%w: %w", provider.ErrUnavailable, err))
	default:
		return provider.NewError(embedderName, "embed", fmt.Errorf("%w: %w", provider.ErrInvalidRequest, err), false)
	}
}

var _ Embedder = (*HTTPEmbedder)(nil)
