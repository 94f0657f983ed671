package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"docuchat/internal/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Embedder calls Ollama's embedding endpoint. Repeated texts are served from
// an in-process LRU so reformulated queries that resolve to the same wording
// skip the round trip.
type Embedder struct {
	BaseURL string
	Model   string
	Client  *http.Client
	cache   *expirable.LRU[string, []float32]
	logger  *slog.Logger
}

// NewEmbedder constructs an Embedder. cacheSize <= 0 disables the cache.
// If client is nil, a default http.Client with a 30s timeout is used.
func NewEmbedder(baseURL, model string, cacheSize int, cacheTTL time.Duration, logger *slog.Logger, client *http.Client) *Embedder {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	var cache *expirable.LRU[string, []float32]
	if cacheSize > 0 {
		cache = expirable.NewLRU[string, []float32](cacheSize, nil, cacheTTL)
	}
	return &Embedder{
		BaseURL: baseURL,
		Model:   model,
		Client:  client,
		cache:   cache,
		logger:  logger,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if e.cache != nil {
			if vec, ok := e.cache.Get(text); ok {
				result[i] = vec
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return result, nil
	}

	start := time.Now()
	e.logger.Info("embed_started",
		slog.Int("text_count", len(texts)),
		slog.Int("cache_hits", len(texts)-len(missing)),
		slog.String("model", e.Model))

	payload, err := json.Marshal(embedRequest{Model: e.Model, Input: missing})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	url := fmt.Sprintf("%s/api/embed", e.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		e.logger.Error("embed_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to call embedding endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		e.logger.Error("embed_bad_status",
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("embedding endpoint returned status %d", resp.StatusCode)
	}

	var body embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(body.Embeddings) != len(missing) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(missing), len(body.Embeddings))
	}

	for i, vec := range body.Embeddings {
		result[missingIdx[i]] = vec
		if e.cache != nil {
			e.cache.Add(missing[i], vec)
		}
	}

	e.logger.Info("embed_completed",
		slog.Int("embedding_count", len(body.Embeddings)),
		slog.Duration("elapsed", time.Since(start)))

	return result, nil
}

func (e *Embedder) Version() string {
	return e.Model
}

var _ domain.VectorEncoder = (*Embedder)(nil)
