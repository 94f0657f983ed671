package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"docuchat/internal/domain"
)

// Request is the payload for the rerank endpoint.
type Request struct {
	Query      string   `json:"query"`
	Candidates []string `json:"candidates"`
	Model      string   `json:"model,omitempty"`
	TopK       int      `json:"top_k,omitempty"`
}

// ResponseResult is a single entry in the rerank response, pointing back into
// the candidate list.
type ResponseResult struct {
	Index int     `json:"index"`
	Score float32 `json:"score"`
}

// Response is the payload returned by the rerank endpoint.
type Response struct {
	Results []ResponseResult `json:"results"`
	Model   string           `json:"model"`
}

// Client implements domain.Reranker via an HTTP cross-encoder service.
type Client struct {
	BaseURL string
	Model   string
	Client  *http.Client
	logger  *slog.Logger
}

// NewClient constructs a reranker client. If client is nil, a default
// http.Client is created with the given timeout.
func NewClient(baseURL, model string, timeout time.Duration, logger *slog.Logger, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  client,
		logger:  logger,
	}
}

// Rerank scores candidates against the query and returns at most topN index
// references ordered by relevance, most relevant first.
func (c *Client) Rerank(ctx context.Context, query string, candidates []string, topN int) ([]domain.RankedIndex, error) {
	if len(candidates) == 0 {
		return []domain.RankedIndex{}, nil
	}

	start := time.Now()
	c.logger.Info("reranking_started",
		slog.Int("candidate_count", len(candidates)),
		slog.Int("top_n", topN),
		slog.String("model", c.Model))

	payload, err := json.Marshal(Request{
		Query:      query,
		Candidates: candidates,
		Model:      c.Model,
		TopK:       topN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/rerank", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		c.logger.Warn("reranking_failed",
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("failed to call rerank endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("reranking_failed",
			slog.Int("status_code", resp.StatusCode),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("rerank endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var rerankResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}

	results := rerankResp.Results
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}

	ranked := make([]domain.RankedIndex, len(results))
	for i, r := range results {
		if r.Index < 0 || r.Index >= len(candidates) {
			return nil, fmt.Errorf("invalid result index %d for %d candidates", r.Index, len(candidates))
		}
		ranked[i] = domain.RankedIndex{Index: r.Index, Score: r.Score}
	}

	c.logger.Info("reranking_completed",
		slog.Int("result_count", len(ranked)),
		slog.String("model", rerankResp.Model),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	return ranked, nil
}

// ModelName returns the model identifier for logging.
func (c *Client) ModelName() string {
	return c.Model
}

var _ domain.Reranker = (*Client)(nil)
