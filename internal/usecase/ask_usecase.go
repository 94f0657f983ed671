package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
)

// ErrEmptyQuestion is returned when the incoming question is empty or
// whitespace. It is raised before any pipeline stage runs.
var ErrEmptyQuestion = errors.New("no question provided")

// AskResult is the externally visible outcome of one conversational request.
type AskResult struct {
	Question       string
	RewrittenQuery string
	Answer         string
	Sources        []string
	Runtime        float64
	Tokens         int
}

// AskUsecase sequences rewrite, retrieval and answer generation for one
// incoming question and shapes the final response.
type AskUsecase interface {
	Execute(ctx context.Context, question string) (*AskResult, error)
}

type askUsecase struct {
	rewrite  RewriteQueryUsecase
	retrieve RetrieveContextUsecase
	answer   AnswerUsecase
	// serialize, when true, runs the whole pipeline under a mutex so
	// concurrent requests cannot interleave their history mutations. Off by
	// default to match the shared-history behavior of the original design.
	serialize bool
	mu        sync.Mutex
	logger    *slog.Logger
}

// NewAskUsecase creates an AskUsecase. serialize opts in to whole-pipeline
// serialization as a safety measure for concurrent deployments.
func NewAskUsecase(
	rewrite RewriteQueryUsecase,
	retrieve RetrieveContextUsecase,
	answer AnswerUsecase,
	serialize bool,
	logger *slog.Logger,
) AskUsecase {
	return &askUsecase{
		rewrite:   rewrite,
		retrieve:  retrieve,
		answer:    answer,
		serialize: serialize,
		logger:    logger,
	}
}

func (u *askUsecase) Execute(ctx context.Context, question string) (*AskResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	if u.serialize {
		u.mu.Lock()
		defer u.mu.Unlock()
	}

	rewritten, rewriteElapsed, err := u.rewrite.Execute(ctx, question)
	if err != nil {
		return nil, err
	}

	passages, err := u.retrieve.Execute(ctx, rewritten)
	if err != nil {
		return nil, err
	}

	res, err := u.answer.Execute(ctx, rewritten, passages)
	if err != nil {
		return nil, err
	}

	runtime := math.Round((rewriteElapsed+res.Elapsed)*100) / 100

	u.logger.Info("ask_completed",
		slog.String("question", truncate(question, 100)),
		slog.Float64("runtime", runtime),
		slog.Int("tokens", res.TokenEstimate))

	return &AskResult{
		Question:       question,
		RewrittenQuery: rewritten,
		Answer:         res.Answer,
		Sources:        citedSources(res.Context),
		Runtime:        runtime,
		Tokens:         res.TokenEstimate,
	}, nil
}

// citedSources splits the assembled context back into passages and keeps
// positions [1,3). The window starts at the second passage, so the top-ranked
// one never appears in the citation list. That matches the behavior existing
// clients were built against and is kept deliberately.
func citedSources(contextStr string) []string {
	parts := strings.Split(contextStr, ContextDelimiter)
	if len(parts) <= 1 {
		return []string{}
	}
	end := 3
	if len(parts) < end {
		end = len(parts)
	}
	return parts[1:end]
}
