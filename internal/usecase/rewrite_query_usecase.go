package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"docuchat/internal/domain"
)

const rewriteInstruction = `You are a query rewriting expert.
Based on the provided chat history, rephrase the "Follow Up user Question"
into a complete, standalone question that can be understood without the chat history.
Only output the rewritten question and nothing else.`

// RewriteQueryUsecase turns a possibly context-dependent follow-up question
// into a standalone query using the shared conversation history.
type RewriteQueryUsecase interface {
	// Execute returns the standalone query and wall-clock seconds elapsed
	// since process start.
	Execute(ctx context.Context, question string) (string, float64, error)
}

type rewriteQueryUsecase struct {
	history   *domain.History
	generator domain.Generator
	startedAt time.Time
	logger    *slog.Logger
}

// NewRewriteQueryUsecase creates a RewriteQueryUsecase. startedAt is the
// process start time used as the epoch for elapsed-time reporting.
func NewRewriteQueryUsecase(history *domain.History, generator domain.Generator, startedAt time.Time, logger *slog.Logger) RewriteQueryUsecase {
	return &rewriteQueryUsecase{
		history:   history,
		generator: generator,
		startedAt: startedAt,
		logger:    logger,
	}
}

// Execute appends the raw question as a transient user turn so the generator
// sees it as the latest utterance, then removes it again on every exit path:
// the raw follow-up phrasing must never remain in the shared history.
func (u *rewriteQueryUsecase) Execute(ctx context.Context, question string) (string, float64, error) {
	u.history.Append(domain.Turn{Role: domain.RoleUser, Text: question})
	defer u.history.RemoveLast()

	rewritten, err := u.generator.Chat(ctx, rewriteInstruction, u.history.Snapshot())
	if err != nil {
		u.logger.Warn("query_rewrite_failed", slog.String("error", err.Error()))
		return "", 0, fmt.Errorf("failed to rewrite query: %w", err)
	}

	u.logger.Info("query_rewritten",
		slog.String("question", truncate(question, 100)),
		slog.String("rewritten", truncate(rewritten, 100)))

	return rewritten, time.Since(u.startedAt).Seconds(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
