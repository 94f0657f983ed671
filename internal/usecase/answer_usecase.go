package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docuchat/internal/domain"
)

// ContextDelimiter separates passages inside the assembled context string and
// is the split point for source extraction.
const ContextDelimiter = "\n\n---\n\n"

// FallbackAnswer is the fixed sentence the generator is instructed to return
// when the context does not contain the answer.
const FallbackAnswer = "I could not find the answer in the provided document."

const answerInstructionFormat = `You will be given a context of relevant information and a user question.
Your task is to answer the user's question based ONLY on the provided context.
If the answer is not in the context, you must say:
"I could not find the answer in the provided document."
Keep your answers clear, concise, and educational.

Context: %s`

// AnswerResult carries the generated answer together with the assembled
// context string the orchestrator splits sources out of.
type AnswerResult struct {
	Answer  string
	Context string
	// Elapsed is wall-clock seconds since process start.
	Elapsed float64
	// TokenEstimate is the whitespace word count of query plus context, a
	// crude proxy rather than a tokenizer count. It is user-visible output,
	// so changing the estimator is a behavior change.
	TokenEstimate int
}

// AnswerUsecase produces an answer grounded in the retrieved passages and
// durably records the exchange in the shared conversation history.
type AnswerUsecase interface {
	Execute(ctx context.Context, query string, passages []domain.RetrievedPassage) (*AnswerResult, error)
}

type answerUsecase struct {
	history   *domain.History
	generator domain.Generator
	startedAt time.Time
	logger    *slog.Logger
}

// NewAnswerUsecase creates an AnswerUsecase.
func NewAnswerUsecase(history *domain.History, generator domain.Generator, startedAt time.Time, logger *slog.Logger) AnswerUsecase {
	return &answerUsecase{
		history:   history,
		generator: generator,
		startedAt: startedAt,
		logger:    logger,
	}
}

// Execute appends the query and the generated answer to the history
// permanently. Grounding is enforced only through the instruction: the
// generator is trusted to obey it, no local fact-checking happens. If
// generation fails, the user turn stays appended without a model turn; that
// inconsistency is accepted.
func (u *answerUsecase) Execute(ctx context.Context, query string, passages []domain.RetrievedPassage) (*AnswerResult, error) {
	parts := make([]string, len(passages))
	for i, p := range passages {
		parts[i] = p.Text
	}
	contextStr := strings.Join(parts, ContextDelimiter)

	u.history.Append(domain.Turn{Role: domain.RoleUser, Text: query})

	instruction := fmt.Sprintf(answerInstructionFormat, contextStr)
	answer, err := u.generator.Chat(ctx, instruction, u.history.Snapshot())
	if err != nil {
		u.logger.Warn("answer_generation_failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	u.history.Append(domain.Turn{Role: domain.RoleModel, Text: answer})

	tokens := len(strings.Fields(query)) + len(strings.Fields(contextStr))

	u.logger.Info("answer_generated",
		slog.Int("passage_count", len(passages)),
		slog.Int("token_estimate", tokens))

	return &AnswerResult{
		Answer:        answer,
		Context:       contextStr,
		Elapsed:       time.Since(u.startedAt).Seconds(),
		TokenEstimate: tokens,
	}, nil
}
