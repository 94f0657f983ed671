package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"docuchat/internal/domain"
	"docuchat/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestRewriteQuery_Success(t *testing.T) {
	history := domain.NewHistory()
	history.Append(domain.Turn{Role: domain.RoleUser, Text: "Tell me about the Acme 3000."})
	history.Append(domain.Turn{Role: domain.RoleModel, Text: "The Acme 3000 is a widget."})

	gen := new(MockGenerator)
	gen.On("Chat", mock.Anything, mock.MatchedBy(func(system string) bool {
		return strings.Contains(system, "query rewriting expert")
	}), mock.MatchedBy(func(turns []domain.Turn) bool {
		// The generator must see the raw follow-up as the latest turn.
		return len(turns) == 3 && turns[2].Text == "what about its pricing?"
	})).Return("What is the pricing of the Acme 3000?", nil)

	uc := usecase.NewRewriteQueryUsecase(history, gen, time.Now(), discardLogger())

	lenBefore := history.Len()
	rewritten, elapsed, err := uc.Execute(context.Background(), "what about its pricing?")
	require.NoError(t, err)

	assert.Equal(t, "What is the pricing of the Acme 3000?", rewritten)
	assert.GreaterOrEqual(t, elapsed, 0.0)
	assert.Equal(t, lenBefore, history.Len(), "rewrite must not leave a net change in history length")
}

func TestRewriteQuery_GeneratorFailure_RemovesTransientTurn(t *testing.T) {
	history := domain.NewHistory()

	gen := new(MockGenerator)
	gen.On("Chat", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("connection refused"))

	uc := usecase.NewRewriteQueryUsecase(history, gen, time.Now(), discardLogger())

	lenBefore := history.Len()
	_, _, err := uc.Execute(context.Background(), "what about its pricing?")
	require.Error(t, err)

	assert.Equal(t, lenBefore, history.Len(), "failed rewrite must not leak the transient turn")
}
