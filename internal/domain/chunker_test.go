package domain

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_SplitsOnBlankLines(t *testing.T) {
	c := NewChunker()

	p1 := strings.Repeat("First paragraph sentence. ", 5)
	p2 := strings.Repeat("Second paragraph sentence. ", 5)
	chunks, err := c.Chunk(p1 + "\n\n" + p2)
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 1, chunks[1].Ordinal)
	assert.Equal(t, strings.TrimSpace(p1), chunks[0].Content)
}

func TestChunk_EmptyBodyYieldsNoChunks(t *testing.T) {
	c := NewChunker()

	chunks, err := c.Chunk("   \n\n  \n ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_MergesShortParagraphs(t *testing.T) {
	c := NewChunker()

	body := "Short heading\n\n" + strings.Repeat("A long enough paragraph follows the heading. ", 4)
	chunks, err := c.Chunk(body)
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "Short heading")
}

func TestChunk_TrailingShortParagraphJoinsPrevious(t *testing.T) {
	c := NewChunker()

	long := strings.Repeat("A long enough paragraph that stands on its own. ", 4)
	chunks, err := c.Chunk(long + "\n\nThe end.")
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "The end.")
}

func TestChunk_SplitsLongParagraphsAtSentences(t *testing.T) {
	c := NewChunker()

	body := strings.Repeat("This sentence is repeated to exceed the maximum chunk length. ", 40)
	chunks, err := c.Chunk(body)
	require.NoError(t, err)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk.Content), MaxChunkLength)
	}
}

func TestChunk_NormalizesWindowsNewlines(t *testing.T) {
	c := NewChunker()

	p := strings.Repeat("Paragraph text with enough length to stand alone here. ", 3)
	chunks, err := c.Chunk(p + "\r\n\r\n" + p)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestChunk_HashIsStable(t *testing.T) {
	c := NewChunker()

	body := strings.Repeat("Stable content for hashing purposes in this test. ", 3)
	first, err := c.Chunk(body)
	require.NoError(t, err)
	second, err := c.Chunk(body)
	require.NoError(t, err)

	require.Len(t, first, 1)
	assert.Equal(t, first[0].Hash, second[0].Hash)
	assert.Len(t, first[0].Hash, 64)
}
