package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// ChunkerVersion identifies the chunking algorithm used for a document, so a
// future algorithm change can be detected against stored passages.
type ChunkerVersion string

// ChunkerVersionV1 is the paragraph chunker with short-merge and long-split.
const ChunkerVersionV1 ChunkerVersion = "v1"

const (
	// MinChunkLength is the minimum chunk length in runes. Shorter
	// paragraphs are merged with a neighbor.
	MinChunkLength = 80
	// MaxChunkLength is the maximum chunk length in runes. Longer
	// paragraphs are split at sentence boundaries.
	MaxChunkLength = 1000
)

// Chunk is a single piece of a document.
type Chunk struct {
	Ordinal int
	Content string
	Hash    string // SHA-256 of the content
}

// Chunker splits document text into chunks suitable for embedding.
type Chunker interface {
	Chunk(body string) ([]Chunk, error)
	Version() ChunkerVersion
}

type paragraphChunker struct{}

// NewChunker creates the default paragraph-based Chunker.
func NewChunker() Chunker {
	return &paragraphChunker{}
}

func (c *paragraphChunker) Version() ChunkerVersion {
	return ChunkerVersionV1
}

// Chunk splits the body at blank lines, merges paragraphs shorter than
// MinChunkLength into a neighbor, and splits paragraphs longer than
// MaxChunkLength at sentence boundaries.
func (c *paragraphChunker) Chunk(body string) ([]Chunk, error) {
	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var paragraphs []string
	for _, part := range strings.Split(normalized, "\n\n") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	pieces := splitLong(mergeShort(paragraphs))

	var chunks []Chunk
	for i, content := range pieces {
		sum := sha256.Sum256([]byte(content))
		chunks = append(chunks, Chunk{
			Ordinal: i,
			Content: content,
			Hash:    hex.EncodeToString(sum[:]),
		})
	}
	return chunks, nil
}

// mergeShort folds paragraphs shorter than MinChunkLength into the following
// paragraph; a trailing short paragraph joins the preceding one.
func mergeShort(paragraphs []string) []string {
	var merged []string
	var pending string

	for _, para := range paragraphs {
		if pending != "" {
			para = pending + "\n\n" + para
			pending = ""
		}
		if utf8.RuneCountInString(para) < MinChunkLength {
			pending = para
			continue
		}
		merged = append(merged, para)
	}

	if pending != "" {
		if len(merged) > 0 {
			merged[len(merged)-1] += "\n\n" + pending
		} else {
			merged = append(merged, pending)
		}
	}
	return merged
}

// splitLong breaks paragraphs longer than MaxChunkLength at sentence
// boundaries, packing sentences greedily up to the limit.
func splitLong(paragraphs []string) []string {
	var result []string
	for _, para := range paragraphs {
		if utf8.RuneCountInString(para) <= MaxChunkLength {
			result = append(result, para)
			continue
		}

		var current string
		for _, sentence := range splitSentences(para) {
			curLen := utf8.RuneCountInString(current)
			if curLen > 0 && curLen+1+utf8.RuneCountInString(sentence) > MaxChunkLength {
				result = append(result, current)
				current = sentence
				continue
			}
			if current != "" {
				current += " "
			}
			current += sentence
		}
		if current != "" {
			result = append(result, current)
		}
	}
	return result
}

// splitSentences splits at . ! ? followed by whitespace or end of text.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' && runes[i+1] != '\n' {
			continue
		}
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
