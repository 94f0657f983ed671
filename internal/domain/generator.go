package domain

import "context"

// Generator defines the capability to produce text from a system instruction
// and the conversation so far.
type Generator interface {
	// Chat sends the system instruction together with the full conversation
	// history and returns the model's reply.
	Chat(ctx context.Context, system string, history []Turn) (string, error)
	Version() string
}
