// Package responder turns conversation history into streamed assistant
// replies. Implementations wrap model provider SDKs; the dev server picks
// one from the environment and falls back to scripted replies when no
// provider is configured.
package responder

import (
	"context"
	"os"
)

// Role labels one side of the conversation history.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one settled message in the conversation history.
type Turn struct {
	Role Role
	Text string
}

// Responder generates the assistant reply for a conversation, delivering
// it incrementally through send. Respond returns after the reply is
// complete or the context is cancelled.
type Responder interface {
	Respond(ctx context.Context, history []Turn, send func(delta string) error) error
}

// FromEnv picks a responder from API keys in the environment. OpenAI is
// preferred when both are set. Returns nil when neither is configured.
func FromEnv() Responder {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		opts := []OpenAIOption{}
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			opts = append(opts, WithOpenAIModel(model))
		}
		return NewOpenAI(key, opts...)
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		opts := []AnthropicOption{}
		if model := os.Getenv("ANTHROPIC_MODEL"); model != "" {
			opts = append(opts, WithAnthropicModel(model))
		}
		return NewAnthropic(key, opts...)
	}
	return nil
}
