package responder

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-20250514"

// Anthropic streams replies through the Anthropic messages API.
type Anthropic struct {
	client *anthropic.Client
	model  string
}

// AnthropicOption configures the Anthropic responder.
type AnthropicOption func(*Anthropic)

// WithAnthropicModel overrides the default model.
func WithAnthropicModel(model string) AnthropicOption {
	return func(r *Anthropic) {
		r.model = model
	}
}

// NewAnthropic creates an Anthropic responder with the given API key.
func NewAnthropic(apiKey string, opts ...AnthropicOption) *Anthropic {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	r := &Anthropic{
		client: &client,
		model:  defaultAnthropicModel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Respond streams the model's reply for the given history.
func (r *Anthropic) Respond(ctx context.Context, history []Turn, send func(delta string) error) error {
	messages := make([]anthropic.MessageParam, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Text)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Text)))
		}
	}

	stream := r.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: 4096,
		Messages:  messages,
	})
	for stream.Next() {
		event := stream.Current()
		if event.Type == "content_block_delta" {
			delta := event.AsContentBlockDelta()
			if textDelta := delta.Delta.AsTextDelta(); textDelta.Type == "text_delta" {
				if err := send(textDelta.Text); err != nil {
					return err
				}
			}
		}
	}
	return stream.Err()
}

var _ Responder = (*Anthropic)(nil)
