package responder

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI streams replies through the OpenAI chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// OpenAIOption configures the OpenAI responder.
type OpenAIOption func(*OpenAI)

// WithOpenAIModel overrides the default model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(r *OpenAI) {
		r.model = model
	}
}

// NewOpenAI creates an OpenAI responder with the given API key.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAI {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	r := &OpenAI{
		client: &client,
		model:  defaultOpenAIModel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Respond streams the model's reply for the given history.
func (r *OpenAI) Respond(ctx context.Context, history []Turn, send func(delta string) error) error {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		default:
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}

	stream := r.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:    r.model,
		Messages: messages,
	})
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if err := send(chunk.Choices[0].Delta.Content); err != nil {
				return err
			}
		}
	}
	return stream.Err()
}

var _ Responder = (*OpenAI)(nil)
