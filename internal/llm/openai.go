package llm

import (
	"context"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiClient implements ChatClient against any OpenAI-compatible
// chat completions endpoint.
type openaiClient struct {
	cfg      LLMConfig
	client   openai.Client
	observer Observer
}

// NewOpenAIClient creates a ChatClient backed by openai-go. An empty
// cfg.Endpoint uses the public API. Retries are driven by cfg.MaxRetries,
// not by the SDK.
func NewOpenAIClient(cfg LLMConfig, observer Observer) ChatClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.Endpoint, "/")+"/"))
	}
	return &openaiClient{
		cfg:      cfg,
		client:   openai.NewClient(opts...),
		observer: observer,
	}
}

func (c *openaiClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	temp, maxTok := c.cfg.sampling(req)
	params := openai.ChatCompletionNewParams{
		Messages:    toOpenAIMessages(req.Messages),
		Model:       openai.ChatModel(c.cfg.Model),
		Temperature: openai.Float(temp),
	}
	if maxTok > 0 {
		params.MaxCompletionTokens = openai.Int(int64(maxTok))
	}

	return callWithRetries(ctx, c.cfg, c.observer, req.Task, func(ctx context.Context) (string, string, error) {
		completion, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", "", err
		}
		if len(completion.Choices) == 0 {
			return "", completion.Model, nil
		}
		return completion.Choices[0].Message.Content, completion.Model, nil
	})
}

// Available reports whether the client has what it needs to make calls.
// The hosted API has no cheap unauthenticated probe.
func (c *openaiClient) Available(context.Context) bool {
	return c.cfg.APIKey != "" || c.cfg.Endpoint != ""
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
