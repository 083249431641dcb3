package analyzer

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkg/errors"
)

// OpenAIBackend serves text and vision prompts through chat completions.
type OpenAIBackend struct {
	client openai.Client
	model  string
}

func NewOpenAIBackend(baseURL, apiKey, model string) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, errors.New("analyzer: OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIBackend{client: openai.NewClient(opts...), model: model}, nil
}

func (b *OpenAIBackend) Generate(ctx context.Context, prompt string) (Reply, error) {
	return b.complete(ctx, openai.UserMessage(prompt))
}

func (b *OpenAIBackend) Describe(ctx context.Context, prompt string, image Image) (Reply, error) {
	return b.complete(ctx, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(prompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: image.DataURI()}),
	}))
}

func (b *OpenAIBackend) complete(ctx context.Context, message openai.ChatCompletionMessageParamUnion) (Reply, error) {
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{message},
	})
	if err != nil {
		return Reply{}, errors.Wrap(err, "openai: chat completion")
	}
	if len(resp.Choices) == 0 {
		return Reply{}, nil
	}
	return Reply{Output: resp.Choices[0].Message.Content}, nil
}
