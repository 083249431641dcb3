package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkg/errors"
)

const defaultModerationModel = "omni-moderation-latest"

// OpenAIClassifier uses the OpenAI moderation endpoint.
type OpenAIClassifier struct {
	client openai.Client
	model  string
}

// NewOpenAIClassifier creates a classifier. baseURL and model may be empty.
func NewOpenAIClassifier(baseURL, apiKey, model string) (*OpenAIClassifier, error) {
	if apiKey == "" {
		return nil, errors.New("moderation: OpenAI API key is required")
	}
	if model == "" {
		model = defaultModerationModel
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClassifier{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (Verdict, error) {
	resp, err := c.client.Moderations.New(ctx, openai.ModerationNewParams{
		Model: openai.ModerationModel(c.model),
		Input: openai.ModerationNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return Verdict{}, errors.Wrap(err, "openai moderation")
	}

	for _, r := range resp.Results {
		if r.Flagged {
			return Verdict{Flagged: true, DenialMessage: denialFor(flaggedCategories(r.Categories.RawJSON()))}, nil
		}
	}

	return Verdict{}, nil
}

// flaggedCategories lists the category names set to true in the raw
// categories object, sorted.
func flaggedCategories(raw string) []string {
	var categories map[string]bool
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		return nil
	}

	var names []string
	for name, flagged := range categories {
		if flagged {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func denialFor(categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	return fmt.Sprintf("Sorry, I can't help with that. Your message was flagged for: %s.", strings.Join(categories, ", "))
}
