package agent

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// ContentGenerator is the one-shot part of the genai models service.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// WebSource is a page a web answer was grounded on.
type WebSource struct {
	Title string
	URL   string
}

// WebAnswer is a grounded answer to a search query.
type WebAnswer struct {
	Summary string
	Sources []WebSource
}

// GroundedSearch answers queries with Gemini's Google Search grounding. It is
// a separate call because grounding cannot be combined with function calling
// in one request.
type GroundedSearch struct {
	models ContentGenerator
	model  string
}

func NewGroundedSearch(models ContentGenerator, model string) *GroundedSearch {
	return &GroundedSearch{models: models, model: model}
}

func (g *GroundedSearch) Search(ctx context.Context, query string) (*WebAnswer, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(query, genai.RoleUser),
	}, &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "web search")
	}

	answer := &WebAnswer{Summary: resp.Text()}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].GroundingMetadata == nil {
		return answer, nil
	}

	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		answer.Sources = append(answer.Sources, WebSource{Title: chunk.Web.Title, URL: chunk.Web.URI})
	}
	return answer, nil
}
