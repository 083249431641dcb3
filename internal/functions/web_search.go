package functions

import (
	"context"

	"github.com/m2tx/chat_orchestrator/internal/agent"
	"github.com/pkg/errors"
)

const WebSearchName = "web_search"

// WebSearcher answers a query from the public web.
type WebSearcher interface {
	Search(ctx context.Context, query string) (*agent.WebAnswer, error)
}

// CreateWebSearchFunctionDeclaration returns a tool that searches the web.
func CreateWebSearchFunctionDeclaration(searcher WebSearcher) *agent.FunctionDeclaration {
	return &agent.FunctionDeclaration{
		Name:        WebSearchName,
		Description: "Searches the public web for current information, news or facts that are not in the conversation or the internal documents.",
		ParametersSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
			},
			"required": []string{"query"},
		},
		ResponseSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary": map[string]any{
					"type":        "string",
					"description": "Answer synthesized from the search results",
				},
				"sources": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title": map[string]any{"type": "string"},
							"url":   map[string]any{"type": "string"},
						},
					},
				},
			},
		},
		FunctionCall: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			query, ok := args["query"].(string)
			if !ok || query == "" {
				return nil, errors.Errorf("%s: query argument is required", WebSearchName)
			}

			answer, err := searcher.Search(ctx, query)
			if err != nil {
				return nil, errors.Wrap(err, WebSearchName)
			}
			if answer == nil {
				answer = &agent.WebAnswer{}
			}

			sources := make([]map[string]any, 0, len(answer.Sources))
			for _, s := range answer.Sources {
				sources = append(sources, map[string]any{"title": s.Title, "url": s.URL})
			}

			return map[string]any{
				"summary": answer.Summary,
				"sources": sources,
			}, nil
		},
	}
}
