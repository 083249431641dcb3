package functions

import (
	"context"
	"math"

	"github.com/m2tx/chat_orchestrator/internal/agent"
	"github.com/pkg/errors"
)

const (
	VectorSearchName = "vector_search"
	defaultTopK      = 3
	maxTopK          = 10
)

// PassageSearcher finds indexed passages similar to a query.
type PassageSearcher interface {
	Search(query string, topK int) []agent.Match
}

// CreateVectorSearchFunctionDeclaration returns a tool that semantically
// searches the indexed document library.
func CreateVectorSearchFunctionDeclaration(index PassageSearcher) *agent.FunctionDeclaration {
	return &agent.FunctionDeclaration{
		Name:        VectorSearchName,
		Description: "Semantic search over the internal document library. Use it whenever the user asks about topics that may be covered by internal documentation.",
		ParametersSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What information you need, in natural language",
				},
				"top_k": map[string]any{
					"type":        "integer",
					"description": "Maximum number of passages to return (default 3, at most 10)",
				},
			},
			"required": []string{"query"},
		},
		ResponseSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"results": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"source": map[string]any{
								"type":        "string",
								"description": "Source document filename",
							},
							"content": map[string]any{
								"type":        "string",
								"description": "Relevant excerpt from the document",
							},
							"score": map[string]any{
								"type":        "number",
								"description": "Similarity between 0 and 1",
							},
						},
					},
				},
			},
		},
		FunctionCall: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			query, ok := args["query"].(string)
			if !ok || query == "" {
				return nil, errors.Errorf("%s: query argument is required", VectorSearchName)
			}

			matches := index.Search(query, topK(args["top_k"]))

			results := make([]map[string]any, 0, len(matches))
			for _, m := range matches {
				results = append(results, map[string]any{
					"source":  m.Source,
					"content": m.Text,
					"score":   math.Round(float64(m.Score)*1000) / 1000,
				})
			}

			return map[string]any{"results": results}, nil
		},
	}
}

// topK reads the optional top_k argument; JSON numbers arrive as float64.
func topK(v any) int {
	n, ok := v.(float64)
	if !ok || n < 1 {
		return defaultTopK
	}
	return min(int(n), maxTopK)
}
