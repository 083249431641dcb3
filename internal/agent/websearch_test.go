package agent

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type oneShotModels struct {
	config *genai.GenerateContentConfig
	resp   *genai.GenerateContentResponse
	err    error
}

func (o *oneShotModels) GenerateContent(_ context.Context, _ string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	o.config = config
	return o.resp, o.err
}

func TestGroundedSearch(t *testing.T) {
	models := &oneShotModels{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: "Go 1.25 was released."}}},
			GroundingMetadata: &genai.GroundingMetadata{
				GroundingChunks: []*genai.GroundingChunk{
					{Web: &genai.GroundingChunkWeb{Title: "go.dev", URI: "https://go.dev/doc/go1.25"}},
					{},
				},
			},
		}},
	}}

	answer, err := NewGroundedSearch(models, "m").Search(context.Background(), "latest go release")
	require.NoError(t, err)

	require.Len(t, models.config.Tools, 1)
	assert.NotNil(t, models.config.Tools[0].GoogleSearch)
	assert.Equal(t, "Go 1.25 was released.", answer.Summary)
	assert.Equal(t, []WebSource{{Title: "go.dev", URL: "https://go.dev/doc/go1.25"}}, answer.Sources)
}

func TestGroundedSearchError(t *testing.T) {
	_, err := NewGroundedSearch(&oneShotModels{err: errors.New("403")}, "m").Search(context.Background(), "q")
	assert.ErrorContains(t, err, "403")
}
