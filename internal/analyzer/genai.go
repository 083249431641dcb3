package analyzer

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// ContentGenerator is the one-shot part of the genai models service.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIBackend serves both text and vision prompts through Gemini.
type GenAIBackend struct {
	models      ContentGenerator
	model       string
	visionModel string
}

func NewGenAIBackend(models ContentGenerator, model, visionModel string) *GenAIBackend {
	if visionModel == "" {
		visionModel = model
	}
	return &GenAIBackend{models: models, model: model, visionModel: visionModel}
}

func (b *GenAIBackend) Generate(ctx context.Context, prompt string) (Reply, error) {
	resp, err := b.models.GenerateContent(ctx, b.model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, nil)
	if err != nil {
		return Reply{}, errors.Wrap(err, "genai: generate")
	}
	return replyFromGenAI(resp), nil
}

func (b *GenAIBackend) Describe(ctx context.Context, prompt string, image Image) (Reply, error) {
	resp, err := b.models.GenerateContent(ctx, b.visionModel, []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(image.Data, image.MIMEType),
		}, genai.RoleUser),
	}, nil)
	if err != nil {
		return Reply{}, errors.Wrap(err, "genai: describe image")
	}
	return replyFromGenAI(resp), nil
}

// replyFromGenAI keeps the visible text parts of the first candidate as blocks.
func replyFromGenAI(resp *genai.GenerateContentResponse) Reply {
	if resp == nil || len(resp.Candidates) == 0 {
		return Reply{}
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return Reply{}
	}

	var reply Reply
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		reply.Blocks = append(reply.Blocks, Block{Type: "text", Text: part.Text})
	}
	return reply
}
