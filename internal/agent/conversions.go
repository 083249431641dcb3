package agent

import (
	"fmt"

	"github.com/m2tx/chat_orchestrator/internal/attachment"
	"github.com/m2tx/chat_orchestrator/internal/model"
	"google.golang.org/genai"
)

// toGenAIContents converts the conversation into genai history. Reasoning
// parts and system turns are dropped; a resolved tool invocation becomes a
// function call followed by its response; unresolved invocations are dropped
// since the API rejects calls without responses.
func toGenAIContents(history []model.Turn) []*genai.Content {
	result := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		switch t.Role {
		case model.RoleUser:
			result = appendContent(result, genai.RoleUser, userParts(t))
		case model.RoleAssistant:
			result = append(result, assistantContents(t)...)
		}
	}
	return result
}

func userParts(t model.Turn) []*genai.Part {
	parts := make([]*genai.Part, 0, len(t.Parts)+1)
	if t.HasAttachment() {
		a := t.Metadata
		parts = append(parts, &genai.Part{
			Text: fmt.Sprintf("[attached file: %s (%s, %d KB)]", a.Name(), a.MIMEType(), attachment.KiB(a.FileSize)),
		})
	}
	for _, p := range t.Parts {
		if p.Type == model.PartText && p.Text != "" {
			parts = append(parts, &genai.Part{Text: p.Text})
		}
	}
	return parts
}

func assistantContents(t model.Turn) []*genai.Content {
	var result []*genai.Content
	var current []*genai.Part

	for _, p := range t.Parts {
		switch p.Type {
		case model.PartText:
			if p.Text != "" {
				current = append(current, &genai.Part{Text: p.Text})
			}
		case model.PartToolInvocation:
			if p.Tool == nil || !p.Tool.Resolved() {
				continue
			}
			current = append(current, &genai.Part{
				FunctionCall: &genai.FunctionCall{Name: p.Tool.Name, Args: p.Tool.Args},
			})
			result = appendContent(result, genai.RoleModel, current)
			result = appendContent(result, genai.RoleUser, []*genai.Part{{
				FunctionResponse: &genai.FunctionResponse{Name: p.Tool.Name, Response: toolResponse(p.Tool.Result)},
			}})
			current = nil
		}
	}

	return appendContent(result, genai.RoleModel, current)
}

func toolResponse(result any) map[string]any {
	if m, ok := result.(map[string]any); ok {
		return m
	}
	return map[string]any{"result": result}
}

func appendContent(contents []*genai.Content, role string, parts []*genai.Part) []*genai.Content {
	if len(parts) == 0 {
		return contents
	}
	return append(contents, &genai.Content{Role: role, Parts: parts})
}
