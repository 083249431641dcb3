package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// PartType is the discriminator of a content part.
type PartType string

const (
	PartText           PartType = "text"
	PartReasoning      PartType = "reasoning"
	PartToolInvocation PartType = "tool-invocation"
)

const (
	FallbackFileName = "uploaded-file"
	FallbackFileType = "unknown"
)

var (
	ErrEmptyHistory    = errors.New("model: history is empty")
	ErrUnknownRole     = errors.New("model: unknown role")
	ErrUnknownPartType = errors.New("model: unknown part type")
)

// ToolInvocation is a tool call made by the model, with its result once resolved.
type ToolInvocation struct {
	Name   string         `json:"toolName" bson:"name"`
	Args   map[string]any `json:"args,omitempty" bson:"args,omitempty"`
	Result any            `json:"result,omitempty" bson:"result,omitempty"`
}

// Resolved reports whether the invocation carries a result.
func (t ToolInvocation) Resolved() bool {
	return t.Result != nil
}

// Part is a single piece of a conversation turn. Type selects which of the
// remaining fields is meaningful: Text for text and reasoning parts, Tool for
// tool invocations.
type Part struct {
	Type PartType        `json:"type" bson:"type"`
	Text string          `json:"text,omitempty" bson:"text,omitempty"`
	Tool *ToolInvocation `json:"toolInvocation,omitempty" bson:"tool,omitempty"`
}

func NewText(text string) Part {
	return Part{Type: PartText, Text: text}
}

func NewReasoning(text string) Part {
	return Part{Type: PartReasoning, Text: text}
}

func NewToolInvocation(name string, args map[string]any, result any) Part {
	return Part{Type: PartToolInvocation, Tool: &ToolInvocation{Name: name, Args: args, Result: result}}
}

// wirePart accepts both the flat tool-invocation form and the "tool-<name>"
// form where the tool name is encoded in the type.
type wirePart struct {
	Type           PartType        `json:"type"`
	Text           string          `json:"text"`
	ToolInvocation *ToolInvocation `json:"toolInvocation"`
	ToolName       string          `json:"toolName"`
	Args           map[string]any  `json:"args"`
	Result         any             `json:"result"`
	Input          map[string]any  `json:"input"`
	Output         any             `json:"output"`
}

func (p *Part) UnmarshalJSON(data []byte) error {
	var w wirePart
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch {
	case w.Type == PartText || w.Type == PartReasoning:
		*p = Part{Type: w.Type, Text: w.Text}
	case w.Type == PartToolInvocation:
		tool := w.ToolInvocation
		if tool == nil {
			tool = &ToolInvocation{Name: w.ToolName, Args: w.Args, Result: w.Result}
		}
		*p = Part{Type: PartToolInvocation, Tool: tool}
	case strings.HasPrefix(string(w.Type), "tool-"):
		*p = NewToolInvocation(strings.TrimPrefix(string(w.Type), "tool-"), w.Input, w.Output)
	case w.Type == "":
		return errors.Wrap(ErrUnknownPartType, "missing type")
	default:
		// Display-only parts such as step-start, file or source-url are kept
		// by type and ignored by every decision.
		*p = Part{Type: w.Type}
	}

	return nil
}

// Attachment is the file metadata a user turn may carry. FileContent is a
// data URI; it is not archived.
type Attachment struct {
	FileName    string `json:"fileName,omitempty" bson:"file_name,omitempty"`
	FileType    string `json:"fileType,omitempty" bson:"file_type,omitempty"`
	FileSize    int64  `json:"fileSize,omitempty" bson:"file_size,omitempty"`
	FileContent string `json:"fileContent,omitempty" bson:"-"`
}

// Name returns the declared file name or the fallback label.
func (a Attachment) Name() string {
	if strings.TrimSpace(a.FileName) == "" {
		return FallbackFileName
	}
	return a.FileName
}

// MIMEType returns the declared MIME type or the fallback label.
func (a Attachment) MIMEType() string {
	if strings.TrimSpace(a.FileType) == "" {
		return FallbackFileType
	}
	return a.FileType
}

// Turn is one entry of the conversation history.
type Turn struct {
	ID       string      `json:"id" bson:"id"`
	Role     Role        `json:"role" bson:"role"`
	Parts    []Part      `json:"parts" bson:"parts"`
	Metadata *Attachment `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// Text concatenates the turn's text parts in order, without separator.
func (t Turn) Text() string {
	var b strings.Builder
	for _, p := range t.Parts {
		if p.Type == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// HasAttachment reports whether the turn carries file content.
func (t Turn) HasAttachment() bool {
	return t.Metadata != nil && t.Metadata.FileContent != ""
}

// LastIndex returns the index of the newest turn with the given role at or
// after from, or -1.
func LastIndex(history []Turn, role Role, from int) int {
	for i := len(history) - 1; i >= from && i >= 0; i-- {
		if history[i].Role == role {
			return i
		}
	}
	return -1
}

// Validate rejects histories the pipeline cannot interpret.
func Validate(history []Turn) error {
	if len(history) == 0 {
		return ErrEmptyHistory
	}

	for i, t := range history {
		switch t.Role {
		case RoleUser, RoleAssistant, RoleSystem:
		default:
			return errors.Wrap(ErrUnknownRole, fmt.Sprintf("turn %d: %q", i, t.Role))
		}

		for _, p := range t.Parts {
			switch p.Type {
			case PartText, PartReasoning:
			case PartToolInvocation:
				if p.Tool == nil || p.Tool.Name == "" {
					return errors.Wrapf(ErrUnknownPartType, "turn %d: tool invocation without name", i)
				}
			case "":
				return errors.Wrapf(ErrUnknownPartType, "turn %d: missing type", i)
			}
		}
	}

	return nil
}
