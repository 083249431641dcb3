package agent

import (
	"context"
	"iter"
	"sort"
	"time"

	"github.com/m2tx/chat_orchestrator/internal/model"
	"github.com/m2tx/chat_orchestrator/internal/stream"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// DefaultMaxSteps bounds the model/tool loop of a single turn.
const DefaultMaxSteps = 10

// Generator is the streaming part of the genai models service.
type Generator interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Config tunes the completion loop.
type Config struct {
	MaxSteps       int   `mapstructure:"max_steps"`
	ThinkingBudget int32 `mapstructure:"thinking_budget"`
}

func DefaultConfig() Config {
	return Config{MaxSteps: DefaultMaxSteps, ThinkingBudget: 1024}
}

type Agent struct {
	models            Generator
	model             string
	systemInstruction string
	functionsMap      map[string]*FunctionDeclaration
	cfg               Config
	logger            zerolog.Logger
}

type FunctionDeclaration struct {
	Name             string
	Description      string
	ParametersSchema any
	ResponseSchema   any
	FunctionCall     FunctionCallFn
}

type FunctionCallFn func(ctx context.Context, args map[string]any) (map[string]any, error)

func New(models Generator, model string, systemInstruction string, cfg Config, logger zerolog.Logger) *Agent {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	return &Agent{
		models:            models,
		model:             model,
		systemInstruction: systemInstruction,
		functionsMap:      make(map[string]*FunctionDeclaration),
		cfg:               cfg,
		logger:            logger.With().Str("component", "agent").Logger(),
	}
}

func (a *Agent) AddFunctionCall(functionDeclaration *FunctionDeclaration) error {
	if functionDeclaration == nil {
		return errors.New("function declaration cannot be nil")
	}

	if functionDeclaration.Name == "" {
		return errors.New("function name cannot be empty")
	}

	if functionDeclaration.FunctionCall == nil {
		return errors.New("function call implementation cannot be nil")
	}

	a.functionsMap[functionDeclaration.Name] = functionDeclaration

	return nil
}

// MaxSteps is the number of model calls a turn may use.
func (a *Agent) MaxSteps() int {
	return a.cfg.MaxSteps
}

// Tools lists the registered tool names in a stable order.
func (a *Agent) Tools() []string {
	names := make([]string, 0, len(a.functionsMap))
	for name := range a.functionsMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *Agent) getTools() []*genai.Tool {
	functions := []*genai.FunctionDeclaration{}

	for _, name := range a.Tools() {
		fd := a.functionsMap[name]
		functions = append(functions, &genai.FunctionDeclaration{
			Name:                 fd.Name,
			Description:          fd.Description,
			ParametersJsonSchema: fd.ParametersSchema,
			ResponseJsonSchema:   fd.ResponseSchema,
		})
	}

	return []*genai.Tool{
		{
			FunctionDeclarations: functions,
		},
	}
}

func (a *Agent) generateConfig() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: a.systemInstruction}},
		},
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(a.cfg.ThinkingBudget),
		},
	}

	if len(a.functionsMap) > 0 {
		config.Tools = a.getTools()
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		}
	}

	return config
}

// Stream runs the model over the conversation and writes its reasoning and
// answer to w, from start to finish. Each step is one streamed model call;
// the function calls it requests run one after another before the next step.
// On error the stream is left started and unfinished for the caller to close.
func (a *Agent) Stream(ctx context.Context, history []model.Turn, w *stream.Writer) error {
	contents := toGenAIContents(history)
	config := a.generateConfig()

	if err := w.Start(); err != nil {
		return err
	}

	for step := 1; step <= a.cfg.MaxSteps; step++ {
		started := time.Now()
		calls, content, err := a.streamStep(ctx, contents, config, w)
		if err != nil {
			return errors.Wrapf(err, "agent: step %d", step)
		}

		a.logger.Debug().Int("step", step).Int("function_calls", len(calls)).Dur("elapsed", time.Since(started)).Msg("model step finished")

		if content != nil {
			contents = append(contents, content)
		}

		if len(calls) == 0 {
			return w.Finish()
		}

		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: a.callFunctions(ctx, calls),
		})
	}

	a.logger.Warn().Int("max_steps", a.cfg.MaxSteps).Msg("step limit reached before a final answer")
	if err := stream.WriteBlock(w, "I stopped after using the maximum number of tool steps for one answer. Ask me to continue if you need more."); err != nil {
		return err
	}
	return w.Finish()
}

// streamStep forwards one streamed model call to w and returns the function
// calls it requested together with the model content to append to history.
func (a *Agent) streamStep(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig, w *stream.Writer) ([]*genai.FunctionCall, *genai.Content, error) {
	var calls []*genai.FunctionCall
	var parts []*genai.Part
	out := blockWriter{w: w}

	for resp, err := range a.models.GenerateContentStream(ctx, a.model, contents, config) {
		if err != nil {
			return nil, nil, err
		}

		if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
			continue
		}

		for _, part := range resp.Candidates[0].Content.Parts {
			if part == nil {
				continue
			}
			parts = append(parts, part)

			switch {
			case part.FunctionCall != nil:
				calls = append(calls, part.FunctionCall)
			case part.Thought:
				err = out.write(reasoningBlock, part.Text)
			default:
				err = out.write(textBlock, part.Text)
			}
			if err != nil {
				return nil, nil, err
			}
		}
	}

	if err := w.EndOpen(); err != nil {
		return nil, nil, err
	}

	if len(parts) == 0 {
		return calls, nil, nil
	}
	return calls, &genai.Content{Role: genai.RoleModel, Parts: parts}, nil
}

// callFunctions runs the requested calls sequentially. A failing call is
// reported back to the model instead of ending the turn.
func (a *Agent) callFunctions(ctx context.Context, calls []*genai.FunctionCall) []*genai.Part {
	parts := make([]*genai.Part, 0, len(calls))
	for _, call := range calls {
		started := time.Now()
		resp, err := a.handleFunctionCall(ctx, call.Name, call.Args)
		log := a.logger.With().Str("function", call.Name).Dur("elapsed", time.Since(started)).Logger()
		if err != nil {
			log.Warn().Err(err).Msg("function call failed")
			resp = map[string]any{"error": err.Error()}
		} else {
			log.Info().Msg("function call finished")
		}

		parts = append(parts, &genai.Part{
			FunctionResponse: &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: resp,
			},
		})
	}
	return parts
}

func (a *Agent) handleFunctionCall(ctx context.Context, functionName string, args map[string]any) (map[string]any, error) {
	if fd, exists := a.functionsMap[functionName]; exists {
		return fd.FunctionCall(ctx, args)
	}

	return nil, errors.Errorf("function %s not found", functionName)
}

type blockKind int

const (
	textBlock blockKind = iota + 1
	reasoningBlock
)

// blockWriter turns part fragments into blocks: one block per contiguous run
// of the same kind.
type blockWriter struct {
	w    *stream.Writer
	kind blockKind
	id   string
}

func (b *blockWriter) write(kind blockKind, delta string) error {
	if delta == "" {
		return nil
	}

	if b.id == "" || b.kind != kind || b.w.Open() != b.id {
		if err := b.w.EndOpen(); err != nil {
			return err
		}
		var err error
		if kind == reasoningBlock {
			b.id, err = b.w.ReasoningStart()
		} else {
			b.id, err = b.w.TextStart()
		}
		if err != nil {
			return err
		}
		b.kind = kind
	}

	if kind == reasoningBlock {
		return b.w.ReasoningDelta(b.id, delta)
	}
	return b.w.TextDelta(b.id, delta)
}
