package analyzer

import (
	"context"
	"sync"
)

// fakeText records prompts and answers with GenerateFunc.
type fakeText struct {
	mu           sync.Mutex
	prompts      []string
	GenerateFunc func(ctx context.Context, prompt string) (Reply, error)
}

func (f *fakeText) Generate(ctx context.Context, prompt string) (Reply, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.GenerateFunc == nil {
		return Reply{Output: "summary"}, nil
	}
	return f.GenerateFunc(ctx, prompt)
}

func (f *fakeText) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

type fakeVision struct {
	images       []Image
	DescribeFunc func(ctx context.Context, prompt string, image Image) (Reply, error)
}

func (f *fakeVision) Describe(ctx context.Context, prompt string, image Image) (Reply, error) {
	f.images = append(f.images, image)
	if f.DescribeFunc == nil {
		return Reply{Blocks: []Block{{Type: "text", Text: "HELLO WORLD"}, {Type: "text", Text: "Summary: a sign."}}}, nil
	}
	return f.DescribeFunc(ctx, prompt, image)
}

type fakeExtractor struct {
	inputs      [][]byte
	ExtractFunc func(data []byte) (string, error)
}

func (f *fakeExtractor) ExtractText(data []byte) (string, error) {
	f.inputs = append(f.inputs, data)
	if f.ExtractFunc == nil {
		return "extracted text", nil
	}
	return f.ExtractFunc(data)
}
