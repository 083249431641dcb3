package analyzer

import (
	"context"
	"encoding/base64"
	"strings"
)

// Block is one element of a structured model reply.
type Block struct {
	Type string
	Text string
}

// Reply is what a backend returns. Backends fill either Output or Blocks;
// callers only ever read Text.
type Reply struct {
	Output string
	Blocks []Block
}

// Text normalizes the reply to a single string.
func (r Reply) Text() string {
	if s := strings.TrimSpace(r.Output); s != "" {
		return s
	}

	texts := make([]string, 0, len(r.Blocks))
	for _, b := range r.Blocks {
		if b.Type != "" && b.Type != "text" {
			continue
		}
		if s := strings.TrimSpace(b.Text); s != "" {
			texts = append(texts, s)
		}
	}
	return strings.Join(texts, "\n")
}

// Image is the payload sent to a vision backend.
type Image struct {
	MIMEType string
	Data     []byte
}

func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURI renders the image as a data URI.
func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64()
}

// TextBackend answers a single prompt without tools.
type TextBackend interface {
	Generate(ctx context.Context, prompt string) (Reply, error)
}

// VisionBackend answers a prompt about an image.
type VisionBackend interface {
	Describe(ctx context.Context, prompt string, image Image) (Reply, error)
}

// DocumentExtractor pulls machine-readable text out of a document.
type DocumentExtractor interface {
	ExtractText(data []byte) (string, error)
}
