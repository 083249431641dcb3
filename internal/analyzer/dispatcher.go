// Package analyzer turns an attachment into a single text answer by routing
// it to the document, image or plain-text branch.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m2tx/chat_orchestrator/internal/attachment"
	"github.com/m2tx/chat_orchestrator/internal/model"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var ErrEmptyReply = errors.New("analyzer: backend returned no text")

// Config bounds the document branch.
type Config struct {
	// ChunkSize is the largest text, in characters, summarized in one call.
	ChunkSize int `mapstructure:"chunk_size"`
	// MaxChunks caps the map phase; text past the last chunk is dropped.
	MaxChunks int `mapstructure:"max_chunks"`
	// Concurrency is the number of chunk summaries in flight.
	Concurrency int `mapstructure:"concurrency"`
}

func DefaultConfig() Config {
	return Config{ChunkSize: 12000, MaxChunks: 20, Concurrency: 4}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.MaxChunks <= 0 {
		c.MaxChunks = d.MaxChunks
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	return c
}

// Dispatcher routes attachments to their analyzer.
type Dispatcher struct {
	text      TextBackend
	vision    VisionBackend
	extractor DocumentExtractor
	cfg       Config
	logger    zerolog.Logger
}

func NewDispatcher(text TextBackend, vision VisionBackend, extractor DocumentExtractor, cfg Config, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		text:      text,
		vision:    vision,
		extractor: extractor,
		cfg:       cfg.withDefaults(),
		logger:    logger.With().Str("component", "analyzer").Logger(),
	}
}

func DocumentAttribution(name string) string {
	return fmt.Sprintf("Document analysis for %q:", name)
}

func ImageAttribution(name string) string {
	return fmt.Sprintf("Image analysis (vision) for %q:", name)
}

func TextAttribution(name string) string {
	return fmt.Sprintf("Text summary for %q:", name)
}

// Analyze returns the message to show for the attachment. Failures are
// reported in the returned text.
func (d *Dispatcher) Analyze(ctx context.Context, a model.Attachment) string {
	name := a.Name()
	data, err := attachment.Decode(a.FileContent)
	if err != nil {
		return fmt.Sprintf("I couldn't read %q: the file content is not valid base64 data.", name)
	}

	kind := Detect(a.FileName, a.FileType, data)
	log := d.logger.With().Str("file", name).Str("kind", kind.String()).Int("bytes", len(data)).Logger()
	log.Info().Msg("analyzing attachment")
	started := time.Now()

	var msg string
	switch kind {
	case KindDocument:
		msg, err = d.document(ctx, name, data)
	case KindImage:
		msg, err = d.image(ctx, name, ImageMIMEType(a.FileName, a.FileType, data), data)
	case KindText:
		msg, err = d.plainText(ctx, name, data)
	default:
		log.Info().Msg("unsupported attachment type")
		return fmt.Sprintf("I can't analyze %q yet: the file type %q is not supported. Supported types are PDF documents, images and plain text.", name, a.MIMEType())
	}

	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("attachment analysis failed")
		return fmt.Sprintf("Could not analyze %q: %s", name, err)
	}

	log.Info().Dur("elapsed", time.Since(started)).Msg("attachment analyzed")
	return msg
}

func (d *Dispatcher) document(ctx context.Context, name string, data []byte) (string, error) {
	text, err := d.extractor.ExtractText(data)
	if err != nil {
		return "", errors.Wrap(err, "text extraction failed")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Sprintf("%s\n\nI couldn't find any machine-readable text in this PDF; it looks like a scanned or image-only document. Send the pages as images (PNG or JPEG) and ask for OCR, and I'll read the text from them.", DocumentAttribution(name)), nil
	}

	if len([]rune(text)) <= d.cfg.ChunkSize {
		summary, err := d.generate(ctx, documentPrompt(name, text))
		if err != nil {
			return "", errors.Wrap(err, "summarization failed")
		}
		return attribute(DocumentAttribution(name), summary), nil
	}

	chunks, truncated := splitRunes(text, d.cfg.ChunkSize, d.cfg.MaxChunks)
	summaries, err := d.summarizeChunks(ctx, name, chunks)
	if err != nil {
		return "", err
	}

	summary, err := d.generate(ctx, synthesisPrompt(name, summaries))
	if err != nil {
		return "", errors.Wrap(err, "final synthesis failed")
	}

	if truncated {
		summary += fmt.Sprintf("\n\n_Note: the document is long; only the first %d parts were analyzed._", len(chunks))
	}
	return attribute(DocumentAttribution(name), summary), nil
}

// summarizeChunks is the map phase; summaries keep chunk order.
func (d *Dispatcher) summarizeChunks(ctx context.Context, name string, chunks []string) ([]string, error) {
	summaries := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			s, err := d.generate(gctx, chunkPrompt(name, i+1, len(chunks), chunk))
			if err != nil {
				return errors.Wrapf(err, "summarizing part %d of %d failed", i+1, len(chunks))
			}
			summaries[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (d *Dispatcher) image(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	reply, err := d.vision.Describe(ctx, visionPrompt, Image{MIMEType: mimeType, Data: data})
	if err != nil {
		return "", errors.Wrap(err, "vision analysis failed")
	}
	text := reply.Text()
	if text == "" {
		return "", errors.Wrap(ErrEmptyReply, "vision analysis failed")
	}
	return attribute(ImageAttribution(name), text), nil
}

func (d *Dispatcher) plainText(ctx context.Context, name string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return fmt.Sprintf("%s\n\nThe file is not valid UTF-8 text, so I can't read it. Try saving it as UTF-8 or sending it as a PDF.", TextAttribution(name)), nil
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return fmt.Sprintf("%s\n\nThe file is empty or contains only whitespace, so there is nothing to summarize.", TextAttribution(name)), nil
	}

	limit := d.cfg.ChunkSize * d.cfg.MaxChunks
	runes := []rune(text)
	truncated := len(runes) > limit
	if truncated {
		text = string(runes[:limit])
	}

	summary, err := d.generate(ctx, textPrompt(name, text))
	if err != nil {
		return "", errors.Wrap(err, "summarization failed")
	}

	if truncated {
		summary += fmt.Sprintf("\n\n_Note: the file is long; only the first %d characters were analyzed._", limit)
	}
	return attribute(TextAttribution(name), summary), nil
}

func (d *Dispatcher) generate(ctx context.Context, prompt string) (string, error) {
	reply, err := d.text.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := reply.Text()
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

func attribute(header, body string) string {
	return header + "\n\n" + body
}
