package agent

import (
	"bytes"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const embeddingDim = 512
const defaultPassageSize = 800

// Passage is an indexed text excerpt.
type Passage struct {
	Source string
	Text   string
	vector []float32
}

// Match is a passage with its similarity to the query.
type Match struct {
	Passage
	Score float32
}

// VectorIndex provides semantic search over local documents using
// feature-hashed embeddings, so no embedding service is needed.
type VectorIndex struct {
	mu       sync.RWMutex
	passages []Passage
	logger   zerolog.Logger
}

func NewVectorIndex(logger zerolog.Logger) *VectorIndex {
	return &VectorIndex{logger: logger.With().Str("component", "vector_index").Logger()}
}

// Len returns the number of indexed passages.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.passages)
}

// AddText splits text into passages and indexes them under source.
func (v *VectorIndex) AddText(source, text string) int {
	chunks := splitPassages(text, defaultPassageSize)

	v.mu.Lock()
	defer v.mu.Unlock()
	for _, c := range chunks {
		v.passages = append(v.passages, Passage{Source: source, Text: c, vector: embed(c)})
	}
	return len(chunks)
}

// LoadDir indexes every .txt, .md and .pdf file in dir. A missing directory
// leaves the index empty.
func (v *VectorIndex) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		v.logger.Warn().Str("dir", dir).Msg("documents directory not found, vector search will return no results")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "vector index: read dir")
	}

	total := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)

		var text string
		switch strings.ToLower(filepath.Ext(name)) {
		case ".txt", ".md":
			data, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "vector index: read %q", name)
			}
			text = string(data)
		case ".pdf":
			text, err = readPDF(path)
			if err != nil {
				return errors.Wrapf(err, "vector index: read pdf %q", name)
			}
		default:
			continue
		}

		total += v.AddText(name, text)
	}

	v.logger.Info().Str("dir", dir).Int("passages", total).Msg("documents indexed")
	return nil
}

// Search returns up to topK passages with a positive similarity to query,
// best first.
func (v *VectorIndex) Search(query string, topK int) []Match {
	if topK <= 0 {
		return nil
	}
	queryVec := embed(query)

	v.mu.RLock()
	matches := make([]Match, 0, len(v.passages))
	for _, p := range v.passages {
		if score := cosineSimilarity(queryVec, p.vector); score > 0 {
			matches = append(matches, Match{Passage: p, Score: score})
		}
	}
	v.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches
}

func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// embed converts text into a fixed-size unit vector by feature hashing.
func embed(text string) []float32 {
	vec := make([]float32, embeddingDim)
	for _, word := range tokens(text) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%embeddingDim]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm = math.Sqrt(norm); norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

// splitPassages groups paragraphs into passages of about maxLen bytes.
func splitPassages(text string, maxLen int) []string {
	paragraphs := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")

	var passages []string
	current := strings.Builder{}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+len(p)+2 > maxLen {
			passages = append(passages, current.String())
			current.Reset()
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}

	if current.Len() > 0 {
		passages = append(passages, current.String())
	}

	return passages
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return float32(dot / denom)
}
