package rag

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"

	"github.com/renal-diet-poc/server/internal/agent/model"
)

// DefaultSeparators are tried in order: paragraphs, lines, sentences, words, characters.
var DefaultSeparators = []string{"\n\n", "\n", ".", " ", ""}

// Splitter wraps the eino-ext recursive splitter. Lengths are counted in
// runes, separators stay attached to the start of the following piece, and
// chunks are trimmed with blank ones dropped.
type Splitter struct {
	chunkSize int
	inner     document.Transformer
}

func NewSplitter(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be within [0,%d)", chunkOverlap, chunkSize)
	}
	inner, err := recursive.NewSplitter(context.Background(), &recursive.Config{
		ChunkSize:   chunkSize,
		OverlapSize: chunkOverlap,
		Separators:  DefaultSeparators,
		LenFunc:     utf8.RuneCountInString,
		KeepType:    recursive.KeepTypeStart,
	})
	if err != nil {
		return nil, fmt.Errorf("create recursive splitter: %w", err)
	}
	return &Splitter{chunkSize: chunkSize, inner: inner}, nil
}

// Transform splits every document and copies its metadata onto the chunks,
// adding the chunk index. IDs are left for the indexer.
func (s *Splitter) Transform(ctx context.Context, src []*schema.Document, _ ...document.TransformerOption) ([]*schema.Document, error) {
	var out []*schema.Document
	for _, d := range src {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks, err := s.splitOne(ctx, d.Content)
		if err != nil {
			return nil, err
		}
		for i, chunk := range chunks {
			meta := make(map[string]any, len(d.MetaData)+1)
			for k, v := range d.MetaData {
				meta[k] = v
			}
			meta[model.MetaChunkIndex] = i
			out = append(out, &schema.Document{Content: chunk, MetaData: meta})
		}
	}
	return out, nil
}

// SplitText returns the chunk texts for one string.
func (s *Splitter) SplitText(text string) []string {
	chunks, err := s.splitOne(context.Background(), text)
	if err != nil {
		return nil
	}
	return chunks
}

func (s *Splitter) splitOne(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	parts, err := s.inner.Transform(ctx, []*schema.Document{{Content: text}})
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}
	var chunks []string
	for _, p := range parts {
		if c := strings.TrimSpace(p.Content); c != "" {
			chunks = append(chunks, c)
		}
	}
	return chunks, nil
}

var _ document.Transformer = (*Splitter)(nil)
