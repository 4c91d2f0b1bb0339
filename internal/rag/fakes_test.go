package rag

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
)

// fakeEmbedder maps known texts to fixed vectors and everything else to {0, 0}.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float64
	calls   int
	err     error
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float64{0, 0}
		}
	}
	return out, nil
}

type stubRetriever struct {
	docs    []*schema.Document
	err     error
	queries []string
}

func (s *stubRetriever) Retrieve(_ context.Context, query string, _ ...retriever.Option) ([]*schema.Document, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.docs, nil
}

type stubWeb struct {
	calls []string
	max   []int
}

func (s *stubWeb) Search(_ context.Context, query string, maxResults int) string {
	s.calls = append(s.calls, query)
	s.max = append(s.max, maxResults)
	return fmt.Sprintf("[출처 1] %s\nURL: https://example.com\n내용: 웹 내용\n", query)
}
