package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cloudwego/eino/schema"
)

type entry struct {
	doc    *schema.Document
	vector []float64
}

// MemoryStore keeps all chunks in process and scans them on every search.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Add(_ context.Context, docs []*schema.Document, vectors [][]float64) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("docs and vectors length mismatch: %d != %d", len(docs), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range docs {
		s.entries = append(s.entries, entry{doc: copyDocument(d), vector: vectors[i]})
	}
	return nil
}

// Search returns up to k matches ordered by descending similarity. Ties keep
// insertion order.
func (s *MemoryStore) Search(_ context.Context, vector []float64, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, 0, len(s.entries))
	for _, e := range s.entries {
		matches = append(matches, Match{
			Document: copyDocument(e.doc),
			Vector:   e.vector,
			Score:    CosineSimilarity(vector, e.vector),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

var _ Store = (*MemoryStore)(nil)
