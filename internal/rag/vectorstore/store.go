package vectorstore

import (
	"context"
	"math"

	"github.com/cloudwego/eino/schema"
)

// Match is one search hit. Vector is returned so callers can re-rank (MMR).
type Match struct {
	Document *schema.Document
	Vector   []float64
	Score    float64 // cosine similarity, higher is closer
}

// Store persists embedded chunks. Implementations are safe for concurrent
// Search calls; Add and Clear are only used by offline indexing.
type Store interface {
	Add(ctx context.Context, docs []*schema.Document, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, k int) ([]Match, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// CosineSimilarity returns 0 for mismatched or zero-length vectors.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func copyDocument(d *schema.Document) *schema.Document {
	meta := make(map[string]any, len(d.MetaData))
	for k, v := range d.MetaData {
		meta[k] = v
	}
	return &schema.Document{ID: d.ID, Content: d.Content, MetaData: meta}
}
