package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/renal-diet-poc/server/internal/agent/model"
	errx "github.com/renal-diet-poc/server/internal/core/error"
	"github.com/renal-diet-poc/server/internal/rag/vectorstore"
)

type SearchType string

const (
	SearchSimilarity SearchType = "similarity"
	SearchMMR        SearchType = "mmr"
	// SearchCompression is a similarity search whose passages are cut down to
	// the query-relevant parts by a CompressionRetriever.
	SearchCompression SearchType = "compression"
)

// ParseSearchType accepts the configured retriever type. "basic" is an alias
// for similarity search.
func ParseSearchType(v string) (SearchType, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "basic", "similarity":
		return SearchSimilarity, nil
	case "mmr":
		return SearchMMR, nil
	case "compression":
		return SearchCompression, nil
	default:
		return "", errx.Config("unknown retriever type %q (want basic, mmr or compression)", v)
	}
}

type RetrieverConfig struct {
	SearchType SearchType
	K          int
	// FetchK is the MMR candidate pool; 0 means 2*K.
	FetchK int
	Lambda float64
}

// Retriever embeds the query and searches the vector store.
type Retriever struct {
	embedder embedding.Embedder
	store    vectorstore.Store
	cfg      RetrieverConfig
}

func NewRetriever(embedder embedding.Embedder, store vectorstore.Store, cfg RetrieverConfig) (*Retriever, error) {
	if embedder == nil || store == nil {
		return nil, errx.Config("retriever needs an embedder and a vector store")
	}
	if cfg.K <= 0 {
		cfg.K = 4
	}
	if cfg.SearchType == "" {
		cfg.SearchType = SearchSimilarity
	}
	if cfg.FetchK <= 0 {
		cfg.FetchK = cfg.K * 2
	}
	if cfg.Lambda < 0 || cfg.Lambda > 1 {
		return nil, errx.Config("mmr lambda must be within [0,1], got %v", cfg.Lambda)
	}
	return &Retriever{embedder: embedder, store: store, cfg: cfg}, nil
}

// Retrieve returns up to K documents for query, scored by cosine similarity.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	k := r.cfg.K
	options := retriever.GetCommonOptions(&retriever.Options{TopK: &k}, opts...)
	if options.TopK != nil && *options.TopK > 0 {
		k = *options.TopK
	}

	vec, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	var matches []vectorstore.Match
	switch r.cfg.SearchType {
	case SearchMMR:
		fetchK := max(r.cfg.FetchK, k)
		candidates, err := r.store.Search(ctx, vec, fetchK)
		if err != nil {
			return nil, errx.WrapRetrieval(err)
		}
		matches = maxMarginalRelevance(vec, candidates, k, r.cfg.Lambda)
	default:
		matches, err = r.store.Search(ctx, vec, k)
		if err != nil {
			return nil, errx.WrapRetrieval(err)
		}
	}
	return toDocuments(matches), nil
}

// RetrieveWithScores always runs a plain similarity search so the scores are
// comparable across calls. k <= 0 uses the configured K.
func (r *Retriever) RetrieveWithScores(ctx context.Context, query string, k int) ([]*schema.Document, error) {
	if k <= 0 {
		k = r.cfg.K
	}
	vec, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	matches, err := r.store.Search(ctx, vec, k)
	if err != nil {
		return nil, errx.WrapRetrieval(err)
	}
	return toDocuments(matches), nil
}

// FilterBySource retrieves k documents as usual and keeps those from one
// source file. k <= 0 uses the configured K.
func (r *Retriever) FilterBySource(ctx context.Context, query, sourceFile string, k int) ([]*schema.Document, error) {
	var opts []retriever.Option
	if k > 0 {
		opts = append(opts, retriever.WithTopK(k))
	}
	docs, err := r.Retrieve(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	filtered := make([]*schema.Document, 0, len(docs))
	for _, d := range docs {
		if src, _ := d.MetaData[model.MetaSourceFile].(string); src == sourceFile {
			filtered = append(filtered, d)
		}
	}
	return filtered, nil
}

func (r *Retriever) GetType() string {
	return "VectorStore"
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float64, error) {
	vecs, err := r.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, errx.WrapModel(fmt.Errorf("embed query: %w", err))
	}
	if len(vecs) != 1 {
		return nil, errx.WrapModel(fmt.Errorf("embed query: got %d vectors", len(vecs)))
	}
	return vecs[0], nil
}

func toDocuments(matches []vectorstore.Match) []*schema.Document {
	docs := make([]*schema.Document, 0, len(matches))
	for _, m := range matches {
		docs = append(docs, m.Document.WithScore(m.Score))
	}
	return docs
}

var _ retriever.Retriever = (*Retriever)(nil)
