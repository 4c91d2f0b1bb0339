package rag

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/renal-diet-poc/server/internal/rag/vectorstore"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

// Indexer embeds chunks in parallel batches and writes them to the store.
type Indexer struct {
	embedder    embedding.Embedder
	store       vectorstore.Store
	batchSize   int
	concurrency int
}

func NewIndexer(embedder embedding.Embedder, store vectorstore.Store, batchSize, concurrency int) *Indexer {
	if batchSize <= 0 {
		batchSize = 100
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Indexer{embedder: embedder, store: store, batchSize: batchSize, concurrency: concurrency}
}

// Store assigns a uuid to chunks without an ID and returns the IDs in input order.
func (ix *Indexer) Store(ctx context.Context, docs []*schema.Document, opts ...indexer.Option) ([]string, error) {
	options := indexer.GetCommonOptions(&indexer.Options{Embedding: ix.embedder}, opts...)
	emb := options.Embedding
	if emb == nil {
		return nil, fmt.Errorf("indexer has no embedder")
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		ids[i] = d.ID
	}

	vectors := make([][]float64, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.concurrency)
	for start := 0; start < len(docs); start += ix.batchSize {
		end := min(start+ix.batchSize, len(docs))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, d := range docs[start:end] {
				texts = append(texts, d.Content)
			}
			vecs, err := emb.EmbedStrings(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("embed chunks %d-%d: got %d vectors", start, end, len(vecs))
			}
			copy(vectors[start:end], vecs)
			logx.Debug().Int("from", start).Int("to", end).Msg("embedded chunk batch")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ix.store.Add(ctx, docs, vectors); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}
	return ids, nil
}

var _ indexer.Indexer = (*Indexer)(nil)
