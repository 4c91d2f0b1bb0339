package rag

import (
	"context"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/sync/errgroup"

	errx "github.com/renal-diet-poc/server/internal/core/error"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

const extractConcurrency = 4

// Extractor returns the parts of passage relevant to query, or "" when there
// are none.
type Extractor interface {
	Extract(ctx context.Context, query, passage string) (string, error)
}

// CompressionRetriever runs a base retriever and replaces each passage with
// the extract relevant to the query, dropping passages with nothing relevant.
type CompressionRetriever struct {
	base      retriever.Retriever
	extractor Extractor
}

func NewCompressionRetriever(base retriever.Retriever, extractor Extractor) (*CompressionRetriever, error) {
	if base == nil || extractor == nil {
		return nil, errx.Config("compression retriever needs a base retriever and an extractor")
	}
	return &CompressionRetriever{base: base, extractor: extractor}, nil
}

func (r *CompressionRetriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	docs, err := r.base.Retrieve(ctx, query, opts...)
	if err != nil {
		return nil, err
	}

	extracts := make([]string, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractConcurrency)
	for i, d := range docs {
		g.Go(func() error {
			out, err := r.extractor.Extract(gctx, query, d.Content)
			if err != nil {
				return err
			}
			extracts[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*schema.Document, 0, len(docs))
	for i, d := range docs {
		if extracts[i] == "" {
			continue
		}
		meta := make(map[string]any, len(d.MetaData))
		for k, v := range d.MetaData {
			meta[k] = v
		}
		out = append(out, &schema.Document{ID: d.ID, Content: extracts[i], MetaData: meta})
	}
	logx.Debug().Int("retrieved", len(docs)).Int("kept", len(out)).Msg("compressed retrieval")
	return out, nil
}

func (r *CompressionRetriever) GetType() string {
	return "Compression"
}

var _ retriever.Retriever = (*CompressionRetriever)(nil)
