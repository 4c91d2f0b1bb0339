package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"

	"github.com/renal-diet-poc/server/internal/rag/loader"
	"github.com/renal-diet-poc/server/internal/rag/vectorstore"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

type BuildOptions struct {
	PDFDir     string
	FoodsCSV   string
	RecipesCSV string
	// Rebuild clears the store first. Without it a non-empty store is reused.
	Rebuild bool
}

type BuildReport struct {
	Skipped  bool
	Pages    int
	Rows     int
	Chunks   int
	Total    int
	Duration time.Duration
}

// Builder runs the offline ingest: load, split, embed, store.
type Builder struct {
	store    vectorstore.Store
	splitter document.Transformer
	indexer  *Indexer

	pdf     document.Loader
	foods   document.Loader
	recipes document.Loader
}

func NewBuilder(store vectorstore.Store, splitter document.Transformer, ix *Indexer) *Builder {
	return &Builder{
		store:    store,
		splitter: splitter,
		indexer:  ix,
		pdf:      loader.NewPDFLoader(),
		foods:    loader.NewFoodsLoader(),
		recipes:  loader.NewRecipesLoader(),
	}
}

func (b *Builder) Build(ctx context.Context, opts BuildOptions) (*BuildReport, error) {
	start := time.Now()
	report := &BuildReport{}

	count, err := b.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count stored chunks: %w", err)
	}
	if count > 0 && !opts.Rebuild {
		logx.Info().Int("chunks", count).Msg("vector store already populated, skipping build")
		report.Skipped = true
		report.Total = count
		report.Duration = time.Since(start)
		return report, nil
	}
	if opts.Rebuild && count > 0 {
		logx.Info().Int("chunks", count).Msg("clearing vector store")
		if err := b.store.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clear vector store: %w", err)
		}
	}

	pages, err := loader.LoadPDFDir(ctx, b.pdf, opts.PDFDir)
	if err != nil {
		return nil, err
	}
	report.Pages = len(pages)
	docs := pages

	// CSV rows are already passage sized and skip the splitter.
	var rows []*schema.Document
	for _, src := range []struct {
		path string
		l    document.Loader
	}{
		{opts.FoodsCSV, b.foods},
		{opts.RecipesCSV, b.recipes},
	} {
		if src.path == "" {
			continue
		}
		loaded, err := src.l.Load(ctx, document.Source{URI: src.path})
		if err != nil {
			return nil, err
		}
		logx.Info().Str("file", src.path).Int("rows", len(loaded)).Msg("loaded CSV")
		rows = append(rows, loaded...)
	}
	report.Rows = len(rows)

	chunks, err := b.splitter.Transform(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("split documents: %w", err)
	}
	chunks = append(chunks, rows...)
	report.Chunks = len(chunks)
	logx.Info().Int("pages", report.Pages).Int("rows", report.Rows).Int("chunks", report.Chunks).Msg("split documents")

	if _, err := b.indexer.Store(ctx, chunks); err != nil {
		return nil, err
	}

	report.Total, err = b.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count stored chunks: %w", err)
	}
	report.Duration = time.Since(start)
	logx.Info().Int("total", report.Total).Dur("took", report.Duration).Msg("vector store built")
	return report, nil
}
