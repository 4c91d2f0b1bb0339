package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/retriever"
	"google.golang.org/genai"

	"github.com/renal-diet-poc/server/internal/agent/chains"
	"github.com/renal-diet-poc/server/internal/agent/llm"
	"github.com/renal-diet-poc/server/internal/agent/observers"
	"github.com/renal-diet-poc/server/internal/agent/workflow"
	errx "github.com/renal-diet-poc/server/internal/core/error"
	"github.com/renal-diet-poc/server/internal/rag"
	"github.com/renal-diet-poc/server/internal/rag/vectorstore"
	"github.com/renal-diet-poc/server/internal/websearch"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

// App wires the retrieval stack eagerly and the workflow on first use, so
// index and search commands run without web search credentials.
type App struct {
	cfg       Config
	client    *genai.Client
	store     vectorstore.Store
	retriever *rag.Retriever
	// contextRetriever feeds the workflow; it wraps retriever when
	// compression is configured.
	contextRetriever retriever.Retriever
	builder          *rag.Builder
	closers          []func()

	wfOnce sync.Once
	wf     *workflow.Workflow
	wfErr  error
}

func New(ctx context.Context, cfg Config) (*App, error) {
	a := &App{cfg: cfg}

	client, err := llm.NewClient(ctx, llm.ClientConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
	if err != nil {
		return nil, err
	}
	a.client = client

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	embedder, err := llm.NewEmbedder(client, llm.EmbedderConfig{
		Model:      cfg.Embedding.Model,
		BatchSize:  cfg.Embedding.BatchSize,
		Dimensions: cfg.Vector.Dimensions,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	searchType, err := rag.ParseSearchType(cfg.Retrieval.Type)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.retriever, err = rag.NewRetriever(embedder, store, rag.RetrieverConfig{
		SearchType: searchType,
		K:          cfg.Retrieval.K,
		FetchK:     cfg.Retrieval.MMRFetchK,
		Lambda:     cfg.Retrieval.MMRLambda,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.contextRetriever = a.retriever
	if searchType == rag.SearchCompression {
		if a.contextRetriever, err = a.compressionRetriever(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	splitter, err := rag.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		a.Close()
		return nil, errx.Config("invalid chunking config: %v", err)
	}
	indexer := rag.NewIndexer(embedder, store, cfg.Embedding.BatchSize, cfg.Embedding.Concurrency)
	a.builder = rag.NewBuilder(store, splitter, indexer)

	logx.Info().Str("config", cfg.String()).Msg("application initialised")
	return a, nil
}

func (a *App) Config() Config {
	return a.cfg
}

func (a *App) Retriever() *rag.Retriever {
	return a.retriever
}

func (a *App) Store() vectorstore.Store {
	return a.store
}

// EnsureIndex reuses a populated store and builds it otherwise. rebuild
// forces a clear and full rebuild.
func (a *App) EnsureIndex(ctx context.Context, rebuild bool) (*rag.BuildReport, error) {
	return a.builder.Build(ctx, rag.BuildOptions{
		PDFDir:     a.cfg.Ingest.PDFDir,
		FoodsCSV:   a.cfg.Ingest.FoodsCSV,
		RecipesCSV: a.cfg.Ingest.RecipesCSV,
		Rebuild:    rebuild,
	})
}

// Workflow builds the chat models, web search client and chains once.
func (a *App) Workflow(ctx context.Context) (*workflow.Workflow, error) {
	a.wfOnce.Do(func() {
		a.wf, a.wfErr = a.buildWorkflow(ctx)
	})
	return a.wf, a.wfErr
}

func (a *App) buildWorkflow(ctx context.Context) (*workflow.Workflow, error) {
	web, err := websearch.New(a.cfg.WebSearch)
	if err != nil {
		return nil, err
	}
	assembler, err := rag.NewAssembler(a.contextRetriever, web, nil)
	if err != nil {
		return nil, err
	}
	models, err := llm.NewChatModels(ctx, a.client, a.cfg.Router, a.cfg.Generation)
	if err != nil {
		return nil, err
	}
	return workflow.Build(ctx, workflow.BuildConfig{
		Router:     models.Router,
		Generation: models.Generation,
		Assembler:  assembler,
		Handlers:   []callbacks.Handler{observers.NewAllCallbacks()},
		MaxSteps:   a.cfg.Workflow.MaxSteps,
	})
}

// compressionRetriever wraps the vector retriever with an extraction chain
// on the router model.
func (a *App) compressionRetriever(ctx context.Context) (retriever.Retriever, error) {
	models, err := llm.NewChatModels(ctx, a.client, a.cfg.Router, a.cfg.Generation)
	if err != nil {
		return nil, err
	}
	extractor, err := chains.NewPassageExtractor(ctx, models.Router, observers.NewAllCallbacks())
	if err != nil {
		return nil, err
	}
	r, err := rag.NewCompressionRetriever(a.retriever, extractor)
	if err != nil {
		return nil, err
	}
	logx.Info().Str("model", a.cfg.Router.Model).Msg("using compression retriever")
	return r, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func openStore(ctx context.Context, cfg Config) (vectorstore.Store, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Vector.Backend)) {
	case "memory":
		return vectorstore.NewMemoryStore(), func() {}, nil
	case "", "file":
		store, err := vectorstore.OpenFileStore(cfg.Vector.File)
		if err != nil {
			return nil, nil, errx.Config("open vector index %s: %v", cfg.Vector.File, err)
		}
		logx.Info().Str("path", cfg.Vector.File).Msg("using file vector store")
		return store, func() {}, nil
	case "redis":
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			logx.Error().Err(err).Msg("Failed to initialise Redis client")
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		logx.Info().Str("key", cfg.Vector.RedisKey).Msg("using redis vector store")
		return vectorstore.NewRedisStore(rdb, cfg.Vector.RedisKey), func() { _ = rdb.Close() }, nil
	case "pgvector", "postgres":
		pool, err := cfg.Postgres.New(ctx)
		if err != nil {
			logx.Error().Err(err).Msg("Failed to initialise Postgres pool")
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := vectorstore.NewPgStore(pool, cfg.Vector.Table, cfg.Vector.Dimensions)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("prepare pgvector schema: %w", err)
		}
		logx.Info().Str("table", cfg.Vector.Table).Msg("using pgvector store")
		return store, pool.Close, nil
	default:
		return nil, nil, errx.Config("unknown VECTOR_BACKEND %q (want file, memory, redis or pgvector)", cfg.Vector.Backend)
	}
}
