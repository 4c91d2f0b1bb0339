package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"google.golang.org/genai"

	errx "github.com/renal-diet-poc/server/internal/core/error"
)

const defaultEmbedBatch = 100

// embedAPI is the slice of genai.Models the embedder uses.
type embedAPI interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Embedder implements embedding.Embedder with the Gemini embedding endpoint.
type Embedder struct {
	api        embedAPI
	model      string
	batchSize  int
	dimensions int32
}

type EmbedderConfig struct {
	Model      string
	BatchSize  int
	Dimensions int
}

func NewEmbedder(client *genai.Client, config EmbedderConfig) (*Embedder, error) {
	if client == nil {
		return nil, errx.Config("genai client is nil")
	}
	return newEmbedder(client.Models, config), nil
}

func newEmbedder(api embedAPI, config EmbedderConfig) *Embedder {
	batch := config.BatchSize
	if batch <= 0 || batch > defaultEmbedBatch {
		batch = defaultEmbedBatch
	}
	return &Embedder{
		api:        api,
		model:      config.Model,
		batchSize:  batch,
		dimensions: int32(config.Dimensions),
	}
}

// EmbedStrings embeds texts in request-sized batches, preserving order.
func (e *Embedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	options := embedding.GetCommonOptions(&embedding.Options{Model: &e.model}, opts...)
	modelName := e.model
	if options.Model != nil && *options.Model != "" {
		modelName = *options.Model
	}

	cfg := &genai.EmbedContentConfig{}
	if e.dimensions > 0 {
		cfg.OutputDimensionality = genai.Ptr(e.dimensions)
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, t := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
		}

		resp, err := e.api.EmbedContent(ctx, modelName, contents, cfg)
		if err != nil {
			return nil, errx.WrapModel(fmt.Errorf("embed batch %d-%d: %w", start, end, err))
		}
		if resp == nil || len(resp.Embeddings) != end-start {
			got := 0
			if resp != nil {
				got = len(resp.Embeddings)
			}
			return nil, errx.WrapModel(fmt.Errorf("embed batch %d-%d: got %d embeddings", start, end, got))
		}
		for _, emb := range resp.Embeddings {
			vec := make([]float64, len(emb.Values))
			for i, v := range emb.Values {
				vec[i] = float64(v)
			}
			out = append(out, vec)
		}
	}
	return out, nil
}

var _ embedding.Embedder = (*Embedder)(nil)
