package chains

import (
	"context"

	"github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/renal-diet-poc/server/internal/agent/parsers"
	"github.com/renal-diet-poc/server/internal/agent/prompts"
)

// PassageExtractor keeps only the parts of a retrieved passage that bear on
// the query. It backs the compression retriever.
type PassageExtractor struct {
	chain *textChain
}

func NewPassageExtractor(ctx context.Context, cm einomodel.BaseChatModel, handlers ...callbacks.Handler) (*PassageExtractor, error) {
	c, err := newTextChain(ctx, "passage_extractor", prompts.ExtractTemplate(), cm, handlers)
	if err != nil {
		return nil, err
	}
	return &PassageExtractor{chain: c}, nil
}

// Extract returns "" when nothing in passage is relevant.
func (e *PassageExtractor) Extract(ctx context.Context, query, passage string) (string, error) {
	out, err := e.chain.invoke(ctx, map[string]any{
		prompts.VarQuery:   query,
		prompts.VarContext: passage,
	})
	if err != nil {
		return "", err
	}
	return parsers.ParseExtraction(out), nil
}
