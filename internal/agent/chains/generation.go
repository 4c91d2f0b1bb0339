package chains

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/renal-diet-poc/server/internal/agent/model"
	"github.com/renal-diet-poc/server/internal/agent/prompts"
	errx "github.com/renal-diet-poc/server/internal/core/error"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

// RecommendationChain lists a dish's ingredients with their nutrients, then
// recommends low-potassium and low-phosphorus substitutes.
type RecommendationChain struct {
	assembler    ContextAssembler
	ingredients  *textChain
	substitution *textChain
}

func NewRecommendationChain(ctx context.Context, assembler ContextAssembler, cm einomodel.BaseChatModel, handlers ...callbacks.Handler) (*RecommendationChain, error) {
	if assembler == nil {
		return nil, errx.Config("recommendation chain needs a context assembler")
	}
	ingredients, err := newTextChain(ctx, "ingredients", prompts.IngredientsTemplate(), cm, handlers)
	if err != nil {
		return nil, err
	}
	substitution, err := newTextChain(ctx, "substitution", prompts.SubstitutionTemplate(), cm, handlers)
	if err != nil {
		return nil, err
	}
	return &RecommendationChain{assembler: assembler, ingredients: ingredients, substitution: substitution}, nil
}

// Run makes two model calls. The second stage fetches its own context from
// the dish name; it does not reuse the ingredient listing for retrieval.
func (c *RecommendationChain) Run(ctx context.Context, dish string) (string, error) {
	logx.Info().Str("dish", dish).Msg("running recommendation chain")

	ingredientCtx, err := c.assembler.Assemble(ctx, dish, model.PurposeIngredients)
	if err != nil {
		return "", err
	}
	listing, err := c.ingredients.invoke(ctx, map[string]any{
		prompts.VarContext:    ingredientCtx,
		prompts.VarGuidelines: prompts.RecommendationGuidelines(),
		prompts.VarDishName:   dish,
	})
	if err != nil {
		return "", err
	}

	substituteCtx, err := c.assembler.Assemble(ctx, dish, model.PurposeRecommendation)
	if err != nil {
		return "", err
	}
	out, err := c.substitution.invoke(ctx, map[string]any{
		prompts.VarContext:     substituteCtx,
		prompts.VarGuidelines:  prompts.RecommendationGuidelines(),
		prompts.VarDishName:    dish,
		prompts.VarIngredients: listing,
	})
	if err != nil {
		return "", err
	}
	logx.Info().Str("dish", dish).Int("chars", len([]rune(out))).Msg("recommendation chain done")
	return out, nil
}

// SummaryChain writes a cooking summary, cautions and a short Q&A for a topic.
type SummaryChain struct {
	assembler ContextAssembler
	chain     *textChain
}

func NewSummaryChain(ctx context.Context, assembler ContextAssembler, cm einomodel.BaseChatModel, handlers ...callbacks.Handler) (*SummaryChain, error) {
	if assembler == nil {
		return nil, errx.Config("summary chain needs a context assembler")
	}
	c, err := newTextChain(ctx, "summary", prompts.SummaryTemplate(), cm, handlers)
	if err != nil {
		return nil, err
	}
	return &SummaryChain{assembler: assembler, chain: c}, nil
}

func (c *SummaryChain) Run(ctx context.Context, topic string) (string, error) {
	return runTopic(ctx, c.assembler, c.chain, topic, model.PurposeSummary, map[string]any{
		prompts.VarGuidelines: prompts.Guidelines(),
	})
}

// QuizChain writes two multiple-choice questions and one open question.
// The output is returned as the model wrote it.
type QuizChain struct {
	assembler ContextAssembler
	chain     *textChain
}

func NewQuizChain(ctx context.Context, assembler ContextAssembler, cm einomodel.BaseChatModel, handlers ...callbacks.Handler) (*QuizChain, error) {
	if assembler == nil {
		return nil, errx.Config("quiz chain needs a context assembler")
	}
	c, err := newTextChain(ctx, "quiz", prompts.QuizTemplate(), cm, handlers)
	if err != nil {
		return nil, err
	}
	return &QuizChain{assembler: assembler, chain: c}, nil
}

func (c *QuizChain) Run(ctx context.Context, topic string) (string, error) {
	return runTopic(ctx, c.assembler, c.chain, topic, model.PurposeQuiz, nil)
}

func runTopic(ctx context.Context, a ContextAssembler, c *textChain, topic string, purpose model.Purpose, extra map[string]any) (string, error) {
	logx.Info().Str("chain", c.name).Str("topic", topic).Msg("running chain")

	reference, err := a.Assemble(ctx, topic, purpose)
	if err != nil {
		return "", fmt.Errorf("%s context: %w", c.name, err)
	}
	vars := map[string]any{
		prompts.VarContext: reference,
		prompts.VarTopic:   topic,
	}
	for k, v := range extra {
		vars[k] = v
	}
	return c.invoke(ctx, vars)
}
