package workflow

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/renal-diet-poc/server/internal/agent/chains"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

// BuildConfig holds everything needed to compose the workflow end to end.
// Router serves classification, dish extraction and the yes/no judgment;
// Generation serves the three answer chains.
type BuildConfig struct {
	Router     einomodel.BaseChatModel
	Generation einomodel.BaseChatModel
	Assembler  chains.ContextAssembler
	Handlers   []callbacks.Handler
	MaxSteps   int
}

// Build compiles every chain and wires them into a Workflow.
func Build(ctx context.Context, cfg BuildConfig) (*Workflow, error) {
	if cfg.Router == nil || cfg.Generation == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if cfg.Assembler == nil {
		return nil, fmt.Errorf("context assembler is nil")
	}

	classifier, err := chains.NewIntentClassifier(ctx, cfg.Router, cfg.Handlers...)
	if err != nil {
		return nil, err
	}
	extractor, err := chains.NewDishExtractor(ctx, cfg.Router, cfg.Handlers...)
	if err != nil {
		return nil, err
	}
	decider, err := chains.NewSummaryDecider(ctx, cfg.Router, cfg.Handlers...)
	if err != nil {
		return nil, err
	}
	recommendation, err := chains.NewRecommendationChain(ctx, cfg.Assembler, cfg.Generation, cfg.Handlers...)
	if err != nil {
		return nil, err
	}
	summary, err := chains.NewSummaryChain(ctx, cfg.Assembler, cfg.Generation, cfg.Handlers...)
	if err != nil {
		return nil, err
	}
	quiz, err := chains.NewQuizChain(ctx, cfg.Assembler, cfg.Generation, cfg.Handlers...)
	if err != nil {
		return nil, err
	}

	w, err := New(Config{
		Classifier:     classifier,
		DishExtractor:  extractor,
		Decider:        decider,
		Recommendation: recommendation,
		Summary:        summary,
		Quiz:           quiz,
		MaxSteps:       cfg.MaxSteps,
	})
	if err != nil {
		return nil, err
	}
	logx.Debug().Int("max_steps", w.maxSteps).Msg("workflow built successfully")
	return w, nil
}
