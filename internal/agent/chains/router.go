package chains

import (
	"context"

	"github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/renal-diet-poc/server/internal/agent/model"
	"github.com/renal-diet-poc/server/internal/agent/parsers"
	"github.com/renal-diet-poc/server/internal/agent/prompts"
)

// IntentClassifier asks the router model for one of the three task labels.
type IntentClassifier struct {
	chain *textChain
}

func NewIntentClassifier(ctx context.Context, cm einomodel.BaseChatModel, handlers ...callbacks.Handler) (*IntentClassifier, error) {
	c, err := newTextChain(ctx, "intent_classifier", prompts.IntentTemplate(), cm, handlers)
	if err != nil {
		return nil, err
	}
	return &IntentClassifier{chain: c}, nil
}

// Classify returns the normalized label together with the routed intent.
func (c *IntentClassifier) Classify(ctx context.Context, query string) (string, model.Intent, error) {
	out, err := c.chain.invoke(ctx, map[string]any{prompts.VarQuery: query})
	if err != nil {
		return "", "", err
	}
	label := parsers.NormalizeLabel(out)
	return label, parsers.ParseIntent(label), nil
}

// DishExtractor pulls the dish name out of a recommendation query.
type DishExtractor struct {
	chain *textChain
}

func NewDishExtractor(ctx context.Context, cm einomodel.BaseChatModel, handlers ...callbacks.Handler) (*DishExtractor, error) {
	c, err := newTextChain(ctx, "dish_extractor", prompts.DishTemplate(), cm, handlers)
	if err != nil {
		return nil, err
	}
	return &DishExtractor{chain: c}, nil
}

func (e *DishExtractor) Extract(ctx context.Context, query string) (string, error) {
	out, err := e.chain.invoke(ctx, map[string]any{prompts.VarQuery: query})
	if err != nil {
		return "", err
	}
	return parsers.CleanDishName(out), nil
}

// SummaryDecider judges whether a recommendation query also asks for a summary.
type SummaryDecider struct {
	chain *textChain
}

func NewSummaryDecider(ctx context.Context, cm einomodel.BaseChatModel, handlers ...callbacks.Handler) (*SummaryDecider, error) {
	c, err := newTextChain(ctx, "summary_decider", prompts.DecisionTemplate(), cm, handlers)
	if err != nil {
		return nil, err
	}
	return &SummaryDecider{chain: c}, nil
}

func (d *SummaryDecider) Decide(ctx context.Context, query string) (bool, error) {
	out, err := d.chain.invoke(ctx, map[string]any{prompts.VarQuery: query})
	if err != nil {
		return false, err
	}
	return parsers.ParseDecision(out), nil
}
