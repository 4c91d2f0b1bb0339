package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/renal-diet-poc/server/internal/agent/model"
	"github.com/renal-diet-poc/server/internal/agent/observers"
	errx "github.com/renal-diet-poc/server/internal/core/error"
	"github.com/renal-diet-poc/server/internal/metrics"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

// Node names the states of the router.
type Node string

const (
	NodeClassifier     Node = "classifier"
	NodeRecommendation Node = "recommendation"
	NodeSummary        Node = "summary"
	NodeQuiz           Node = "quiz"
	NodeEnd            Node = "end"
)

// DefaultMaxSteps bounds a run. The longest legal path is
// classifier -> recommendation -> summary.
const DefaultMaxSteps = 8

// ErrMaxSteps is returned when a run does not reach NodeEnd in time.
var ErrMaxSteps = errors.New("workflow exceeded max steps")

// additionalInfoBanner joins a recommendation and the summary that follows it.
var additionalInfoBanner = "\n\n" + strings.Repeat("=", 70) + "\n\n## 추가 정보\n\n"

type Classifier interface {
	Classify(ctx context.Context, query string) (label string, intent model.Intent, err error)
}

type DishExtractor interface {
	Extract(ctx context.Context, query string) (string, error)
}

type SummaryDecider interface {
	Decide(ctx context.Context, query string) (bool, error)
}

// Generator is a generation chain taking a dish name or a topic.
type Generator interface {
	Run(ctx context.Context, input string) (string, error)
}

// Runner executes one query end to end.
type Runner interface {
	Run(ctx context.Context, query string) (model.WorkflowState, error)
}

type Config struct {
	Classifier     Classifier
	DishExtractor  DishExtractor
	Decider        SummaryDecider
	Recommendation Generator
	Summary        Generator
	Quiz           Generator
	MaxSteps       int
}

type step func(ctx context.Context, s model.WorkflowState) (model.WorkflowState, error)

type route func(s model.WorkflowState) Node

// Workflow is a small state machine: each node is a step that returns an
// updated copy of the state, and a route picks the next node from it.
type Workflow struct {
	cfg      Config
	steps    map[Node]step
	routes   map[Node]route
	maxSteps int
}

func New(cfg Config) (*Workflow, error) {
	if cfg.Classifier == nil || cfg.DishExtractor == nil || cfg.Decider == nil {
		return nil, errx.Config("workflow needs a classifier, a dish extractor and a summary decider")
	}
	if cfg.Recommendation == nil || cfg.Summary == nil || cfg.Quiz == nil {
		return nil, errx.Config("workflow needs recommendation, summary and quiz chains")
	}
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	w := &Workflow{cfg: cfg, maxSteps: maxSteps}
	w.steps = map[Node]step{
		NodeClassifier:     w.classify,
		NodeRecommendation: w.recommend,
		NodeSummary:        w.summarize,
		NodeQuiz:           w.quiz,
	}
	w.routes = map[Node]route{
		NodeClassifier:     routeIntent,
		NodeRecommendation: routeAfterRecommendation,
		NodeSummary:        toEnd,
		NodeQuiz:           toEnd,
	}
	return w, nil
}

// Run routes the query through the nodes until NodeEnd. Any node error aborts
// the run and no partial state is returned.
func (w *Workflow) Run(ctx context.Context, query string) (model.WorkflowState, error) {
	if strings.TrimSpace(query) == "" {
		return model.WorkflowState{}, errx.Invalid("query is empty")
	}

	start := time.Now()
	ctx, tracker := observers.WithUsage(ctx)
	state := model.WorkflowState{RunID: uuid.NewString(), Query: query}
	logx.Info().Str("run_id", state.RunID).Str("query", query).Msg("workflow started")

	fail := func(node Node, err error) (model.WorkflowState, error) {
		intent := intentLabel(state)
		metrics.WorkflowRuns.WithLabelValues(intent, "error").Inc()
		logx.Error().Err(err).Str("run_id", state.RunID).Str("node", string(node)).Msg("workflow failed")
		return model.WorkflowState{}, fmt.Errorf("%s node: %w", node, err)
	}

	node := NodeClassifier
	for n := 0; node != NodeEnd; n++ {
		if n >= w.maxSteps {
			return fail(node, fmt.Errorf("%w (%d)", ErrMaxSteps, w.maxSteps))
		}
		if err := ctx.Err(); err != nil {
			return fail(node, err)
		}
		run, ok := w.steps[node]
		if !ok {
			return fail(node, fmt.Errorf("no step for node %q", node))
		}
		next, err := run(ctx, state)
		if err != nil {
			return fail(node, err)
		}
		state = next

		to := w.routes[node](state)
		logx.Debug().Str("run_id", state.RunID).Str("from", string(node)).Str("to", string(to)).Msg("transition")
		node = to
	}

	usage := tracker.Snapshot()
	state.Usage = &usage

	took := time.Since(start)
	intent := intentLabel(state)
	metrics.WorkflowRuns.WithLabelValues(intent, "ok").Inc()
	metrics.WorkflowDuration.WithLabelValues(intent).Observe(took.Seconds())
	logx.Info().
		Str("run_id", state.RunID).
		Str("intent", intent).
		Bool("need_summary", state.NeedSummary).
		Int("llm_calls", usage.LLMCalls).
		Float64("cost_usd", usage.TotalCostUSD).
		Dur("took", took).
		Msg("workflow finished")
	return state, nil
}

func (w *Workflow) classify(ctx context.Context, s model.WorkflowState) (model.WorkflowState, error) {
	label, intent, err := w.cfg.Classifier.Classify(ctx, s.Query)
	if err != nil {
		return s, err
	}
	s.IntentLabel = label
	s.Intent = intent
	logx.Info().Str("run_id", s.RunID).Str("label", label).Str("intent", string(intent)).Msg("intent classified")
	return s, nil
}

func (w *Workflow) recommend(ctx context.Context, s model.WorkflowState) (model.WorkflowState, error) {
	dish, err := w.cfg.DishExtractor.Extract(ctx, s.Query)
	if err != nil {
		return s, err
	}
	logx.Info().Str("run_id", s.RunID).Str("dish", dish).Msg("dish extracted")

	result, err := w.cfg.Recommendation.Run(ctx, dish)
	if err != nil {
		return s, err
	}

	needSummary, err := w.cfg.Decider.Decide(ctx, s.Query)
	if err != nil {
		return s, err
	}

	s.DishName = dish
	s.RecommendationResult = &result
	s.FinalResult = &result
	s.NeedSummary = needSummary
	return s, nil
}

func (w *Workflow) summarize(ctx context.Context, s model.WorkflowState) (model.WorkflowState, error) {
	summary, err := w.cfg.Summary.Run(ctx, s.Query)
	if err != nil {
		return s, err
	}
	final := summary
	if s.HasRecommendation() {
		final = *s.RecommendationResult + additionalInfoBanner + summary
	}
	s.FinalResult = &final
	return s, nil
}

func (w *Workflow) quiz(ctx context.Context, s model.WorkflowState) (model.WorkflowState, error) {
	out, err := w.cfg.Quiz.Run(ctx, s.Query)
	if err != nil {
		return s, err
	}
	s.FinalResult = &out
	return s, nil
}

func routeIntent(s model.WorkflowState) Node {
	switch s.Intent {
	case model.IntentRecommendation:
		return NodeRecommendation
	case model.IntentQuiz:
		return NodeQuiz
	default:
		return NodeSummary
	}
}

func routeAfterRecommendation(s model.WorkflowState) Node {
	if s.NeedSummary {
		return NodeSummary
	}
	return NodeEnd
}

func toEnd(model.WorkflowState) Node {
	return NodeEnd
}

func intentLabel(s model.WorkflowState) string {
	if s.Intent == "" {
		return "unknown"
	}
	return string(s.Intent)
}
