package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renal-diet-poc/server/internal/agent/model"
	"github.com/renal-diet-poc/server/internal/agent/parsers"
	errx "github.com/renal-diet-poc/server/internal/core/error"
)

const kimchiQuery = "김치찌개 만들 때 저칼륨 재료로 대체할 수 있는 게 뭐야?"

type journal struct{ calls []string }

func (j *journal) add(s string) { j.calls = append(j.calls, s) }

type stubClassifier struct {
	j     *journal
	label string
	err   error
}

func (c stubClassifier) Classify(_ context.Context, _ string) (string, model.Intent, error) {
	c.j.add("classify")
	if c.err != nil {
		return "", "", c.err
	}
	label := parsers.NormalizeLabel(c.label)
	return label, parsers.ParseIntent(label), nil
}

type stubExtractor struct{ j *journal }

func (e stubExtractor) Extract(_ context.Context, _ string) (string, error) {
	e.j.add("extract")
	return "김치찌개", nil
}

type stubDecider struct {
	j      *journal
	answer string
}

func (d stubDecider) Decide(_ context.Context, _ string) (bool, error) {
	d.j.add("decide")
	return parsers.ParseDecision(d.answer), nil
}

type stubGenerator struct {
	j    *journal
	name string
	out  string
	err  error
}

func (g stubGenerator) Run(_ context.Context, input string) (string, error) {
	g.j.add(g.name + ":" + input)
	if g.err != nil {
		return "", g.err
	}
	return g.out, nil
}

func newStubWorkflow(t *testing.T, j *journal, label, decision string) *Workflow {
	t.Helper()
	w, err := New(Config{
		Classifier:     stubClassifier{j: j, label: label},
		DishExtractor:  stubExtractor{j: j},
		Decider:        stubDecider{j: j, answer: decision},
		Recommendation: stubGenerator{j: j, name: "recommendation", out: "REC"},
		Summary:        stubGenerator{j: j, name: "summary", out: "SUM"},
		Quiz:           stubGenerator{j: j, name: "quiz", out: "QUIZ\n 1) ?"},
	})
	require.NoError(t, err)
	return w
}

func ptr(s string) *string { return &s }

var ignoreRunFields = cmpopts.IgnoreFields(model.WorkflowState{}, "RunID", "Usage")

func TestRun_RecommendationWithoutSummary(t *testing.T) {
	j := &journal{}
	w := newStubWorkflow(t, j, "recommendation", "no")

	got, err := w.Run(context.Background(), kimchiQuery)
	require.NoError(t, err)

	want := model.WorkflowState{
		Query:                kimchiQuery,
		Intent:               model.IntentRecommendation,
		IntentLabel:          "recommendation",
		DishName:             "김치찌개",
		RecommendationResult: ptr("REC"),
		FinalResult:          ptr("REC"),
	}
	if diff := cmp.Diff(want, got, ignoreRunFields); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
	assert.NotContains(t, got.Final(), "추가 정보")
	assert.Equal(t, []string{"classify", "extract", "recommendation:김치찌개", "decide"}, j.calls)
	assert.NotEmpty(t, got.RunID)
	require.NotNil(t, got.Usage)
}

func TestRun_RecommendationThenSummary(t *testing.T) {
	j := &journal{}
	w := newStubWorkflow(t, j, "Recommendation", "YES")

	got, err := w.Run(context.Background(), "김치찌개 저칼륨으로 만드는 법 알려줄래?")
	require.NoError(t, err)

	want := "REC\n\n" + strings.Repeat("=", 70) + "\n\n## 추가 정보\n\nSUM"
	assert.Equal(t, want, got.Final())
	assert.Less(t, strings.Index(got.Final(), "REC"), strings.Index(got.Final(), "SUM"))
	assert.True(t, got.NeedSummary)
	assert.Equal(t, "REC", *got.RecommendationResult)
	assert.Equal(t, []string{
		"classify", "extract", "recommendation:김치찌개", "decide",
		"summary:김치찌개 저칼륨으로 만드는 법 알려줄래?",
	}, j.calls)
}

func TestRun_SummaryDirect(t *testing.T) {
	j := &journal{}
	w := newStubWorkflow(t, j, "summary", "")

	got, err := w.Run(context.Background(), "투석 환자 식단 요약해줘")
	require.NoError(t, err)

	want := model.WorkflowState{
		Query:       "투석 환자 식단 요약해줘",
		Intent:      model.IntentSummary,
		IntentLabel: "summary",
		FinalResult: ptr("SUM"),
	}
	if diff := cmp.Diff(want, got, ignoreRunFields); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "recommendation_result")
}

func TestRun_QuizVerbatim(t *testing.T) {
	j := &journal{}
	w := newStubWorkflow(t, j, "  QUIZ ", "")

	got, err := w.Run(context.Background(), "칼륨 문제 내줘")
	require.NoError(t, err)
	assert.Equal(t, "QUIZ\n 1) ?", got.Final())
	assert.Nil(t, got.RecommendationResult)
	assert.Equal(t, model.IntentQuiz, got.Intent)
	assert.Equal(t, []string{"classify", "quiz:칼륨 문제 내줘"}, j.calls)
}

func TestRun_UnknownLabelDefaultsToSummary(t *testing.T) {
	j := &journal{}
	w := newStubWorkflow(t, j, "음... 잘 모르겠어요", "")

	got, err := w.Run(context.Background(), "인 섭취")
	require.NoError(t, err)
	assert.Equal(t, model.IntentSummary, got.Intent)
	assert.Equal(t, "SUM", got.Final())
}

func TestRun_FailFast(t *testing.T) {
	j := &journal{}
	w, err := New(Config{
		Classifier:     stubClassifier{j: j, label: "recommendation"},
		DishExtractor:  stubExtractor{j: j},
		Decider:        stubDecider{j: j, answer: "yes"},
		Recommendation: stubGenerator{j: j, name: "recommendation", err: errx.WrapModel(errors.New("quota exceeded"))},
		Summary:        stubGenerator{j: j, name: "summary", out: "SUM"},
		Quiz:           stubGenerator{j: j, name: "quiz", out: "QUIZ"},
	})
	require.NoError(t, err)

	got, err := w.Run(context.Background(), kimchiQuery)
	require.Error(t, err)
	assert.Equal(t, 502, errx.StatusOf(err))
	assert.Contains(t, err.Error(), "recommendation node")
	if diff := cmp.Diff(model.WorkflowState{}, got); diff != "" {
		t.Errorf("expected zero state on failure (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"classify", "extract", "recommendation:김치찌개"}, j.calls)
}

func TestRun_ClassifierError(t *testing.T) {
	j := &journal{}
	w, err := New(Config{
		Classifier:     stubClassifier{j: j, err: errors.New("auth")},
		DishExtractor:  stubExtractor{j: j},
		Decider:        stubDecider{j: j},
		Recommendation: stubGenerator{j: j, name: "recommendation"},
		Summary:        stubGenerator{j: j, name: "summary"},
		Quiz:           stubGenerator{j: j, name: "quiz"},
	})
	require.NoError(t, err)

	_, err = w.Run(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, []string{"classify"}, j.calls)
}

func TestRun_EmptyQuery(t *testing.T) {
	w := newStubWorkflow(t, &journal{}, "summary", "")
	_, err := w.Run(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, 400, errx.StatusOf(err))
}

func TestRun_MaxStepsGuard(t *testing.T) {
	j := &journal{}
	w := newStubWorkflow(t, j, "quiz", "")
	w.maxSteps = 3
	w.routes[NodeQuiz] = func(model.WorkflowState) Node { return NodeQuiz }

	_, err := w.Run(context.Background(), "loop")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxSteps)
	assert.Len(t, j.calls, 3)
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	j := &journal{}
	w := newStubWorkflow(t, j, "summary", "")

	_, err := w.Run(ctx, "q")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, j.calls)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}
