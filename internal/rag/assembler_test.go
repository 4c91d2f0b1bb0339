package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renal-diet-poc/server/internal/agent/model"
	errx "github.com/renal-diet-poc/server/internal/core/error"
	"github.com/renal-diet-poc/server/internal/metrics"
)

func docsOfLength(n ...int) []*schema.Document {
	out := make([]*schema.Document, 0, len(n))
	for _, l := range n {
		out = append(out, &schema.Document{Content: strings.Repeat("가", l)})
	}
	return out
}

func TestAssemble_SufficientRetrievalSkipsWeb(t *testing.T) {
	r := &stubRetriever{docs: docsOfLength(200, 150)}
	web := &stubWeb{}
	a, err := NewAssembler(r, web, nil)
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.ContextAssemblies.WithLabelValues("ingredients", "retrieval"))
	first, err := a.Assemble(context.Background(), "김치찌개", model.PurposeIngredients)
	require.NoError(t, err)
	second, err := a.Assemble(context.Background(), "김치찌개", model.PurposeIngredients)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, strings.Repeat("가", 200)+"\n\n"+strings.Repeat("가", 150), first)
	assert.NotContains(t, first, RetrievalHeader)
	assert.Empty(t, web.calls)
	assert.Equal(t, []string{"김치찌개 재료 레시피", "김치찌개 재료 레시피"}, r.queries)
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.ContextAssemblies.WithLabelValues("ingredients", "retrieval")))
}

func TestAssemble_ShortRetrievalFallsBackToWeb(t *testing.T) {
	r := &stubRetriever{docs: docsOfLength(120)}
	web := &stubWeb{}
	a, err := NewAssembler(r, web, nil)
	require.NoError(t, err)

	got, err := a.Assemble(context.Background(), "김치찌개", model.PurposeRecommendation)
	require.NoError(t, err)

	assert.Equal(t, []string{"저칼륨 저인 식품 대체재 김치찌개"}, r.queries)
	assert.Equal(t, []string{"저칼륨 저인 식품 대체재 김치찌개"}, web.calls)
	assert.Equal(t, []int{3}, web.max)
	assert.True(t, strings.HasPrefix(got, RetrievalHeader+"\n"+strings.Repeat("가", 120)+"\n\n"+WebHeader+"\n"))
	assert.Contains(t, got, "웹 내용")
}

func TestAssemble_IngredientsWebQuery(t *testing.T) {
	web := &stubWeb{}
	a, err := NewAssembler(&stubRetriever{docs: docsOfLength(299)}, web, nil)
	require.NoError(t, err)

	_, err = a.Assemble(context.Background(), "된장찌개", model.PurposeIngredients)
	require.NoError(t, err)
	assert.Equal(t, []string{"된장찌개 레시피 재료"}, web.calls)
	assert.Equal(t, []int{2}, web.max)
}

func TestAssemble_NoDocumentsUsesPlaceholder(t *testing.T) {
	web := &stubWeb{}
	a, err := NewAssembler(&stubRetriever{}, web, nil)
	require.NoError(t, err)

	got, err := a.Assemble(context.Background(), "투석 환자 식단", model.PurposeSummary)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, RetrievalHeader+"\n"+NoResultsPlaceholder+"\n\n"+WebHeader+"\n"))
	assert.Equal(t, []string{"투석 환자 식단"}, web.calls)
}

func TestAssemble_QuizNeverFallsBack(t *testing.T) {
	web := &stubWeb{}
	a, err := NewAssembler(&stubRetriever{docs: docsOfLength(10)}, web, nil)
	require.NoError(t, err)

	got, err := a.Assemble(context.Background(), "칼륨", model.PurposeQuiz)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("가", 10), got)
	assert.Empty(t, web.calls)
}

func TestAssemble_ThresholdCountsCharacters(t *testing.T) {
	// 500 hangul runes are 1500 bytes; only the rune count matters.
	web := &stubWeb{}
	a, err := NewAssembler(&stubRetriever{docs: docsOfLength(250, 250)}, web, nil)
	require.NoError(t, err)

	_, err = a.Assemble(context.Background(), "인", model.PurposeSummary)
	require.NoError(t, err)
	assert.Empty(t, web.calls)

	a, err = NewAssembler(&stubRetriever{docs: docsOfLength(250, 249)}, web, nil)
	require.NoError(t, err)
	_, err = a.Assemble(context.Background(), "인", model.PurposeSummary)
	require.NoError(t, err)
	assert.Len(t, web.calls, 1)
}

func TestAssemble_RetrievalErrorPropagates(t *testing.T) {
	web := &stubWeb{}
	a, err := NewAssembler(&stubRetriever{err: errors.New("index unavailable")}, web, nil)
	require.NoError(t, err)

	_, err = a.Assemble(context.Background(), "김치찌개", model.PurposeIngredients)
	require.Error(t, err)
	assert.Equal(t, 502, errx.StatusOf(err))
	assert.Empty(t, web.calls)
}

func TestAssemble_UnknownPurpose(t *testing.T) {
	a, err := NewAssembler(&stubRetriever{}, &stubWeb{}, nil)
	require.NoError(t, err)
	_, err = a.Assemble(context.Background(), "x", model.Purpose("diet"))
	require.Error(t, err)
}

func TestNewAssembler_RequiresCollaborators(t *testing.T) {
	_, err := NewAssembler(nil, &stubWeb{}, nil)
	require.Error(t, err)
	_, err = NewAssembler(&stubRetriever{}, nil, nil)
	require.Error(t, err)
}
