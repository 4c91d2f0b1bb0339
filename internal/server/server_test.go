package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renal-diet-poc/server/internal/agent/model"
	errx "github.com/renal-diet-poc/server/internal/core/error"
	"github.com/renal-diet-poc/server/internal/metrics"
)

type fakeRunner struct {
	queries []string
	err     error
}

func (f *fakeRunner) Run(_ context.Context, query string) (model.WorkflowState, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return model.WorkflowState{}, f.err
	}
	out := "SUM"
	return model.WorkflowState{Query: query, Intent: model.IntentSummary, FinalResult: &out}, nil
}

type fakeSearcher struct {
	k      int
	source string
}

func (f *fakeSearcher) RetrieveWithScores(_ context.Context, _ string, k int) ([]*schema.Document, error) {
	f.k = k
	d := &schema.Document{Content: "칼륨 제한", MetaData: map[string]any{model.MetaSourceFile: "guide.pdf", model.MetaPage: 2}}
	return []*schema.Document{d.WithScore(0.91)}, nil
}

func (f *fakeSearcher) FilterBySource(_ context.Context, _ string, source string, k int) ([]*schema.Document, error) {
	f.source = source
	f.k = k
	return nil, nil
}

type fakeCounter struct {
	n   int
	err error
}

func (f fakeCounter) Count(context.Context) (int, error) { return f.n, f.err }

func newTestServer(runner *fakeRunner, searcher *fakeSearcher, counter IndexCounter) http.Handler {
	return New(runner, searcher, counter, Options{Addr: ":0"}).Handler()
}

func TestWorkflowEndpoint(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestServer(runner, &fakeSearcher{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/workflow", strings.NewReader(`{"query":"저염식 요약"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SUM", body["final_result"])
	assert.Equal(t, "summary", body["intent"])
	_, hasRec := body["recommendation_result"]
	assert.False(t, hasRec)
	assert.Equal(t, []string{"저염식 요약"}, runner.queries)
}

func TestWorkflowEndpoint_BadInput(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestServer(runner, &fakeSearcher{}, nil)

	for _, body := range []string{`{"query":"  "}`, `not json`, `{}`} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/workflow", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), errx.InvalidInputMessage)
	}
	assert.Empty(t, runner.queries)
}

func TestWorkflowEndpoint_ModelFailure(t *testing.T) {
	h := newTestServer(&fakeRunner{err: errx.WrapModel(errors.New("secret upstream detail"))}, &fakeSearcher{}, nil)

	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/v1/workflow", http.MethodPost, "502"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/workflow", strings.NewReader(`{"query":"q"}`)))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret upstream detail")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/v1/workflow", http.MethodPost, "502")))
}

func TestSearchEndpoint(t *testing.T) {
	searcher := &fakeSearcher{}
	h := newTestServer(&fakeRunner{}, searcher, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/search?q=%EC%B9%BC%EB%A5%A8&k=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "칼륨", resp.Query)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "guide.pdf", resp.Results[0].SourceFile)
	assert.InDelta(t, 0.91, resp.Results[0].Score, 1e-9)
	assert.Equal(t, 3, searcher.k)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/search?q=x&source=recipes.csv&k=7", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "recipes.csv", searcher.source)
	assert.Equal(t, 7, searcher.k)

	for _, target := range []string{"/v1/search", "/v1/search?q=x&k=0", "/v1/search?q=x&k=abc"} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&fakeRunner{}, &fakeSearcher{}, fakeCounter{n: 42}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","indexed_chunks":42}`, rec.Body.String())

	rec = httptest.NewRecorder()
	newTestServer(&fakeRunner{}, &fakeSearcher{}, fakeCounter{err: errors.New("down")}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&fakeRunner{}, &fakeSearcher{}, nil).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/workflow", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(&fakeRunner{}, &fakeSearcher{}, nil, Options{Addr: "127.0.0.1:0"})

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, time.Second) }()
	cancel()
	require.NoError(t, <-done)
}
