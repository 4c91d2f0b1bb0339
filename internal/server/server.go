package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/renal-diet-poc/server/internal/agent/model"
	"github.com/renal-diet-poc/server/internal/agent/workflow"
	errx "github.com/renal-diet-poc/server/internal/core/error"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

const maxBodyBytes = 64 << 10

// Searcher exposes the retriever for the debugging search endpoint.
type Searcher interface {
	RetrieveWithScores(ctx context.Context, query string, k int) ([]*schema.Document, error)
	FilterBySource(ctx context.Context, query, sourceFile string, k int) ([]*schema.Document, error)
}

// IndexCounter reports how many chunks are indexed.
type IndexCounter interface {
	Count(ctx context.Context) (int, error)
}

type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	runner   workflow.Runner
	searcher Searcher
	index    IndexCounter
	http     *http.Server
}

func New(runner workflow.Runner, searcher Searcher, index IndexCounter, opts Options) *Server {
	s := &Server{runner: runner, searcher: searcher, index: index}
	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(metricsMiddleware)

	router.HandleFunc("/v1/workflow", s.handleWorkflow).Methods(http.MethodPost)
	router.HandleFunc("/v1/search", s.handleSearch).Methods(http.MethodGet)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler())
	return router
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", s.http.Addr).Msg("http server starting")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logx.Info().Msg("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logx.Info().Msg("server exited")
	return nil
}

func (s *Server) handleWorkflow(w http.ResponseWriter, r *http.Request) {
	var in model.QueryInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		writeError(w, errx.Invalid("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(in.Query) == "" {
		writeError(w, errx.Invalid("query is required"))
		return
	}

	state, err := s.runner.Run(r.Context(), in.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type searchHit struct {
	Content    string  `json:"content"`
	SourceFile string  `json:"source_file,omitempty"`
	Page       any     `json:"page,omitempty"`
	Score      float64 `json:"score"`
}

type searchResponse struct {
	Query   string      `json:"query"`
	Results []searchHit `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, errx.Invalid("q is required"))
		return
	}
	k := 0
	if v := r.URL.Query().Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 50 {
			writeError(w, errx.Invalid("k must be an integer in [1,50]"))
			return
		}
		k = n
	}

	var (
		docs []*schema.Document
		err  error
	)
	if source := r.URL.Query().Get("source"); source != "" {
		docs, err = s.searcher.FilterBySource(r.Context(), q, source, k)
	} else {
		docs, err = s.searcher.RetrieveWithScores(r.Context(), q, k)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	resp := searchResponse{Query: q, Results: make([]searchHit, 0, len(docs))}
	for _, d := range docs {
		src, _ := d.MetaData[model.MetaSourceFile].(string)
		resp.Results = append(resp.Results, searchHit{
			Content:    d.Content,
			SourceFile: src,
			Page:       d.MetaData[model.MetaPage],
			Score:      d.Score(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "healthy"}
	if s.index != nil {
		n, err := s.index.Count(r.Context())
		if err != nil {
			logx.Warn().Err(err).Msg("health check: index unavailable")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
			return
		}
		body["indexed_chunks"] = n
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logx.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errx.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": errx.MessageOf(err)})
}
