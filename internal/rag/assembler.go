package rag

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/renal-diet-poc/server/internal/agent/model"
	errx "github.com/renal-diet-poc/server/internal/core/error"
	"github.com/renal-diet-poc/server/internal/metrics"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

const (
	RetrievalHeader      = "[RAG 검색 결과]"
	WebHeader            = "[웹 검색 결과]"
	NoResultsPlaceholder = "검색 결과 없음"

	passageSeparator = "\n\n"
	subjectToken     = "{subject}"
)

// WebSearcher returns formatted web results. It never fails; problems are
// reported inside the returned text.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) string
}

// Policy describes how context is assembled for one purpose. {subject} in the
// query formats is replaced by the dish name or topic.
type Policy struct {
	QueryFormat string
	// MinChars is the retrieved length (in characters) below which web search
	// is added. Zero disables the fallback.
	MinChars       int
	WebQueryFormat string
	WebMaxResults  int
}

func (p Policy) fallback() bool {
	return p.MinChars > 0
}

// DefaultPolicies is the per-purpose retrieval policy.
var DefaultPolicies = map[model.Purpose]Policy{
	model.PurposeIngredients: {
		QueryFormat:    "{subject} 재료 레시피",
		MinChars:       300,
		WebQueryFormat: "{subject} 레시피 재료",
		WebMaxResults:  2,
	},
	model.PurposeRecommendation: {
		QueryFormat:    "저칼륨 저인 식품 대체재 {subject}",
		MinChars:       500,
		WebQueryFormat: "저칼륨 저인 식품 대체재 {subject}",
		WebMaxResults:  3,
	},
	model.PurposeSummary: {
		QueryFormat:    "{subject}",
		MinChars:       500,
		WebQueryFormat: "{subject}",
		WebMaxResults:  3,
	},
	model.PurposeQuiz: {
		QueryFormat: "{subject}",
	},
}

// Assembler builds the reference context handed to the generation chains.
type Assembler struct {
	retriever retriever.Retriever
	web       WebSearcher
	policies  map[model.Purpose]Policy
}

// NewAssembler uses DefaultPolicies when policies is nil.
func NewAssembler(r retriever.Retriever, web WebSearcher, policies map[model.Purpose]Policy) (*Assembler, error) {
	if r == nil {
		return nil, errx.Config("context assembler needs a retriever")
	}
	if web == nil {
		return nil, errx.Config("context assembler needs a web searcher")
	}
	if policies == nil {
		policies = DefaultPolicies
	}
	return &Assembler{retriever: r, web: web, policies: policies}, nil
}

// Assemble returns retrieved passages joined by blank lines, or, when they are
// too short, a two-part retrieval + web search context.
func (a *Assembler) Assemble(ctx context.Context, subject string, purpose model.Purpose) (string, error) {
	p, ok := a.policies[purpose]
	if !ok {
		return "", fmt.Errorf("no context policy for purpose %q", purpose)
	}

	query := strings.ReplaceAll(p.QueryFormat, subjectToken, subject)
	docs, err := a.retriever.Retrieve(ctx, query)
	if err != nil {
		logx.Error().Err(err).Str("purpose", string(purpose)).Str("query", query).Msg("retrieval failed")
		return "", errx.WrapRetrieval(fmt.Errorf("retrieve %s context: %w", purpose, err))
	}

	joined := joinPassages(docs)
	total := totalChars(docs)

	if !p.fallback() || total >= p.MinChars {
		metrics.ContextAssemblies.WithLabelValues(string(purpose), "retrieval").Inc()
		logx.Info().
			Str("purpose", string(purpose)).
			Str("subject", subject).
			Int("docs", len(docs)).
			Int("chars", total).
			Msg("used retrieval")
		return joined, nil
	}

	webQuery := strings.ReplaceAll(p.WebQueryFormat, subjectToken, subject)
	logx.Warn().
		Str("purpose", string(purpose)).
		Str("subject", subject).
		Int("chars", total).
		Int("min_chars", p.MinChars).
		Str("web_query", webQuery).
		Msg("used fallback")
	metrics.ContextAssemblies.WithLabelValues(string(purpose), "fallback").Inc()

	retrieved := joined
	if strings.TrimSpace(retrieved) == "" {
		retrieved = NoResultsPlaceholder
	}
	web := a.web.Search(ctx, webQuery, p.WebMaxResults)

	return RetrievalHeader + "\n" + retrieved + passageSeparator + WebHeader + "\n" + web, nil
}

func joinPassages(docs []*schema.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, passageSeparator)
}

func totalChars(docs []*schema.Document) int {
	n := 0
	for _, d := range docs {
		n += utf8.RuneCountInString(d.Content)
	}
	return n
}
