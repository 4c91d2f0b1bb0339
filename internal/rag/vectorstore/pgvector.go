package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	errx "github.com/renal-diet-poc/server/internal/core/error"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

// pgxConn is satisfied by *pgxpool.Pool and pgx.Tx.
type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PgStore keeps chunks in a Postgres table with a pgvector column and
// ranks them by cosine distance.
type PgStore struct {
	db         pgxConn
	table      string // sanitized identifier
	dimensions int
}

func NewPgStore(db pgxConn, table string, dimensions int) *PgStore {
	return &PgStore{
		db:         db,
		table:      pgx.Identifier{table}.Sanitize(),
		dimensions: dimensions,
	}
}

// EnsureSchema creates the extension, table and HNSW index when missing.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id        text PRIMARY KEY,
			content   text NOT NULL,
			metadata  jsonb NOT NULL DEFAULT '{}'::jsonb,
			embedding vector(%d) NOT NULL
		)`, s.table, s.dimensions),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)",
			pgx.Identifier{indexName(s.table)}.Sanitize(), s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			logx.Error().Err(err).Str("table", s.table).Msg("failed to prepare pgvector schema")
			return errx.WrapPostgres(err)
		}
	}
	return nil
}

func (s *PgStore) Add(ctx context.Context, docs []*schema.Document, vectors [][]float64) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("docs and vectors length mismatch: %d != %d", len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil
	}

	insert := fmt.Sprintf(`INSERT INTO %s (id, content, metadata, embedding) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding`, s.table)

	batch := &pgx.Batch{}
	for i, d := range docs {
		if len(vectors[i]) != s.dimensions {
			return fmt.Errorf("chunk %s has %d dimensions, table expects %d", d.ID, len(vectors[i]), s.dimensions)
		}
		meta, err := json.Marshal(d.MetaData)
		if err != nil {
			return fmt.Errorf("marshal metadata %s: %w", d.ID, err)
		}
		batch.Queue(insert, d.ID, d.Content, meta, pgvector.NewVector(toFloat32(vectors[i])))
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for range docs {
		if _, err := br.Exec(); err != nil {
			logx.Error().Err(err).Str("table", s.table).Msg("failed to insert chunk")
			return errx.WrapPostgres(err)
		}
	}
	return nil
}

func (s *PgStore) Search(ctx context.Context, vector []float64, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT id, content, metadata, embedding::text, 1 - (embedding <=> $1) AS score
		FROM %s ORDER BY embedding <=> $1 LIMIT $2`, s.table)

	rows, err := s.db.Query(ctx, query, pgvector.NewVector(toFloat32(vector)), k)
	if err != nil {
		logx.Error().Err(err).Str("table", s.table).Msg("pgvector query failed")
		return nil, errx.WrapPostgres(err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			id, content, embText string
			meta                 []byte
			score                float64
		)
		if err := rows.Scan(&id, &content, &meta, &embText, &score); err != nil {
			return nil, errx.WrapPostgres(err)
		}
		m, err := decodeRow(id, content, meta, embText, score)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapPostgres(err)
	}
	return matches, nil
}

func (s *PgStore) Clear(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, fmt.Sprintf("TRUNCATE %s", s.table)); err != nil {
		return errx.WrapPostgres(err)
	}
	return nil
}

func (s *PgStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", s.table)).Scan(&n); err != nil {
		return 0, errx.WrapPostgres(err)
	}
	return n, nil
}

func decodeRow(id, content string, meta []byte, embText string, score float64) (Match, error) {
	doc := &schema.Document{ID: id, Content: content, MetaData: map[string]any{}}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &doc.MetaData); err != nil {
			return Match{}, fmt.Errorf("decode metadata %s: %w", id, err)
		}
		normalizeMeta(doc.MetaData)
	}
	var v pgvector.Vector
	if err := v.Scan(embText); err != nil {
		return Match{}, fmt.Errorf("decode embedding %s: %w", id, err)
	}
	return Match{Document: doc, Vector: toFloat64(v.Slice()), Score: score}, nil
}

func indexName(sanitizedTable string) string {
	name := make([]rune, 0, len(sanitizedTable)+16)
	for _, r := range sanitizedTable {
		if r != '"' {
			name = append(name, r)
		}
	}
	return string(name) + "_embedding_idx"
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

var _ Store = (*PgStore)(nil)
