package vectorstore

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cloudwego/eino/schema"

	logx "github.com/renal-diet-poc/server/pkg/logger"
)

const maxRecordBytes = 64 << 20

// FileStore serves searches from memory and appends every chunk to a
// JSON-lines file, so a later process reopens the index without embedding
// the corpus again.
type FileStore struct {
	path string

	mu    sync.Mutex
	cache *MemoryStore
}

// OpenFileStore loads path if it exists. A missing file is an empty index.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, cache: NewMemoryStore()}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	var (
		docs    []*schema.Document
		vectors [][]float64
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	for line := 1; sc.Scan(); line++ {
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		d, vec, err := decodeRecord(b)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", s.path, line, err)
		}
		docs = append(docs, d)
		vectors = append(vectors, vec)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read index file: %w", err)
	}
	if err := s.cache.Add(context.Background(), docs, vectors); err != nil {
		return err
	}
	logx.Debug().Str("path", s.path).Int("chunks", len(docs)).Msg("vector index loaded from file")
	return nil
}

func (s *FileStore) Add(ctx context.Context, docs []*schema.Document, vectors [][]float64) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("docs and vectors length mismatch: %d != %d", len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for i, d := range docs {
		b, err := encodeRecord(d, vectors[i])
		if err != nil {
			return err
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		logx.Error().Err(err).Str("path", s.path).Msg("failed to append chunks to index file")
		return fmt.Errorf("write index file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close index file: %w", err)
	}
	return s.cache.Add(ctx, docs, vectors)
}

func (s *FileStore) Search(ctx context.Context, vector []float64, k int) ([]Match, error) {
	return s.cache.Search(ctx, vector, k)
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove index file: %w", err)
	}
	return s.cache.Clear(ctx)
}

func (s *FileStore) Count(ctx context.Context) (int, error) {
	return s.cache.Count(ctx)
}

var _ Store = (*FileStore)(nil)
