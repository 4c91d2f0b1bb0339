package vectorstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorePersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index", "chunks.jsonl")

	writer, err := OpenFileStore(path)
	require.NoError(t, err)
	a := doc("a", "감자 칼륨", "a.pdf")
	a.MetaData["page"] = 2
	require.NoError(t, writer.Add(ctx, []*schema.Document{a}, [][]float64{{1, 0}}))
	require.NoError(t, writer.Add(ctx, []*schema.Document{doc("b", "두부 단백질", "b.pdf")}, [][]float64{{0, 1}}))

	reader, err := OpenFileStore(path)
	require.NoError(t, err)
	n, err := reader.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	matches, err := reader.Search(ctx, []float64{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].Document.ID)
	assert.Equal(t, 2, matches[0].Document.MetaData["page"])
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s, err := OpenFileStore(filepath.Join(t.TempDir(), "none.jsonl"))
	require.NoError(t, err)
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFileStoreClearRemovesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chunks.jsonl")
	s, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, []*schema.Document{doc("a", "x", "f")}, [][]float64{{1}}))

	require.NoError(t, s.Clear(ctx))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFileStoreRejectsCorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json}\n"), 0o644))

	_, err := OpenFileStore(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunks.jsonl:1")
}
