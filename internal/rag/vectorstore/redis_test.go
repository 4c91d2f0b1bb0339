package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/renal-diet-poc/server/internal/core/error"
)

// fakeList is an in-memory stand-in for a Redis list.
type fakeList struct {
	lists      map[string][]string
	lrangeHits int
	err        error
}

func newFakeList() *fakeList {
	return &fakeList{lists: map[string][]string{}}
}

func (f *fakeList) RPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	for _, v := range values {
		switch vv := v.(type) {
		case []byte:
			f.lists[key] = append(f.lists[key], string(vv))
		case string:
			f.lists[key] = append(f.lists[key], vv)
		}
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeList) LRange(_ context.Context, key string, _, _ int64) *redis.StringSliceCmd {
	f.lrangeHits++
	if f.err != nil {
		return redis.NewStringSliceResult(nil, f.err)
	}
	return redis.NewStringSliceResult(append([]string(nil), f.lists[key]...), nil)
}

func (f *fakeList) LLen(_ context.Context, key string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeList) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.lists, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisStorePersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	list := newFakeList()

	writer := NewRedisStore(list, "ckd:chunks")
	require.NoError(t, writer.Add(ctx,
		[]*schema.Document{doc("a", "감자 칼륨", "a.pdf"), doc("b", "두부 단백질", "b.pdf")},
		[][]float64{{1, 0}, {0, 1}},
	))

	// a fresh store sees the same data through Redis
	reader := NewRedisStore(list, "ckd:chunks")
	n, err := reader.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	matches, err := reader.Search(ctx, []float64{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b", matches[0].Document.ID)
	assert.Equal(t, "두부 단백질", matches[0].Document.Content)
	assert.Equal(t, "b.pdf", matches[0].Document.MetaData["source_file"])

	_, err = reader.Search(ctx, []float64{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, list.lrangeHits, "writer and reader each load once")
}

func TestRedisStoreKeepsIntegerMetadata(t *testing.T) {
	ctx := context.Background()
	list := newFakeList()
	d := doc("a", "감자 칼륨", "guide.pdf")
	d.MetaData["page"] = 7
	d.MetaData["chunk_index"] = 0
	require.NoError(t, NewRedisStore(list, "k").Add(ctx, []*schema.Document{d}, [][]float64{{1, 0}}))

	matches, err := NewRedisStore(list, "k").Search(ctx, []float64{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 7, matches[0].Document.MetaData["page"])
	assert.Equal(t, 0, matches[0].Document.MetaData["chunk_index"])
}

func TestRedisStoreClear(t *testing.T) {
	ctx := context.Background()
	list := newFakeList()
	s := NewRedisStore(list, "k")
	require.NoError(t, s.Add(ctx, []*schema.Document{doc("a", "x", "f")}, [][]float64{{1}}))

	require.NoError(t, s.Clear(ctx))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	matches, err := s.Search(ctx, []float64{1}, 4)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRedisStoreWrapsErrors(t *testing.T) {
	list := newFakeList()
	list.err = errors.New("connection refused")
	s := NewRedisStore(list, "k")

	_, err := s.Search(context.Background(), []float64{1}, 1)

	var appErr *errx.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errx.RedisErrorMessage, appErr.Message)
}
