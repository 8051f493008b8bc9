package similarity

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bierlingm/worldview-extractor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient returns fixed vectors per text and counts calls.
type fakeClient struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	err        error
	embedCalls int
	texts      []string
}

func newFakeClient(vectors map[string][]float32) *fakeClient {
	return &fakeClient{vectors: vectors}
}

func (f *fakeClient) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedCalls++
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

type fakeBatchClient struct {
	*fakeClient
	batchCalls int
	dropLast   bool
}

func (f *fakeBatchClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.batchCalls++
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		f.mu.Lock()
		v, ok := f.vectors[t]
		f.mu.Unlock()
		if !ok {
			v = []float32{0, 0, 1}
		}
		out = append(out, v)
	}
	if f.dropLast {
		out = out[:len(out)-1]
	}
	return out, nil
}

func TestCosineSimilarity(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5}
	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)

	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0, 0}, []float32{0, 1, 0}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0, 0}, []float32{-1, 0, 0}), 1e-9)

	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0, 0}, v))
	assert.Equal(t, 0.0, CosineSimilarity(v, []float32{0, 0, 0}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{}, []float32{}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
}

func TestRankBySimilarityOrdersDescendingWithIndexTiebreak(t *testing.T) {
	client := newFakeClient(map[string][]float32{
		"query": {1, 0},
		"far":   {0, 1},
		"near":  {1, 0.1},
		"same1": {1, 0},
		"same2": {2, 0},
	})
	svc := NewServiceWithClient(client, nil)

	ranked, err := svc.RankBySimilarity(context.Background(), "query", []string{"far", "same2", "near", "same1"})
	require.NoError(t, err)
	require.Len(t, ranked, 4)

	// same2 and same1 both score 1.0; lower index wins the tie.
	assert.Equal(t, 1, ranked[0].Index)
	assert.Equal(t, 3, ranked[1].Index)
	assert.Equal(t, 2, ranked[2].Index)
	assert.Equal(t, 0, ranked[3].Index)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestRankBySimilarityEmptyCandidatesSkipsModel(t *testing.T) {
	var loads atomic.Int32
	svc := NewService(func(context.Context) (domain.EmbeddingClient, error) {
		loads.Add(1)
		return newFakeClient(nil), nil
	}, nil)

	ranked, err := svc.RankBySimilarity(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Empty(t, ranked)
	assert.Equal(t, int32(0), loads.Load())
	assert.False(t, svc.Loaded())
}

func TestEmbedRejectsNonFiniteOutput(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	client := newFakeClient(map[string][]float32{
		"nan":   {1, nan},
		"inf":   {inf, 0},
		"empty": {},
	})
	svc := NewServiceWithClient(client, nil)
	ctx := context.Background()

	for _, text := range []string{"nan", "inf", "empty"} {
		_, err := svc.Embed(ctx, text)
		assert.ErrorIs(t, err, ErrInvalidEmbedding, text)
	}

	_, err := svc.RankBySimilarity(ctx, "ok", []string{"fine", "nan"})
	assert.ErrorIs(t, err, ErrInvalidEmbedding)
}

func TestRankRejectsDimensionMismatch(t *testing.T) {
	client := newFakeClient(map[string][]float32{
		"query": {1, 0},
		"a":     {1, 0},
	})
	svc := NewServiceWithClient(client, nil)

	// "b" falls back to the 3-dim default vector.
	_, err := svc.RankBySimilarity(context.Background(), "query", []string{"a", "b"})
	assert.ErrorIs(t, err, ErrInvalidEmbedding)
}

func TestLoaderFailureIsNotCached(t *testing.T) {
	var calls atomic.Int32
	svc := NewService(func(context.Context) (domain.EmbeddingClient, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("model download failed")
		}
		return newFakeClient(nil), nil
	}, nil)
	ctx := context.Background()

	_, err := svc.Embed(ctx, "x")
	require.ErrorIs(t, err, ErrModelUnavailable)
	assert.False(t, svc.Loaded())

	_, err = svc.Embed(ctx, "x")
	require.NoError(t, err)
	assert.True(t, svc.Loaded())
	assert.Equal(t, int32(2), calls.Load())
}

func TestNilLoaderIsUnavailable(t *testing.T) {
	svc := NewService(nil, nil)
	_, err := svc.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestConcurrentFirstUseLoadsOnce(t *testing.T) {
	var loads atomic.Int32
	svc := NewService(func(context.Context) (domain.EmbeddingClient, error) {
		loads.Add(1)
		time.Sleep(20 * time.Millisecond)
		return newFakeClient(nil), nil
	}, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Embed(context.Background(), "text"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, int32(1), loads.Load())
}

func TestEmbedBatchPrefersNativeBatch(t *testing.T) {
	client := &fakeBatchClient{fakeClient: newFakeClient(nil)}
	svc := NewServiceWithClient(client, nil)

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Equal(t, 1, client.batchCalls)
	assert.Equal(t, 0, client.embedCalls)
}

func TestEmbedBatchRejectsShortBatch(t *testing.T) {
	client := &fakeBatchClient{fakeClient: newFakeClient(nil), dropLast: true}
	svc := NewServiceWithClient(client, nil)

	_, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrInvalidEmbedding)
}

func TestEmbedBatchFallsBackToSingleEmbeds(t *testing.T) {
	client := newFakeClient(nil)
	svc := NewServiceWithClient(client, nil)

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, []string{"a", "b"}, client.texts)
}

func TestThemeCacheEmbedsEachTextOnce(t *testing.T) {
	client := newFakeClient(map[string][]float32{
		"Free Markets": {1, 0},
		"Tariffs":      {0, 1},
		"Trade":        {0.9, 0.1},
	})
	svc := NewServiceWithClient(client, nil)
	ctx := context.Background()

	cache, err := svc.NewThemeCache(ctx, []string{"Free Markets", "Tariffs", "Free Markets"})
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())
	assert.Equal(t, 2, client.embedCalls)

	for i := 0; i < 3; i++ {
		ranked, err := cache.RankBySimilarity(ctx, "Free Markets", []string{"Tariffs", "Free Markets"})
		require.NoError(t, err)
		assert.Equal(t, 1, ranked[0].Index)
	}
	assert.Equal(t, 2, client.embedCalls)

	// A miss is embedded once and then served from the cache.
	_, err = cache.RankBySimilarity(ctx, "Trade", []string{"Tariffs"})
	require.NoError(t, err)
	_, err = cache.RankBySimilarity(ctx, "Trade", []string{"Free Markets"})
	require.NoError(t, err)
	assert.Equal(t, 3, client.embedCalls)
	assert.Equal(t, 3, cache.Len())
}

func TestThemeCacheWarmFailureLeavesUsableCache(t *testing.T) {
	client := newFakeClient(nil)
	client.err = errors.New("inference failed")
	svc := NewServiceWithClient(client, nil)
	ctx := context.Background()

	cache, err := svc.NewThemeCache(ctx, []string{"a", "b"})
	require.Error(t, err)
	require.NotNil(t, cache)
	assert.Equal(t, 0, cache.Len())

	_, err = cache.RankBySimilarity(ctx, "a", []string{"b"})
	assert.Error(t, err)

	ranked, err := cache.RankBySimilarity(ctx, "a", nil)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}
