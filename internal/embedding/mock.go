package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"unicode"
)

// MockDimensions is the vector size produced by MockClient.
const MockDimensions = 64

// MockClient is a deterministic, offline embedding client. It hashes the
// lowercased words of a text into a fixed-size bag-of-words vector, so
// texts sharing words score high and identical texts score 1.0.
//
// Set EmbedError to make every call fail.
type MockClient struct {
	EmbedError error

	mu    sync.Mutex
	calls []string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Name() string {
	return "mock:bow64"
}

// Calls returns the texts embedded so far, in call order.
func (c *MockClient) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	c.calls = append(c.calls, text)
	c.mu.Unlock()

	if c.EmbedError != nil {
		return nil, c.EmbedError
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return bagOfWords(text), nil
}

func (c *MockClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := c.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func bagOfWords(text string) []float32 {
	vec := make([]float32, MockDimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%MockDimensions]++
	}

	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		// Keep the vector non-zero so it stays comparable.
		vec[0] = 1
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
