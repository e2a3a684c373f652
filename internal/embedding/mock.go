package embedding

import (
	"context"
	"hash/fnv"
)

const mockDimensions = 16

// MockClient produces deterministic pseudo-embeddings from a text hash.
// Identical texts get identical vectors, so similarity comparisons behave
// predictably in tests without a network call.
type MockClient struct {
	// Call tracking for assertions
	Calls []string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Embed(_ context.Context, text string) ([]float32, error) {
	m.Calls = append(m.Calls, text)

	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, mockDimensions)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed>>33))/float32(1<<31) - 0.5
	}
	return vec, nil
}
