package embeddings

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/nextwatch/engine/pkg/vectors"
)

// MockClient implements the Client interface for testing purposes.
// It generates deterministic embeddings based on the input text hash.
type MockClient struct {
	dimensions int
}

// NewMockClient creates a new mock embedding client.
// Default dimensions is 1536 to match OpenAI's text-embedding-3-small.
func NewMockClient() *MockClient {
	return &MockClient{dimensions: 1536}
}

// NewMockClientWithDimensions creates a mock client with custom dimensions.
func NewMockClientWithDimensions(dimensions int) *MockClient {
	return &MockClient{dimensions: dimensions}
}

// CreateEmbedding generates a deterministic embedding based on the text hash.
func (c *MockClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	hash := sha256.Sum256([]byte(text))
	embedding := make([]float32, c.dimensions)

	for i := 0; i < c.dimensions; i++ {
		byteIdx := i % len(hash)
		// Convert to float in range [-1, 1]
		embedding[i] = (float32(hash[byteIdx]) / 127.5) - 1.0
	}

	vectors.NormalizeL2(embedding)

	return embedding, nil
}

// Ensure MockClient implements Client interface
var _ Client = (*MockClient)(nil)
