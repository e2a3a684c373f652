package extraction

import (
	"context"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
)

// MockClient is a configurable extraction client for testing.
// Set the response fields to control what ExtractClaims returns.
type MockClient struct {
	Claims []domain.CandidateClaim
	Err    error

	// Call tracking for assertions
	Calls []string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) ExtractClaims(_ context.Context, text string) ([]domain.CandidateClaim, error) {
	m.Calls = append(m.Calls, text)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Claims, nil
}
