package extraction

import (
	"fmt"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
)

// Provider constants
const (
	ProviderOpenAI    = "openai"
	ProviderHeuristic = "heuristic"
	ProviderMock      = "mock"
)

// NewClient creates an extraction client based on the provider name.
// Returns an error if the provider is unknown or the API key is empty
// (except for heuristic and mock).
func NewClient(provider, apiKey string) (domain.ExtractionClient, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI extraction provider")
		}
		return NewOpenAIClient(apiKey), nil

	case ProviderHeuristic:
		return NewHeuristicExtractor(), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown extraction provider: %s (valid options: openai, heuristic, mock)", provider)
	}
}
