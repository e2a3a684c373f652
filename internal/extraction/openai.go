package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const extractionModel = openai.GPT4oMini

const extractionPrompt = `Extract distinct user preferences, facts, or beliefs from the following text.
Return ONLY a JSON array of objects with keys:
  "statement" (string), "subject" (short topic string),
  "polarity" ("positive", "negative" or "neutral"),
  "confidence" (float 0.0-1.0).
Return [] if nothing can be extracted.

Text: %s`

// OpenAIClient phrases candidate claims with a chat completion. Any failure
// (transport, refusal, unparseable output) falls back to the deterministic
// heuristic rules so consolidation never depends on the provider.
type OpenAIClient struct {
	client   *openai.Client
	fallback *HeuristicExtractor
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		client:   openai.NewClient(apiKey),
		fallback: NewHeuristicExtractor(),
	}
}

var jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

type extractedItem struct {
	Statement  string  `json:"statement"`
	Subject    string  `json:"subject"`
	Polarity   string  `json:"polarity"`
	Confidence float32 `json:"confidence"`
}

func (c *OpenAIClient) ExtractClaims(ctx context.Context, text string) ([]domain.CandidateClaim, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: extractionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(extractionPrompt, text)},
		},
		Temperature: 0,
	})
	if err != nil {
		return c.fallback.ExtractClaims(ctx, text)
	}
	if len(resp.Choices) == 0 {
		return c.fallback.ExtractClaims(ctx, text)
	}

	raw := jsonArrayRe.FindString(resp.Choices[0].Message.Content)
	if raw == "" {
		return c.fallback.ExtractClaims(ctx, text)
	}

	var items []extractedItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return c.fallback.ExtractClaims(ctx, text)
	}

	var claims []domain.CandidateClaim
	for _, it := range items {
		statement := strings.TrimSpace(it.Statement)
		if statement == "" {
			continue
		}
		subject := domain.NormalizeSubject(it.Subject)
		if subject == "" {
			subject = domain.NormalizeSubject(statement)
		}
		polarity := domain.Polarity(it.Polarity)
		switch polarity {
		case domain.PolarityPositive, domain.PolarityNegative, domain.PolarityNeutral:
		default:
			polarity = domain.PolarityNeutral
		}
		confidence := it.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = 0.7
		}
		claims = append(claims, domain.CandidateClaim{
			Statement:  statement,
			Subject:    subject,
			Polarity:   polarity,
			Confidence: confidence,
		})
	}

	if len(claims) == 0 {
		return c.fallback.ExtractClaims(ctx, text)
	}
	return claims, nil
}
