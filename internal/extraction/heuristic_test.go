package extraction

import (
	"context"
	"testing"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
)

func TestHeuristicExtractsPositivePreference(t *testing.T) {
	e := NewHeuristicExtractor()

	claims, err := e.ExtractClaims(context.Background(), "User said: I love lo-fi music")
	if err != nil {
		t.Fatalf("ExtractClaims: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("expected 1 claim, got %d", len(claims))
	}

	c := claims[0]
	if c.Statement != "User likely likes lo-fi music" {
		t.Errorf("statement = %q", c.Statement)
	}
	if c.Subject != "lofi music" {
		t.Errorf("subject = %q", c.Subject)
	}
	if c.Polarity != domain.PolarityPositive {
		t.Errorf("polarity = %q", c.Polarity)
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		t.Errorf("confidence = %v, want in (0,1)", c.Confidence)
	}
}

func TestHeuristicExtractsNegativePreference(t *testing.T) {
	e := NewHeuristicExtractor()

	claims, err := e.ExtractClaims(context.Background(), "User said: I hate lo-fi music")
	if err != nil {
		t.Fatalf("ExtractClaims: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("expected 1 claim, got %d", len(claims))
	}
	if claims[0].Polarity != domain.PolarityNegative {
		t.Errorf("polarity = %q, want negative", claims[0].Polarity)
	}
	if claims[0].Subject != "lofi music" {
		t.Errorf("subject = %q", claims[0].Subject)
	}
}

func TestHeuristicOppositeClaimsShareSubject(t *testing.T) {
	e := NewHeuristicExtractor()

	pos, _ := e.ExtractClaims(context.Background(), "I like tabs")
	neg, _ := e.ExtractClaims(context.Background(), "I dislike tabs")
	if len(pos) != 1 || len(neg) != 1 {
		t.Fatalf("expected 1 claim each, got %d and %d", len(pos), len(neg))
	}
	if pos[0].Subject != neg[0].Subject {
		t.Errorf("subjects differ: %q vs %q", pos[0].Subject, neg[0].Subject)
	}
}

func TestHeuristicSkipsInterveningAdverb(t *testing.T) {
	e := NewHeuristicExtractor()

	claims, err := e.ExtractClaims(context.Background(), "I really love lo-fi music")
	if err != nil {
		t.Fatalf("ExtractClaims: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("expected 1 claim, got %d", len(claims))
	}
	if claims[0].Subject != "lofi music" {
		t.Errorf("subject = %q", claims[0].Subject)
	}
	if claims[0].Polarity != domain.PolarityPositive {
		t.Errorf("polarity = %q", claims[0].Polarity)
	}
}

func TestHeuristicTrailingNowStaysOutOfSubject(t *testing.T) {
	e := NewHeuristicExtractor()

	claims, err := e.ExtractClaims(context.Background(), "Actually I hate lo-fi music now")
	if err != nil {
		t.Fatalf("ExtractClaims: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("expected 1 claim, got %d", len(claims))
	}
	if claims[0].Subject != "lofi music" {
		t.Errorf("subject = %q, want trailing now stripped", claims[0].Subject)
	}
	if claims[0].Polarity != domain.PolarityNegative {
		t.Errorf("polarity = %q", claims[0].Polarity)
	}
}

func TestHeuristicNoMatch(t *testing.T) {
	e := NewHeuristicExtractor()

	claims, err := e.ExtractClaims(context.Background(), "ran backup job, exit 0")
	if err != nil {
		t.Fatalf("ExtractClaims: %v", err)
	}
	if len(claims) != 0 {
		t.Errorf("expected no claims, got %v", claims)
	}
}
