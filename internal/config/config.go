package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by KINETIC_ENV (or .env by default),
// then loads the corresponding .secret sidecar if it exists. All config is
// flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("KINETIC_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}

func ServerPort() int {
	return getInt("SERVER_PORT", 8080)
}

func ServerAddr() string {
	return ":" + strconv.Itoa(ServerPort())
}

// MemoryBackend selects the physical store. Valid values: postgres, sqlite.
func MemoryBackend() string {
	b := os.Getenv("MEMORY_BACKEND")
	if b == "" {
		return "sqlite"
	}
	return b
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// SQLitePath is the embedded database file. Defaults to kinetic.db in the
// working directory; ":memory:" is accepted for ephemeral runs.
func SQLitePath() string {
	p := os.Getenv("SQLITE_PATH")
	if p == "" {
		return "kinetic.db"
	}
	return p
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// EmbeddingProvider selects the similarity provider.
// Valid values: openai, mock, none. Defaults to none: retrieval degrades to
// the non-vector terms rather than requiring a key.
func EmbeddingProvider() string {
	p := os.Getenv("EMBEDDING_PROVIDER")
	if p == "" {
		return "none"
	}
	return p
}

// ExtractionProvider selects how candidate claims are phrased from episode
// text. Valid values: openai, heuristic, mock. Defaults to heuristic so the
// dream cycle works offline.
func ExtractionProvider() string {
	p := os.Getenv("EXTRACTION_PROVIDER")
	if p == "" {
		return "heuristic"
	}
	return p
}

func RateLimitRPS() float64 {
	return getFloat("RATE_LIMIT_RPS", 50)
}

func RateLimitBurst() int {
	return getInt("RATE_LIMIT_BURST", 100)
}

// ConsolidationInterval is the dream-cycle timer period.
func ConsolidationInterval() time.Duration {
	return time.Duration(getInt("CONSOLIDATION_INTERVAL_MINUTES", 360)) * time.Minute
}

// EpisodeBatchSize caps how many episodes one consolidation run processes.
// Callers needing a latency bound shrink this instead of cancelling a run.
func EpisodeBatchSize() int {
	return getInt("EPISODE_BATCH_SIZE", 200)
}

func DefaultSalience() float32 {
	return float32(getFloat("DEFAULT_SALIENCE", 1.0))
}

// Policy constants below are deliberately configurable: the contradiction
// similarity threshold and confidence gains are tuning choices, not fixed
// by the memory model.

// CorroborationGain is k in the asymptotic update new = old + (1-old)*k.
func CorroborationGain() float32 {
	return float32(getFloat("CORROBORATION_GAIN", 0.15))
}

// ContradictionPenalty is subtracted from both sides of a dispute.
func ContradictionPenalty() float32 {
	return float32(getFloat("CONTRADICTION_PENALTY", 0.15))
}

// ContradictionSimilarityThreshold is the minimum topical similarity for
// two opposite-polarity claims to be judged contradictory.
func ContradictionSimilarityThreshold() float32 {
	return float32(getFloat("CONTRADICTION_SIMILARITY_THRESHOLD", 0.5))
}

// ConfirmThreshold is the confidence a belief must exceed, with no live
// conflicts, to become confirmed.
func ConfirmThreshold() float32 {
	return float32(getFloat("CONFIRM_THRESHOLD", 0.85))
}

// SupersedeFloor is the confidence below which a conflicting belief stops
// counting as a live conflict and is retracted as superseded.
func SupersedeFloor() float32 {
	return float32(getFloat("SUPERSEDE_FLOOR", 0.2))
}

// StaleBeliefDecay is the per-run multiplier applied to proposed beliefs
// that gained no corroboration during the run.
func StaleBeliefDecay() float32 {
	return float32(getFloat("STALE_BELIEF_DECAY", 0.95))
}

// Retrieval weights. They sum to 1.0 at the defaults; when the vector term
// is unavailable the retriever renormalizes the rest, so changing one weight
// does not require rebalancing the others by hand.

func RetrievalLexicalWeight() float32 {
	return float32(getFloat("RETRIEVAL_LEXICAL_WEIGHT", 0.15))
}

func RetrievalVectorWeight() float32 {
	return float32(getFloat("RETRIEVAL_VECTOR_WEIGHT", 0.05))
}

func RetrievalRecencyWeight() float32 {
	return float32(getFloat("RETRIEVAL_RECENCY_WEIGHT", 0.35))
}

func RetrievalConfidenceWeight() float32 {
	return float32(getFloat("RETRIEVAL_CONFIDENCE_WEIGHT", 0.40))
}

func RetrievalGoalWeight() float32 {
	return float32(getFloat("RETRIEVAL_GOAL_WEIGHT", 0.05))
}

// RecencyWindowDays is the linear recency window: an entity updated now
// scores 1.0 on the recency term, one updated this many days ago scores 0.
func RecencyWindowDays() int {
	return getInt("RECENCY_WINDOW_DAYS", 30)
}

// SalienceDecayRate is the exponential decay rate per day of episode age.
func SalienceDecayRate() float64 {
	return getFloat("SALIENCE_DECAY_RATE", 0.05)
}

// PruneSalienceFloor is the decayed salience below which an uncited
// episode's payload is eligible for pruning.
func PruneSalienceFloor() float32 {
	return float32(getFloat("PRUNE_SALIENCE_FLOOR", 0.05))
}
