package sentiment

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/arshadjafri/defi-risk-platform/pkg/models"
)

// Source produces a sentiment reading for one symbol. Implementations
// wrap external feeds (news APIs, social streams); failures are expected
// and handled by the aggregator's circuit breakers.
type Source interface {
	Name() string
	Fetch(ctx context.Context, symbol string) (*models.SentimentData, error)
}

// SyntheticSource is a deterministic stand-in for an external feed. The
// reading depends only on the symbol and the source name, so responses
// are stable across calls and processes.
type SyntheticSource struct {
	name   string
	volume int
}

// NewSyntheticSource creates a synthetic feed with the given name.
func NewSyntheticSource(name string, baseVolume int) *SyntheticSource {
	return &SyntheticSource{name: name, volume: baseVolume}
}

func (s *SyntheticSource) Name() string {
	return s.name
}

func (s *SyntheticSource) Fetch(_ context.Context, symbol string) (*models.SentimentData, error) {
	h := fnv.New32a()
	h.Write([]byte(s.name + ":" + symbol))
	seed := float64(h.Sum32())

	// Score in [-1, 1], confidence in [0.4, 0.9].
	score := math.Sin(seed)
	confidence := 0.4 + 0.5*math.Abs(math.Cos(seed))
	volume := s.volume + int(seed)%500

	return models.NewSentimentData(symbol, s.name, score, confidence, volume, ""), nil
}
