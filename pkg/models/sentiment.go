package models

import (
	"time"

	"github.com/google/uuid"
)

// SentimentData is an aggregated sentiment reading for one symbol.
// Score is in [-1, 1], confidence in [0, 1].
type SentimentData struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Source         string    `json:"source"`
	SentimentScore float64   `json:"sentiment_score"`
	Confidence     float64   `json:"confidence"`
	Volume         int       `json:"volume"`
	TextSample     string    `json:"text_sample"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewSentimentData creates a sentiment record for a symbol/source pair.
func NewSentimentData(symbol, source string, score, confidence float64, volume int, sample string) *SentimentData {
	return &SentimentData{
		ID:             uuid.NewString(),
		Symbol:         symbol,
		Source:         source,
		SentimentScore: score,
		Confidence:     confidence,
		Volume:         volume,
		TextSample:     sample,
		Timestamp:      time.Now().UTC(),
	}
}
