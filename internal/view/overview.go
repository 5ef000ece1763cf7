// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package view

import (
	"math"
	"slices"
	"strings"

	"github.com/pdiddy/perspective-engine/pkg/types"
)

// TopSourceTypeCount is how many source types the overview lists.
const TopSourceTypeCount = 4

// Sentiment labels reported by the overview.
const (
	SentimentMixed = "mixed"
	SentimentNone  = "N/A"
)

// TypeCount is the number of results carrying one source-type label.
type TypeCount struct {
	SourceType string `json:"source_type" yaml:"source_type"`
	Count      int    `json:"count" yaml:"count"`
}

// SentimentTally counts results per sentiment label.
type SentimentTally struct {
	Positive int `json:"positive" yaml:"positive"`
	Negative int `json:"negative" yaml:"negative"`
	Neutral  int `json:"neutral" yaml:"neutral"`
	Other    int `json:"other" yaml:"other"`
}

// FactCheckTally splits terminal verdicts.
type FactCheckTally struct {
	Verified int `json:"verified" yaml:"verified"`
	Disputed int `json:"disputed" yaml:"disputed"`
	Other    int `json:"other" yaml:"other"`
}

// Checked returns the number of results with a terminal verdict.
func (t FactCheckTally) Checked() int {
	return t.Verified + t.Disputed + t.Other
}

// OverviewStats summarizes a view.
type OverviewStats struct {
	// NoData is set for an empty view; every other field is then zero, except
	// PredominantSentiment which is "N/A".
	NoData bool `json:"no_data" yaml:"no_data"`
	Total  int  `json:"total" yaml:"total"`

	TopSourceTypes []TypeCount `json:"top_source_types" yaml:"top_source_types"`

	Sentiment            SentimentTally `json:"sentiment" yaml:"sentiment"`
	PredominantSentiment string         `json:"predominant_sentiment" yaml:"predominant_sentiment"`

	// AverageScore is the mean over results with a valid score. It is only
	// meaningful when HasAverage is set.
	AverageScore float64 `json:"average_score" yaml:"average_score"`
	HasAverage   bool    `json:"has_average" yaml:"has_average"`
	ScoredCount  int     `json:"scored_count" yaml:"scored_count"`

	FactChecks FactCheckTally `json:"fact_checks" yaml:"fact_checks"`
}

// Summarize computes overview statistics for a view.
func Summarize(results []types.SearchResult) OverviewStats {
	if len(results) == 0 {
		return OverviewStats{NoData: true, PredominantSentiment: SentimentNone}
	}

	stats := OverviewStats{Total: len(results)}
	counts := make(map[string]int)
	var seen []string
	var sum int

	for _, r := range results {
		st := r.SourceType
		if st == "" {
			st = "unknown"
		}
		if _, ok := counts[st]; !ok {
			seen = append(seen, st)
		}
		counts[st]++

		switch normalizeSentiment(r.Sentiment.Label) {
		case "positive":
			stats.Sentiment.Positive++
		case "negative":
			stats.Sentiment.Negative++
		case "neutral":
			stats.Sentiment.Neutral++
		default:
			stats.Sentiment.Other++
		}

		if r.HasScore() {
			sum += r.Score
			stats.ScoredCount++
		}

		v := r.FactCheck.Verdict
		switch {
		case !v.IsTerminal() || v == types.VerdictError:
		case v == types.VerdictVerified:
			stats.FactChecks.Verified++
		case v.IsDisputed():
			stats.FactChecks.Disputed++
		default:
			stats.FactChecks.Other++
		}
	}

	stats.TopSourceTypes = topTypes(seen, counts, TopSourceTypeCount)
	stats.PredominantSentiment = predominant(stats.Sentiment, stats.Total)
	if stats.ScoredCount > 0 {
		stats.HasAverage = true
		stats.AverageScore = math.Round(float64(sum)/float64(stats.ScoredCount)*10) / 10
	}
	return stats
}

// topTypes returns the k most frequent labels; ties keep first-seen order.
func topTypes(seen []string, counts map[string]int, k int) []TypeCount {
	out := make([]TypeCount, 0, len(seen))
	for _, st := range seen {
		out = append(out, TypeCount{SourceType: st, Count: counts[st]})
	}
	slices.SortStableFunc(out, func(a, b TypeCount) int {
		return b.Count - a.Count
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// predominant returns the label held by a strict majority, or "mixed".
func predominant(t SentimentTally, total int) string {
	switch {
	case t.Positive*2 > total:
		return "positive"
	case t.Negative*2 > total:
		return "negative"
	case t.Neutral*2 > total:
		return "neutral"
	default:
		return SentimentMixed
	}
}

func normalizeSentiment(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
