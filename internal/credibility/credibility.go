// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package credibility computes the composite credibility score of a result
// from its base trust, recency boost, fact-check verdict and source type.
package credibility

import (
	"math"

	"github.com/pdiddy/perspective-engine/pkg/types"
)

// ErrorScore is the score reported when scoring could not be performed.
const ErrorScore = -1

// Maximum contribution of each component.
const (
	baseTrustMax   = 60.0
	recencyMax     = 15.0
	factCheckMax   = 20.0
	typeQualityMax = 10.0
)

// Inputs holds everything the score depends on.
type Inputs struct {
	SourceType   string
	BaseTrust    float64
	RecencyBoost float64
	Verdict      types.Verdict
}

// InputsOf extracts the scoring inputs of a result. A missing verdict is
// treated as pending.
func InputsOf(r types.SearchResult) Inputs {
	v := r.FactCheck.Verdict
	if v == "" {
		v = types.VerdictPending
	}
	return Inputs{
		SourceType:   r.SourceType,
		BaseTrust:    r.BaseTrust,
		RecencyBoost: r.RecencyBoost,
		Verdict:      v,
	}
}

// verdictWeights maps a verdict onto a fraction of factCheckMax. Verdicts not
// listed (pending, checking, error) contribute nothing.
var verdictWeights = map[types.Verdict]float64{
	types.VerdictVerified:       1.0,
	types.VerdictFalse:          -1.0,
	types.VerdictDisputed:       -1.0,
	types.VerdictDisputedFalse:  -1.0,
	types.VerdictPartiallyTrue:  -0.2,
	types.VerdictLacksConsensus: -0.4,
	types.VerdictUnverifiable:   -0.6,
}

// typeQuality maps a source-type label onto a quality value in [-1, 1].
// Labels not listed are neutral (0).
var typeQuality = map[string]float64{
	"government":                        0.8,
	"academic_institution":              0.9,
	"research_publication":              0.9,
	"encyclopedia":                      0.7,
	"news_media_mainstream":             0.6,
	"news_opinion_blog_live":            0.3,
	"ngo_nonprofit_publication":         0.5,
	"ngo_nonprofit_organization":        0.4,
	"ngo_nonprofit_general":             0.2,
	"corporate_blog_pr_info":            0.1,
	"news_media_other_or_blog":          -0.3,
	"social_media_platform":             -0.8,
	"social_media_platform_video":       -0.7,
	"social_media_channel_creator":      -0.5,
	"social_blogging_platform_user_pub": -0.4,
	"social_blogging_platform":          -0.6,
	"website_general":                   0.0,
	"unknown_url":                       -0.9,
	"unknown_other":                     -0.9,
	"unknown_error_parsing":             -1.0,
	"mainstream":                        0.6,
	"alternative":                       -0.4,
}

// Score computes the credibility score and its factor breakdown. It is pure:
// identical inputs always yield identical output. The score is the sum of the
// factors clamped to [0,100] and rounded to the nearest integer.
func Score(in Inputs) (int, types.ScoreFactors) {
	f := types.ScoreFactors{
		BaseTrust:   clamp(in.BaseTrust, 0, 100) / 100 * baseTrustMax,
		Recency:     clamp(in.RecencyBoost, 0, 100) / 100 * recencyMax,
		FactCheck:   verdictWeights[in.Verdict] * factCheckMax,
		TypeQuality: typeQuality[in.SourceType] * typeQualityMax,
	}
	return Total(f), f
}

// Total returns the score that corresponds to a factor breakdown.
func Total(f types.ScoreFactors) int {
	return int(math.Round(clamp(f.Sum(), 0, 100)))
}

// TypeQuality returns the quality value of a source-type label and whether the
// label is known.
func TypeQuality(sourceType string) (float64, bool) {
	q, ok := typeQuality[sourceType]
	return q, ok
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
