// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the perspective-engine pipeline:
// result identities, enriched search results, score factors, fact-check
// verdicts, perspective filters, and configuration.
package types

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Fetch categories tag which query variant produced a raw result.
const (
	CategoryMainstream = "mainstream"
	CategoryFringe     = "fringe"
	CategoryUnknown    = "unknown"
)

// ResultID is the stable identity of a result: its source link plus the fetch
// category it was retrieved under. It is never derived from a position in any
// collection.
type ResultID struct {
	Link     string `json:"link" yaml:"link"`
	Category string `json:"category" yaml:"category"`
}

// String renders the identity as "category|link".
func (id ResultID) String() string {
	return id.Category + "|" + id.Link
}

// Sentiment is the sentiment classification attached to a result.
type Sentiment struct {
	Label string  `json:"label" yaml:"label"`
	Score float64 `json:"score" yaml:"score"`
}

// RawResult is one item as returned by the search collaborator, before it is
// assigned an identity and ingested into the result store.
type RawResult struct {
	Link         string    `json:"link" yaml:"link"`
	Title        string    `json:"title" yaml:"title"`
	Snippet      string    `json:"snippet" yaml:"snippet"`
	Engine       string    `json:"engine" yaml:"engine"`
	SourceType   string    `json:"source_type" yaml:"source_type"`
	Sentiment    Sentiment `json:"sentiment" yaml:"sentiment"`

	// BaseTrust and RecencyBoost use 0 for "not set"; classification fills
	// them in.
	BaseTrust    float64 `json:"base_trust" yaml:"base_trust"`
	RecencyBoost float64 `json:"recency_boost" yaml:"recency_boost"`
	Category     string  `json:"category" yaml:"category"`
}

// OpStatus is the state of one enrichment operation kind for one result.
type OpStatus string

const (
	StatusIdle     OpStatus = "idle"
	StatusInFlight OpStatus = "in_flight"
	StatusApplied  OpStatus = "applied"
	StatusError    OpStatus = "error"
)

// ScoreFactors breaks a credibility score into its four contributions. The
// clamped, rounded sum of the factors equals the score.
type ScoreFactors struct {
	BaseTrust   float64 `json:"base_trust_contribution" yaml:"base_trust_contribution"`
	Recency     float64 `json:"recency_contribution" yaml:"recency_contribution"`
	FactCheck   float64 `json:"fact_check_contribution" yaml:"fact_check_contribution"`
	TypeQuality float64 `json:"type_quality_adjustment" yaml:"type_quality_adjustment"`
}

// Sum returns the unclamped total of all contributions.
func (f ScoreFactors) Sum() float64 {
	return f.BaseTrust + f.Recency + f.FactCheck + f.TypeQuality
}

// FactCheckResult is the fact-check payload of a result.
type FactCheckResult struct {
	Status      OpStatus `json:"status" yaml:"status"`
	Verdict     Verdict  `json:"verdict" yaml:"verdict"`
	Explanation string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Sources     []string `json:"sources,omitempty" yaml:"sources,omitempty"`
	Error       string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// SummaryResult is the summary payload of a result.
type SummaryResult struct {
	Status     OpStatus `json:"status" yaml:"status"`
	Text       string   `json:"text,omitempty" yaml:"text,omitempty"`
	Provenance string   `json:"provenance,omitempty" yaml:"provenance,omitempty"`
	Error      string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// SearchResult is a result held by the result store, together with every
// enrichment that has been applied to it.
type SearchResult struct {
	ID ResultID `json:"id" yaml:"id"`

	Title   string `json:"title" yaml:"title"`
	Snippet string `json:"snippet" yaml:"snippet"`
	Link    string `json:"link" yaml:"link"`

	// Engine lists the engines that returned this result, comma-separated.
	Engine string `json:"engine" yaml:"engine"`

	SourceType string    `json:"source_type" yaml:"source_type"`
	Sentiment  Sentiment `json:"sentiment" yaml:"sentiment"`

	BaseTrust    float64 `json:"base_trust" yaml:"base_trust"`
	RecencyBoost float64 `json:"recency_boost" yaml:"recency_boost"`
	Category     string  `json:"category" yaml:"category"`

	// Score is the credibility score in [0,100], or -1 when scoring failed.
	// It is only meaningful when ScoreStatus is StatusApplied or StatusError.
	Score       int          `json:"credibility_score" yaml:"credibility_score"`
	Factors     ScoreFactors `json:"factors" yaml:"factors"`
	ScoreStatus OpStatus     `json:"score_status" yaml:"score_status"`
	ScoreError  string       `json:"score_error,omitempty" yaml:"score_error,omitempty"`

	FactCheck FactCheckResult `json:"fact_check" yaml:"fact_check"`
	Summary   SummaryResult   `json:"summary" yaml:"summary"`
}

// HasScore reports whether the result carries a valid (non-pending,
// non-error) credibility score.
func (r SearchResult) HasScore() bool {
	return r.ScoreStatus == StatusApplied && r.Score >= 0
}

// Clone returns a copy that shares no slices with r.
func (r SearchResult) Clone() SearchResult {
	if r.FactCheck.Sources != nil {
		r.FactCheck.Sources = append([]string(nil), r.FactCheck.Sources...)
	}
	return r
}

// Perspective is a coarse classification used for filtering.
type Perspective string

const (
	PerspectiveAll        Perspective = "all"
	PerspectiveMainstream Perspective = "mainstream"
	PerspectiveFringe     Perspective = "fringe"
	PerspectiveNeutral    Perspective = "neutral"
	PerspectiveBalanced   Perspective = "balanced"
)

// ParsePerspective parses a perspective filter name. "alternative" is accepted
// as a synonym for fringe and the empty string means all.
func ParsePerspective(s string) (Perspective, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return PerspectiveAll, nil
	case "mainstream":
		return PerspectiveMainstream, nil
	case "fringe", "alternative":
		return PerspectiveFringe, nil
	case "neutral":
		return PerspectiveNeutral, nil
	case "balanced":
		return PerspectiveBalanced, nil
	default:
		return "", eris.Errorf("unknown perspective %q: use all, mainstream, fringe, neutral, or balanced", s)
	}
}
