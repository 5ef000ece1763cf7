// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"

	"github.com/pdiddy/perspective-engine/pkg/types"
)

// Kind names an enrichment operation.
type Kind string

const (
	KindScore     Kind = "score"
	KindFactCheck Kind = "fact_check"
	KindSummarize Kind = "summarize"
)

// Kinds lists every enrichment kind.
var Kinds = []Kind{KindScore, KindFactCheck, KindSummarize}

// ParseKind parses an operation name as used on the command line.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "score":
		return KindScore, true
	case "fact-check", "factcheck", "fact_check":
		return KindFactCheck, true
	case "summarize", "summary":
		return KindSummarize, true
	default:
		return "", false
	}
}

// ScoreRequest carries the scoring inputs of one result.
type ScoreRequest struct {
	SourceType   string        `json:"source_type"`
	BaseTrust    float64       `json:"base_trust"`
	RecencyBoost float64       `json:"recency_boost"`
	Verdict      types.Verdict `json:"fact_check_verdict"`
}

// ScoreResponse is the scorer's answer. Score is -1 when the scorer could
// not produce one.
type ScoreResponse struct {
	Score   int                `json:"credibility_score"`
	Factors types.ScoreFactors `json:"factors"`
}

// FactCheckRequest asks for a verdict on the claim made at URL.
type FactCheckRequest struct {
	URL   string `json:"url"`
	Claim string `json:"claim"`
}

// FactCheckResponse is the fact-checker's answer.
type FactCheckResponse struct {
	Verdict     types.Verdict `json:"verdict"`
	Explanation string        `json:"explanation"`
	Sources     []string      `json:"sources"`
}

// SummarizeRequest asks for a summary of the page at URL. FallbackText is
// summarized when the page cannot be read.
type SummarizeRequest struct {
	URL          string `json:"url"`
	FallbackText string `json:"fallback_text"`
}

// SummarizeResponse is the summarizer's answer. Provenance records what the
// summary was produced from.
type SummarizeResponse struct {
	Text       string `json:"summary"`
	Provenance string `json:"provenance"`
}

// Scorer computes credibility scores. It may be local or remote.
type Scorer interface {
	Score(ctx context.Context, req ScoreRequest) (ScoreResponse, error)
}

// FactChecker produces fact-check verdicts.
type FactChecker interface {
	FactCheck(ctx context.Context, req FactCheckRequest) (FactCheckResponse, error)
}

// Summarizer produces summaries.
type Summarizer interface {
	Summarize(ctx context.Context, req SummarizeRequest) (SummarizeResponse, error)
}

// Collaborators groups the external services used by the orchestrator. A nil
// collaborator makes every operation of its kind fail with an error status.
type Collaborators struct {
	Scorer      Scorer
	FactChecker FactChecker
	Summarizer  Summarizer
}
