// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package credibility

import (
	"context"

	"github.com/pdiddy/perspective-engine/internal/enrich"
)

// Local serves score requests in-process with Score.
type Local struct{}

// Score implements enrich.Scorer.
func (Local) Score(ctx context.Context, req enrich.ScoreRequest) (enrich.ScoreResponse, error) {
	if err := ctx.Err(); err != nil {
		return enrich.ScoreResponse{}, err
	}
	score, factors := Score(Inputs{
		SourceType:   req.SourceType,
		BaseTrust:    req.BaseTrust,
		RecencyBoost: req.RecencyBoost,
		Verdict:      req.Verdict,
	})
	return enrich.ScoreResponse{Score: score, Factors: factors}, nil
}
