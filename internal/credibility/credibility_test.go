// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package credibility

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/perspective-engine/internal/enrich"
	"github.com/pdiddy/perspective-engine/pkg/types"
)

var allVerdicts = []types.Verdict{
	types.VerdictPending, types.VerdictChecking, types.VerdictVerified,
	types.VerdictFalse, types.VerdictDisputed, types.VerdictDisputedFalse,
	types.VerdictPartiallyTrue, types.VerdictLacksConsensus,
	types.VerdictUnverifiable, types.VerdictError,
}

func TestScore_MainstreamNewsPending(t *testing.T) {
	in := Inputs{
		SourceType:   "news_media_mainstream",
		BaseTrust:    70,
		RecencyBoost: 0,
		Verdict:      types.VerdictPending,
	}

	first, f1 := Score(in)
	second, f2 := Score(in)

	assert.Equal(t, first, second)
	assert.Equal(t, f1, f2)
	assert.Equal(t, 48, first)
	assert.InDelta(t, 42.0, f1.BaseTrust, 1e-9)
	assert.InDelta(t, 0.0, f1.Recency, 1e-9)
	assert.InDelta(t, 0.0, f1.FactCheck, 1e-9)
	assert.InDelta(t, 6.0, f1.TypeQuality, 1e-9)
}

func TestScore_VerdictContributions(t *testing.T) {
	tests := []struct {
		verdict types.Verdict
		want    float64
	}{
		{types.VerdictVerified, 20},
		{types.VerdictFalse, -20},
		{types.VerdictDisputed, -20},
		{types.VerdictDisputedFalse, -20},
		{types.VerdictPartiallyTrue, -4},
		{types.VerdictLacksConsensus, -8},
		{types.VerdictUnverifiable, -12},
		{types.VerdictPending, 0},
		{types.VerdictChecking, 0},
		{types.VerdictError, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.verdict), func(t *testing.T) {
			_, f := Score(Inputs{SourceType: "website_general", BaseTrust: 50, Verdict: tt.verdict})
			assert.InDelta(t, tt.want, f.FactCheck, 1e-9)
		})
	}
}

func TestScore_UnknownSourceTypeIsNeutral(t *testing.T) {
	_, f := Score(Inputs{SourceType: "something_new", BaseTrust: 50})
	assert.Zero(t, f.TypeQuality)

	_, ok := TypeQuality("something_new")
	assert.False(t, ok)
}

func TestScore_RecencyIsCapped(t *testing.T) {
	_, f := Score(Inputs{RecencyBoost: 1000})
	assert.InDelta(t, recencyMax, f.Recency, 1e-9)
}

func TestScore_Clamped(t *testing.T) {
	low, _ := Score(Inputs{SourceType: "unknown_error_parsing", BaseTrust: 0, Verdict: types.VerdictFalse})
	assert.Equal(t, 0, low)

	high, _ := Score(Inputs{SourceType: "research_publication", BaseTrust: 100, RecencyBoost: 100, Verdict: types.VerdictVerified})
	assert.Equal(t, 100, high)
}

func TestScore_PropertiesOverRandomInputs(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	labels := make([]string, 0, len(typeQuality)+1)
	for k := range typeQuality {
		labels = append(labels, k)
	}
	labels = append(labels, "unlisted")

	for i := 0; i < 2000; i++ {
		in := Inputs{
			SourceType:   labels[rng.IntN(len(labels))],
			BaseTrust:    rng.Float64()*160 - 30,
			RecencyBoost: rng.Float64()*160 - 30,
			Verdict:      allVerdicts[rng.IntN(len(allVerdicts))],
		}
		score, f := Score(in)
		require.GreaterOrEqual(t, score, 0)
		require.LessOrEqual(t, score, 100)
		require.Equal(t, score, Total(f), "factors must sum to the score for %+v", in)

		again, f2 := Score(in)
		require.Equal(t, score, again)
		require.Equal(t, f, f2)
	}
}

func TestInputsOf_MissingVerdictIsPending(t *testing.T) {
	in := InputsOf(types.SearchResult{SourceType: "government", BaseTrust: 75})
	assert.Equal(t, types.VerdictPending, in.Verdict)
}

func TestLocal_Score(t *testing.T) {
	resp, err := Local{}.Score(context.Background(), enrich.ScoreRequest{
		SourceType: "news_media_mainstream",
		BaseTrust:  70,
		Verdict:    types.VerdictVerified,
	})
	require.NoError(t, err)
	assert.Equal(t, 68, resp.Score)
}

func TestLocal_ScoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Local{}.Score(ctx, enrich.ScoreRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
