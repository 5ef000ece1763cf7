// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package view

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/perspective-engine/pkg/types"
)

func TestFormatTable(t *testing.T) {
	results := threeResults()
	results[0].Title = "A long headline about a vaccine trial that keeps going well past fifty runes"
	results[0].FactCheck.Verdict = types.VerdictVerified

	var buf bytes.Buffer
	FormatTable(results, &buf)
	out := buf.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2+len(results)+2)
	assert.Contains(t, lines[0], "Rank")
	assert.Contains(t, lines[2], "48")
	assert.Contains(t, lines[2], "verified")
	assert.Contains(t, lines[2], "mainstream")
	assert.Contains(t, lines[2], "...")
	assert.NotContains(t, out, "fifty runes")
	assert.Contains(t, out, "3 results")
}

func TestFormatTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(nil, &buf)
	assert.Equal(t, "No results found.\n", buf.String())
}

func TestScoreLabel(t *testing.T) {
	assert.Equal(t, "72", ScoreLabel(scored("a", "mainstream", "", 72)))
	assert.Equal(t, "...", ScoreLabel(types.SearchResult{ScoreStatus: types.StatusInFlight}))
	assert.Equal(t, "err", ScoreLabel(types.SearchResult{ScoreStatus: types.StatusError, Score: -1}))
}

func TestFormatDetails(t *testing.T) {
	results := threeResults()
	results[1].Title = "Checked"
	results[1].FactCheck = types.FactCheckResult{
		Verdict:     types.VerdictDisputed,
		Explanation: "No evidence.",
		Sources:     []string{"https://factcheck.example/1"},
	}
	results[2].Title = "Summarized"
	results[2].Summary = types.SummaryResult{Text: "Short.", Provenance: "snippet"}

	var buf bytes.Buffer
	FormatDetails(results, &buf)
	out := buf.String()

	assert.NotContains(t, out, "[1]")
	assert.Contains(t, out, "[2] Checked")
	assert.Contains(t, out, "fact-check (disputed): No evidence.")
	assert.Contains(t, out, "- https://factcheck.example/1")
	assert.Contains(t, out, "[3] Summarized")
	assert.Contains(t, out, "summary (snippet): Short.")
}

func TestFormatOverview(t *testing.T) {
	t.Run("no data", func(t *testing.T) {
		var buf bytes.Buffer
		FormatOverview(Summarize(nil), &buf)
		assert.Contains(t, buf.String(), "No data.")
	})
	t.Run("stats", func(t *testing.T) {
		var buf bytes.Buffer
		FormatOverview(Summarize(threeResults()), &buf)
		out := buf.String()
		assert.Contains(t, out, "Results:           3")
		assert.Contains(t, out, "Top source types:  news_media_mainstream (1)")
		assert.Contains(t, out, "0 checked")
	})
	t.Run("no average", func(t *testing.T) {
		var buf bytes.Buffer
		FormatOverview(Summarize([]types.SearchResult{{SourceType: "x"}}), &buf)
		assert.Contains(t, buf.String(), "Average score:     N/A")
	})
}

func TestFormatJSON(t *testing.T) {
	results := threeResults()
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(Report{
		Query:    "q",
		Filter:   types.PerspectiveAll,
		Results:  results,
		Overview: Summarize(results),
	}, &buf))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "q", got["query"])
	assert.Len(t, got["results"], 3)
	assert.Contains(t, got, "overview")
}
