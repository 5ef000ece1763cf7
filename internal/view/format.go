// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package view

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/perspective-engine/pkg/types"
)

// Report is the machine-readable form of a view.
type Report struct {
	Query      string               `json:"query" yaml:"query"`
	Filter     types.Perspective    `json:"filter" yaml:"filter"`
	Generation uint64               `json:"generation" yaml:"generation"`
	Results    []types.SearchResult `json:"results" yaml:"results"`
	Overview   OverviewStats        `json:"overview" yaml:"overview"`
}

// FormatTable writes ranked results as a human-readable table to w.
func FormatTable(results []types.SearchResult, w io.Writer) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-5s  %-14s  %-10s  %-24s  %-50s  %s\n",
		"Rank", "Score", "Fact-check", "View", "Source type", "Title", "Link")
	fmt.Fprintln(w, strings.Repeat("-", 130))

	for i, r := range results {
		fmt.Fprintf(w, "%-4d  %-5s  %-14s  %-10s  %-24s  %-50s  %s\n",
			i+1, ScoreLabel(r), clip(string(r.FactCheck.Verdict), 14), PerspectiveOf(r),
			clip(r.SourceType, 24), clip(r.Title, 50), r.Link)
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
}

// FormatDetails writes the fact-check and summary text of every result that
// has one.
func FormatDetails(results []types.SearchResult, w io.Writer) {
	for i, r := range results {
		fc := r.FactCheck
		if fc.Explanation == "" && fc.Error == "" && r.Summary.Text == "" && r.Summary.Error == "" && r.ScoreError == "" {
			continue
		}
		fmt.Fprintf(w, "\n[%d] %s\n", i+1, r.Title)
		if fc.Explanation != "" {
			fmt.Fprintf(w, "    fact-check (%s): %s\n", fc.Verdict, fc.Explanation)
		}
		for _, src := range fc.Sources {
			fmt.Fprintf(w, "      - %s\n", src)
		}
		if fc.Error != "" {
			fmt.Fprintf(w, "    fact-check error: %s\n", fc.Error)
		}
		if r.Summary.Text != "" {
			fmt.Fprintf(w, "    summary (%s): %s\n", r.Summary.Provenance, r.Summary.Text)
		}
		if r.Summary.Error != "" {
			fmt.Fprintf(w, "    summary error: %s\n", r.Summary.Error)
		}
		if r.ScoreError != "" {
			fmt.Fprintf(w, "    score error: %s\n", r.ScoreError)
		}
	}
}

// FormatOverview writes overview statistics to w.
func FormatOverview(stats OverviewStats, w io.Writer) {
	fmt.Fprintln(w, "Overview")
	if stats.NoData {
		fmt.Fprintln(w, "  No data.")
		return
	}

	avg := SentimentNone
	if stats.HasAverage {
		avg = fmt.Sprintf("%.1f (%d scored)", stats.AverageScore, stats.ScoredCount)
	}
	fmt.Fprintf(w, "  Results:           %d\n", stats.Total)
	fmt.Fprintf(w, "  Average score:     %s\n", avg)

	labels := make([]string, len(stats.TopSourceTypes))
	for i, tc := range stats.TopSourceTypes {
		labels[i] = fmt.Sprintf("%s (%d)", tc.SourceType, tc.Count)
	}
	fmt.Fprintf(w, "  Top source types:  %s\n", strings.Join(labels, ", "))

	s := stats.Sentiment
	fmt.Fprintf(w, "  Sentiment:         %s (positive %d, negative %d, neutral %d, other %d)\n",
		stats.PredominantSentiment, s.Positive, s.Negative, s.Neutral, s.Other)

	fc := stats.FactChecks
	fmt.Fprintf(w, "  Fact-checks:       %d checked (verified %d, disputed %d, other %d)\n",
		fc.Checked(), fc.Verified, fc.Disputed, fc.Other)
}

// FormatJSON writes a report as indented JSON to w.
func FormatJSON(report Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// ScoreLabel renders a result's score column: the score, "..." while it is
// pending and "err" when scoring failed.
func ScoreLabel(r types.SearchResult) string {
	switch {
	case r.HasScore():
		return fmt.Sprintf("%d", r.Score)
	case r.ScoreStatus == types.StatusError:
		return "err"
	default:
		return "..."
	}
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
