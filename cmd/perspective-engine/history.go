// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/perspective-engine/internal/archive"
	"github.com/pdiddy/perspective-engine/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, reopen, search and export archived searches",
	Long: `History manages the local SQLite archive of completed searches. Every
search run is stored with its ranked results, scores, verdicts and summaries.
Run IDs may be abbreviated to any unique prefix.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent searches, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withArchive(func(a *archive.Archive) error {
			recs, err := a.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				return writeJSON(os.Stdout, recs)
			}
			formatRecords(os.Stdout, recs)
			return nil
		})
	},
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the results of an archived search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(func(a *archive.Archive) error {
			rec, entries, err := a.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				return writeJSON(os.Stdout, archive.Export{Search: rec, Results: entries})
			}
			formatRecords(os.Stdout, []archive.Record{rec})
			fmt.Println()
			formatEntries(os.Stdout, entries, false)
			return nil
		})
	},
}

// --- find subcommand ---

var historyFindCmd = &cobra.Command{
	Use:   "find <text>",
	Short: "Find archived results whose title or snippet contains text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withArchive(func(a *archive.Archive) error {
			entries, err := a.Find(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				return writeJSON(os.Stdout, entries)
			}
			formatEntries(os.Stdout, entries, true)
			return nil
		})
	},
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export an archived search to YAML or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		var w io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		return withArchive(func(a *archive.Archive) error {
			switch format {
			case "yaml", "":
				return a.ExportYAML(cmd.Context(), args[0], w)
			case "json":
				return a.ExportJSON(cmd.Context(), args[0], w)
			default:
				return fmt.Errorf("unsupported format %q: use yaml or json", format)
			}
		})
	},
}

// --- delete subcommand ---

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete an archived search and its results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(func(a *archive.Archive) error {
			if err := a.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted run %s\n", args[0])
			return nil
		})
	},
}

// --- shared helpers ---

func withArchive(fn func(*archive.Archive) error) error {
	a, err := archive.Open(cfg.Archive)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatRecords(w io.Writer, recs []archive.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No searches archived.")
		return
	}

	fmt.Fprintf(w, "%-8s  %-16s  %-10s  %-7s  %-5s  %s\n",
		"Run", "Date", "Filter", "Results", "Avg", "Query")
	fmt.Fprintln(w, strings.Repeat("-", 90))

	for _, r := range recs {
		avg := "N/A"
		if r.HasAverage {
			avg = fmt.Sprintf("%.1f", r.AverageScore)
		}
		fmt.Fprintf(w, "%-8s  %-16s  %-10s  %-7d  %-5s  %s\n",
			shortID(r.RunID), r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Filter,
			r.ResultCount, avg, r.Query)
	}
}

func formatEntries(w io.Writer, entries []archive.Entry, withRun bool) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-8s  %-4s  %-5s  %-14s  %-50s  %s\n",
		"Run", "Rank", "Score", "Fact-check", "Title", "Link")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, e := range entries {
		run := ""
		if withRun {
			run = shortID(e.RunID)
		}
		score := fmt.Sprintf("%d", e.Score)
		if e.Score < 0 || e.ScoreStatus != types.StatusApplied {
			score = "-"
		}
		title := e.Title
		if r := []rune(title); len(r) > 50 {
			title = string(r[:47]) + "..."
		}
		fmt.Fprintf(w, "%-8s  %-4d  %-5s  %-14s  %-50s  %s\n",
			run, e.Position+1, score, e.Verdict, title, e.Link)
	}

	fmt.Fprintf(w, "\n%d results\n", len(entries))
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of searches")
	historyListCmd.Flags().Bool("json", false, "output as JSON")

	historyShowCmd.Flags().Bool("json", false, "output as JSON")

	historyFindCmd.Flags().Int("limit", 20, "maximum number of results")
	historyFindCmd.Flags().Bool("json", false, "output as JSON")

	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyFindCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	rootCmd.AddCommand(historyCmd)
}
