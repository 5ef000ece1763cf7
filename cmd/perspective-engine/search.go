// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/perspective-engine/internal/archive"
	"github.com/pdiddy/perspective-engine/internal/enrich"
	"github.com/pdiddy/perspective-engine/internal/pipeline"
	"github.com/pdiddy/perspective-engine/internal/search"
	"github.com/pdiddy/perspective-engine/internal/view"
	"github.com/pdiddy/perspective-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the web and rank results by credibility",
	Long: `Search sends a mainstream and a fringe variant of the query to each engine,
merges the results by link, classifies and scores every result, and prints
them ranked by credibility under the chosen perspective filter.

--fact-check and --summarize run the AI collaborators over every result
after scoring. Without an Anthropic key those operations end in an error
status per result; the search itself still succeeds.

Use --save to write the raw results to a YAML query file and --load to
replay one without querying the engines again.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "search query (or pass it as arguments)")
	searchCmd.Flags().StringSlice("engines", nil, "engines to query: google, bing, duckduckgo (default from config)")
	searchCmd.Flags().String("filter", "", "perspective filter: all, mainstream, fringe, neutral, balanced (default from config)")
	searchCmd.Flags().Bool("fact-check", false, "fact-check every result")
	searchCmd.Flags().Bool("summarize", false, "summarize every result")
	searchCmd.Flags().Duration("wait", 5*time.Minute, "how long to wait for enrichment before printing partial results")
	searchCmd.Flags().Bool("json", false, "output results and overview as JSON")
	searchCmd.Flags().Bool("details", false, "print fact-check explanations and summaries below the table")
	searchCmd.Flags().String("save", "", "write the raw results to this YAML query file")
	searchCmd.Flags().String("load", "", "replay a saved YAML query file instead of searching")
	searchCmd.Flags().Bool("no-archive", false, "do not record this search in the history")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	req, err := searchRequest(cmd, args)
	if err != nil {
		return err
	}
	loadPath, _ := cmd.Flags().GetString("load")
	if req.Query == "" && loadPath == "" {
		return fmt.Errorf("provide a query (argument or --query) or a saved query file (--load)")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sess, err := pipeline.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	var run pipeline.Run
	if loadPath != "" {
		qf, err := search.ReadQueryFile(loadPath)
		if err != nil {
			return err
		}
		replay := qf.Request
		if cmd.Flags().Changed("filter") {
			replay.Filter = req.Filter
		}
		run = sess.Ingest(ctx, replay, qf.Output())
	} else {
		run, err = sess.Search(ctx, req)
		if err != nil {
			return err
		}
	}

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		if err := search.WriteQueryFile(savePath, run.Request, run.Output); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved query file %s\n", savePath)
	}

	if ok, _ := cmd.Flags().GetBool("fact-check"); ok {
		sess.RequestAll(enrich.KindFactCheck)
	}
	if ok, _ := cmd.Flags().GetBool("summarize"); ok {
		sess.RequestAll(enrich.KindSummarize)
	}

	wait, _ := cmd.Flags().GetDuration("wait")
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := sess.WaitContext(waitCtx); err != nil {
		logger.Warn("enrichment still running, printing partial results", zap.Error(err))
	}

	results := sess.View()
	stats := sess.Overview()

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if err := view.FormatJSON(view.Report{
			Query:      run.Request.Query,
			Filter:     sess.Filter(),
			Generation: run.Generation,
			Results:    results,
			Overview:   stats,
		}, os.Stdout); err != nil {
			return eris.Wrap(err, "writing JSON")
		}
	} else {
		printView(os.Stdout, run, sess.Filter(), results, stats, cmd)
	}

	noArchive, _ := cmd.Flags().GetBool("no-archive")
	if noArchive || cfg.Archive.Disabled {
		return nil
	}
	return archiveRun(run, sess.Filter(), results)
}

func searchRequest(cmd *cobra.Command, args []string) (search.Request, error) {
	query, _ := cmd.Flags().GetString("query")
	if query == "" && len(args) > 0 {
		query = strings.Join(args, " ")
	}

	engines, _ := cmd.Flags().GetStringSlice("engines")
	if len(engines) == 0 {
		engines = cfg.Search.Engines
	}

	filterName, _ := cmd.Flags().GetString("filter")
	if filterName == "" {
		filterName = cfg.View.DefaultFilter
	}
	filter, err := types.ParsePerspective(filterName)
	if err != nil {
		return search.Request{}, err
	}

	return search.Request{
		Query:   strings.TrimSpace(query),
		Engines: engines,
		Filter:  filter,
	}, nil
}

func printView(w io.Writer, run pipeline.Run, filter types.Perspective, results []types.SearchResult, stats view.OverviewStats, cmd *cobra.Command) {
	fmt.Fprintf(w, "Query: %s  (filter: %s, %d fetched", run.Request.Query, filter, len(run.Output.Results))
	if run.Output.DupsRemoved > 0 {
		fmt.Fprintf(w, ", %d duplicates removed", run.Output.DupsRemoved)
	}
	fmt.Fprintln(w, ")")
	for _, msg := range run.Output.BackendErrors {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
	fmt.Fprintln(w)

	view.FormatTable(results, w)
	if details, _ := cmd.Flags().GetBool("details"); details {
		view.FormatDetails(results, w)
	}
	fmt.Fprintln(w)
	view.FormatOverview(stats, w)
}

// archiveRun records the displayed view. It runs after an interrupt too, so
// it does not share the signal context.
func archiveRun(run pipeline.Run, filter types.Perspective, results []types.SearchResult) error {
	a, err := archive.Open(cfg.Archive)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.Save(context.Background(), archive.Search{
		Query:      run.Request.Query,
		Engines:    run.Request.Engines,
		Filter:     filter,
		Generation: run.Generation,
		CreatedAt:  run.StartedAt,
	}, results)
	if err != nil {
		return err
	}
	logger.Info("search archived", zap.String("run_id", rec.RunID), zap.Int("results", rec.ResultCount))
	fmt.Fprintf(os.Stderr, "Archived as run %s\n", shortID(rec.RunID))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
