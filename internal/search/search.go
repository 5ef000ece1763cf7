// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries web search engines through pluggable backends and
// returns unified raw results tagged with the fetch category (mainstream or
// fringe query variant) that produced them. Duplicates are merged per link
// within a category.
package search

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/perspective-engine/internal/identity"
	"github.com/pdiddy/perspective-engine/pkg/types"
)

// DefaultEngines are queried when a request names none.
var DefaultEngines = []string{"google", "bing", "duckduckgo"}

// fringeClause steers a query toward forums, blogs and contrarian takes.
const fringeClause = `(forum OR discussion OR "alternative take" OR "uncensored views" OR ` +
	`"independent report" OR blog OR "citizen journalist" OR "controversial study" OR ` +
	`"what they don't want you to know" OR "hidden truth" OR "unconventional analysis")`

// fringeExclusions keeps institutional and major-outlet sites out of the
// fringe variant.
var fringeExclusions = []string{
	"wikipedia.org", "britannica.com", "*.gov", "*.mil", "who.int", "nih.gov",
	"cdc.gov", "*.edu", "*.un.org", "apnews.com", "reuters.com", "bbc.com",
	"cnn.com", "nytimes.com", "washingtonpost.com", "theguardian.com",
	"wsj.com", "npr.org",
}

// Request is a user search.
type Request struct {
	Query   string            `json:"query" yaml:"query"`
	Engines []string          `json:"engines" yaml:"engines"`
	Filter  types.Perspective `json:"filter" yaml:"filter"`
}

// Fetch is one query variant sent to one backend.
type Fetch struct {
	Query    string
	Category string
	Limit    int
}

// Backend searches a single engine.
type Backend interface {
	Name() string
	Search(ctx context.Context, f Fetch) ([]types.RawResult, error)
}

// Output holds the merged results and fetch statistics.
type Output struct {
	Results       []types.RawResult `json:"results" yaml:"results"`
	DupsRemoved   int               `json:"duplicates_removed" yaml:"duplicates_removed"`
	BackendErrors []string          `json:"backend_errors,omitempty" yaml:"backend_errors,omitempty"`
}

// Variants returns the fetches a request needs. A mainstream or fringe filter
// runs only that variant; any other filter runs both, mainstream first.
func Variants(query string, filter types.Perspective, limit int) []Fetch {
	mainstream := Fetch{Query: query, Category: types.CategoryMainstream, Limit: limit}
	fringe := Fetch{Query: FringeQuery(query), Category: types.CategoryFringe, Limit: limit}
	switch filter {
	case types.PerspectiveMainstream:
		return []Fetch{mainstream}
	case types.PerspectiveFringe:
		return []Fetch{fringe}
	default:
		return []Fetch{mainstream, fringe}
	}
}

// FringeQuery appends the alternative-perspective clause and site exclusions.
func FringeQuery(query string) string {
	var b strings.Builder
	b.WriteString(query)
	b.WriteString(" ")
	b.WriteString(fringeClause)
	for _, site := range fringeExclusions {
		b.WriteString(" -site:")
		b.WriteString(site)
	}
	return b.String()
}

// Select returns the backends whose names appear in engines, in engines
// order. Empty engines selects every backend.
func Select(backends []Backend, engines []string) []Backend {
	if len(engines) == 0 {
		return backends
	}
	var out []Backend
	for _, e := range engines {
		e = strings.ToLower(strings.TrimSpace(e))
		for _, b := range backends {
			if b.Name() == e && !slices.Contains(out, b) {
				out = append(out, b)
			}
		}
	}
	return out
}

// Search fans the request out to every selected backend and query variant
// concurrently, then merges the results by link. Results keep a
// deterministic order (variant, then backend, then engine rank) independent
// of completion order. A backend failure is recorded as a warning; the search
// fails only when every fetch failed.
func Search(ctx context.Context, req Request, backends []Backend, limit int, logger *zap.Logger) (Output, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Output{}, eris.New("query is empty")
	}
	selected := Select(backends, req.Engines)
	if len(selected) == 0 {
		return Output{}, eris.Errorf("no search backends configured for engines %v", req.Engines)
	}

	fetches := Variants(query, req.Filter, limit)
	slots := make([][]types.RawResult, len(fetches)*len(selected))
	var (
		mu     sync.Mutex
		errs   []string
		failed int
	)

	g, gctx := errgroup.WithContext(ctx)
	for fi, f := range fetches {
		for bi, b := range selected {
			slot := fi*len(selected) + bi
			g.Go(func() error {
				results, err := b.Search(gctx, f)
				if err != nil {
					mu.Lock()
					errs = append(errs, b.Name()+" ("+f.Category+"): "+err.Error())
					failed++
					mu.Unlock()
					logger.Warn("search backend failed",
						zap.String("engine", b.Name()),
						zap.String("category", f.Category),
						zap.Error(err),
					)
					return nil
				}
				for i := range results {
					if results[i].Engine == "" {
						results[i].Engine = b.Name()
					}
					results[i].Category = f.Category
				}
				slots[slot] = results
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return Output{}, eris.Wrap(err, "searching")
	}
	if err := ctx.Err(); err != nil {
		return Output{}, eris.Wrap(err, "searching")
	}

	var all []types.RawResult
	for _, s := range slots {
		all = append(all, s...)
	}
	if failed == len(slots) {
		return Output{BackendErrors: errs}, eris.Errorf("all %d search fetches failed: %s", failed, strings.Join(errs, "; "))
	}

	merged, removed := deduplicate(all)
	logger.Debug("search complete",
		zap.String("query", query),
		zap.Int("fetches", len(slots)),
		zap.Int("results", len(merged)),
		zap.Int("duplicates_removed", removed),
	)
	return Output{Results: merged, DupsRemoved: removed, BackendErrors: errs}, nil
}

// deduplicate keeps the first result per ResultID and merges later
// occurrences into it. The same link fetched under both variants stays two
// results.
func deduplicate(results []types.RawResult) ([]types.RawResult, int) {
	seen := make(map[types.ResultID]int)
	var out []types.RawResult
	removed := 0
	for _, r := range results {
		key := identity.Resolve(r)
		if key.Link == identity.UnknownLink {
			out = append(out, r)
			continue
		}
		if idx, ok := seen[key]; ok {
			mergeInto(&out[idx], r)
			removed++
			continue
		}
		seen[key] = len(out)
		out = append(out, r)
	}
	return out, removed
}

// mergeInto fills empty fields of dst from src and records src's engine.
func mergeInto(dst *types.RawResult, src types.RawResult) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Snippet == "" {
		dst.Snippet = src.Snippet
	}
	if src.Engine != "" && !slices.Contains(strings.Split(dst.Engine, ","), src.Engine) {
		if dst.Engine == "" {
			dst.Engine = src.Engine
		} else {
			dst.Engine += "," + src.Engine
		}
	}
}
