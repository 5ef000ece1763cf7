// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires the result store, the enrichment orchestrator and
// the view projector into one search session. The session keeps a cached
// view and overview that are marked dirty on every store mutation and
// recomputed lazily on the next read.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/perspective-engine/internal/ai"
	"github.com/pdiddy/perspective-engine/internal/classify"
	"github.com/pdiddy/perspective-engine/internal/credibility"
	"github.com/pdiddy/perspective-engine/internal/enrich"
	"github.com/pdiddy/perspective-engine/internal/identity"
	"github.com/pdiddy/perspective-engine/internal/search"
	"github.com/pdiddy/perspective-engine/internal/store"
	"github.com/pdiddy/perspective-engine/internal/view"
	"github.com/pdiddy/perspective-engine/pkg/types"
)

// Classifier fills the classification fields of raw results before they
// are ingested.
type Classifier interface {
	ClassifyAll(ctx context.Context, raws []types.RawResult) []types.RawResult
}

// rulesOnly classifies with the rule-based classifier alone.
type rulesOnly struct {
	rules *classify.Classifier
}

func (r rulesOnly) ClassifyAll(_ context.Context, raws []types.RawResult) []types.RawResult {
	return r.rules.ClassifyAll(raws)
}

// Options configures a Session. It is read once by New.
type Options struct {
	Backends      []search.Backend
	Collaborators enrich.Collaborators
	Enrich        types.EnrichConfig

	// Classifier labels results at ingest. When nil, Rules is used alone.
	Classifier Classifier
	Rules      *classify.Classifier

	ResultsPerQuery int
	Filter          types.Perspective
	Logger          *zap.Logger
}

// Run describes the search that produced the current generation.
type Run struct {
	Generation uint64
	Request    search.Request
	Output     search.Output
	StartedAt  time.Time
}

// Session is one user's search workspace. It is safe for concurrent use.
type Session struct {
	store      *store.Store
	orch       *enrich.Orchestrator
	backends   []search.Backend
	classifier Classifier
	limit      int
	logger     *zap.Logger

	unsubscribe func()

	mu         sync.Mutex
	dirty      bool
	filter     types.Perspective
	view       []types.SearchResult
	overview   view.OverviewStats
	run        Run
	recomputes int
}

// New builds a session from opts.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	classifier := opts.Classifier
	if classifier == nil {
		rules := opts.Rules
		if rules == nil {
			rules = classify.New(0)
		}
		classifier = rulesOnly{rules: rules}
	}
	filter := opts.Filter
	if filter == "" {
		filter = types.PerspectiveAll
	}

	st := store.New(logger.Named("store"))
	s := &Session{
		store:      st,
		orch:       enrich.New(st, opts.Collaborators, opts.Enrich, logger.Named("enrich")),
		backends:   opts.Backends,
		classifier: classifier,
		limit:      opts.ResultsPerQuery,
		logger:     logger,
		dirty:      true,
		filter:     filter,
	}
	s.unsubscribe = st.Subscribe(s.markDirty)
	return s
}

// NewFromConfig builds a session from the loaded configuration. Without a
// SerpAPI key the offline fixture backends are used. Without an Anthropic
// key results are classified by rules alone, and fact-check and summarize
// report an error status per result.
func NewFromConfig(cfg *types.Config, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	filter, err := types.ParsePerspective(cfg.View.DefaultFilter)
	if err != nil {
		return nil, err
	}

	var backends []search.Backend
	if cfg.Search.SerpAPIKey != "" {
		backends = search.NewSerpAPIBackends(cfg.Search)
	} else {
		logger.Warn("no SerpAPI key configured, using offline fixture results")
		backends = search.NewFixtureBackends(cfg.Search.Engines)
	}

	rules := classify.New(cfg.Search.RecencyWindow)
	collab := enrich.Collaborators{Scorer: credibility.Local{}}
	var classifier Classifier
	if cfg.AI.APIKey != "" {
		client := ai.NewClient(cfg.AI.APIKey, nil)
		opts := ai.NewOptions(cfg.AI, logger.Named("ai"))
		collab.FactChecker = ai.NewFactChecker(client, opts)
		collab.Summarizer = ai.NewSummarizer(client, opts)
		classifier = ai.NewClassifier(client, rules, opts)
	}

	return New(Options{
		Backends:        backends,
		Collaborators:   collab,
		Enrich:          cfg.Enrich,
		Classifier:      classifier,
		Rules:           rules,
		ResultsPerQuery: cfg.Search.ResultsPerQuery,
		Filter:          filter,
		Logger:          logger,
	}), nil
}

func (s *Session) markDirty(uint64) {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// Search runs req against the configured backends and ingests the results.
// The previous generation is discarded only once the fetch succeeded.
func (s *Session) Search(ctx context.Context, req search.Request) (Run, error) {
	started := time.Now()
	out, err := search.Search(ctx, req, s.backends, s.limit, s.logger.Named("search"))
	if err != nil {
		return Run{}, eris.Wrapf(err, "search %q", req.Query)
	}
	for _, msg := range out.BackendErrors {
		s.logger.Warn("partial search failure", zap.String("detail", msg))
	}
	run := s.Ingest(ctx, req, out)
	run.StartedAt = started
	s.mu.Lock()
	s.run.StartedAt = started
	s.mu.Unlock()
	return run, nil
}

// Ingest classifies raw results, assigns identities, replaces the store
// contents with them and queues every result for scoring. A non-empty
// request filter becomes the session's display filter.
func (s *Session) Ingest(ctx context.Context, req search.Request, out search.Output) Run {
	raws := s.classifier.ClassifyAll(ctx, out.Results)
	results := make([]types.SearchResult, len(raws))
	for i, raw := range raws {
		results[i] = FromRaw(raw)
	}

	s.mu.Lock()
	if req.Filter != "" {
		s.filter = req.Filter
	}
	s.mu.Unlock()

	gen := s.store.ReplaceAll(results)
	run := Run{Generation: gen, Request: req, Output: out, StartedAt: time.Now()}
	s.mu.Lock()
	s.run = run
	s.dirty = true
	s.mu.Unlock()

	queued := s.orch.ScoreAll()
	s.logger.Info("results ingested",
		zap.String("query", req.Query),
		zap.Uint64("generation", gen),
		zap.Int("results", s.store.Len()),
		zap.Int("scoring", queued),
	)
	return run
}

// FromRaw builds a store entry from a classified raw result. Enrichment
// starts idle with a pending verdict.
func FromRaw(raw types.RawResult) types.SearchResult {
	id := identity.Resolve(raw)
	return types.SearchResult{
		ID:           id,
		Title:        raw.Title,
		Snippet:      raw.Snippet,
		Link:         raw.Link,
		Engine:       raw.Engine,
		SourceType:   raw.SourceType,
		Sentiment:    raw.Sentiment,
		BaseTrust:    raw.BaseTrust,
		RecencyBoost: raw.RecencyBoost,
		Category:     id.Category,
		ScoreStatus:  types.StatusIdle,
		FactCheck:    types.FactCheckResult{Status: types.StatusIdle, Verdict: types.VerdictPending},
		Summary:      types.SummaryResult{Status: types.StatusIdle},
	}
}

// SetFilter changes the display filter. The view is recomputed on the next
// read.
func (s *Session) SetFilter(filter types.Perspective) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if filter == "" {
		filter = types.PerspectiveAll
	}
	if filter != s.filter {
		s.filter = filter
		s.dirty = true
	}
}

// Filter returns the current display filter.
func (s *Session) Filter() types.Perspective {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// View returns the filtered, credibility-ranked results.
func (s *Session) View() []types.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()
	out := make([]types.SearchResult, len(s.view))
	for i, r := range s.view {
		out[i] = r.Clone()
	}
	return out
}

// Overview returns statistics over the current view.
func (s *Session) Overview() view.OverviewStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()
	return s.overview
}

// refresh recomputes the cached view when it is dirty. Callers hold s.mu.
func (s *Session) refresh() {
	if !s.dirty {
		return
	}
	// Clear first: a mutation landing during the recompute marks it dirty
	// again instead of being lost.
	s.dirty = false
	s.view = view.Project(s.store.All(), s.filter)
	s.overview = view.Summarize(s.view)
	s.recomputes++
}

// Last returns the search that produced the current generation.
func (s *Session) Last() Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run
}

// Results returns every result of the current generation in ingestion
// order, regardless of the display filter.
func (s *Session) Results() []types.SearchResult {
	return s.store.All()
}

// Get returns the result with the given ID.
func (s *Session) Get(id types.ResultID) (types.SearchResult, bool) {
	return s.store.Get(id)
}

// Request starts an enrichment of the given kind for one result.
func (s *Session) Request(id types.ResultID, kind enrich.Kind) bool {
	return s.orch.Request(id, kind)
}

// Retry re-issues an enrichment, typically one that ended in an error.
func (s *Session) Retry(id types.ResultID, kind enrich.Kind) bool {
	return s.orch.Retry(id, kind)
}

// RequestAll starts an enrichment of the given kind for every result.
func (s *Session) RequestAll(kind enrich.Kind) int {
	return s.orch.RequestAll(kind)
}

// State returns the status of one enrichment slot.
func (s *Session) State(id types.ResultID, kind enrich.Kind) types.OpStatus {
	return s.orch.State(id, kind)
}

// Wait blocks until no enrichment is in flight.
func (s *Session) Wait() {
	s.orch.Wait()
}

// WaitContext waits like Wait but gives up when ctx is done. The helper
// goroutine it starts keeps waiting after ctx ends, until the in-flight
// enrichments finish; Close cancels them and so releases it.
func (s *Session) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.orch.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels outstanding enrichments and detaches from the store.
func (s *Session) Close() {
	s.orch.Close()
	s.unsubscribe()
}
