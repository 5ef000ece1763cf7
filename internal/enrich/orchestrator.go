// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich runs per-result enrichment operations (score, fact-check,
// summarize) against external collaborators and applies their outcomes to the
// result store by identity.
//
// At most one operation per (generation, result, kind) is in flight. Outcomes
// that arrive after a new search has replaced the store are discarded. Every
// applied fact-check outcome, verdict or error, triggers exactly one rescoring
// of the same result.
package enrich

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/perspective-engine/internal/store"
	"github.com/pdiddy/perspective-engine/pkg/types"
)

const (
	defaultMaxConcurrency   = 8
	defaultScoreTimeout     = 15 * time.Second
	defaultFactCheckTimeout = 90 * time.Second
	defaultSummarizeTimeout = 60 * time.Second
)

// opKey identifies one operation slot.
type opKey struct {
	gen  uint64
	id   types.ResultID
	kind Kind
}

// Orchestrator issues enrichment operations and reconciles their outcomes.
type Orchestrator struct {
	store  *store.Store
	collab Collaborators
	cfg    types.EnrichConfig
	sem    *semaphore.Weighted
	logger *zap.Logger

	mu       sync.Mutex
	inflight map[opKey]struct{}
	rerun    map[opKey]bool
	states   map[opKey]types.OpStatus
	gen      uint64
	ctx      context.Context
	cancel   context.CancelFunc
	closed   bool

	unsubscribe func()
	wg          sync.WaitGroup
}

// New returns an orchestrator that applies outcomes to s.
func New(s *store.Store, collab Collaborators, cfg types.EnrichConfig, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = defaultMaxConcurrency
	}
	if cfg.ScoreTimeout <= 0 {
		cfg.ScoreTimeout = defaultScoreTimeout
	}
	if cfg.FactCheckTimeout <= 0 {
		cfg.FactCheckTimeout = defaultFactCheckTimeout
	}
	if cfg.SummarizeTimeout <= 0 {
		cfg.SummarizeTimeout = defaultSummarizeTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		store:    s,
		collab:   collab,
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		logger:   logger,
		inflight: make(map[opKey]struct{}),
		rerun:    make(map[opKey]bool),
		states:   make(map[opKey]types.OpStatus),
		ctx:      ctx,
		cancel:   cancel,
	}
	o.unsubscribe = s.Subscribe(o.observe)
	return o
}

// observe cancels calls of a replaced generation as soon as the store moves on.
func (o *Orchestrator) observe(gen uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen > o.gen && !o.closed {
		o.advance(gen)
	}
}

// Request starts an operation of the given kind for the result with the
// given ID. It returns false without doing anything when the same operation
// is already in flight for that result, or when the result does not exist.
func (o *Orchestrator) Request(id types.ResultID, kind Kind) bool {
	return o.start(0, id, kind, false)
}

// Retry re-issues an operation, typically after it ended in an error. It has
// the same guarantees as Request: calling it repeatedly never runs more than
// one operation per result and kind.
func (o *Orchestrator) Retry(id types.ResultID, kind Kind) bool {
	return o.start(0, id, kind, false)
}

// RequestAll requests kind for every result of the current generation and
// returns how many operations were started.
func (o *Orchestrator) RequestAll(kind Kind) int {
	started := 0
	for _, id := range o.store.IDs() {
		if o.Request(id, kind) {
			started++
		}
	}
	return started
}

// ScoreAll requests scoring for every result of the current generation.
func (o *Orchestrator) ScoreAll() int {
	return o.RequestAll(KindScore)
}

// FactCheckAll requests a fact-check for every result of the current
// generation.
func (o *Orchestrator) FactCheckAll() int {
	return o.RequestAll(KindFactCheck)
}

// SummarizeAll requests a summary for every result of the current generation.
func (o *Orchestrator) SummarizeAll() int {
	return o.RequestAll(KindSummarize)
}

// State returns the status of an operation slot in the current generation.
func (o *Orchestrator) State(id types.ResultID, kind Kind) types.OpStatus {
	gen := o.store.Generation()
	o.mu.Lock()
	defer o.mu.Unlock()
	if st, ok := o.states[opKey{gen: gen, id: id, kind: kind}]; ok {
		return st
	}
	return types.StatusIdle
}

// InFlight returns the number of operations currently running.
func (o *Orchestrator) InFlight() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.inflight)
}

// Wait blocks until no operation is in flight, including operations started
// by completions (rescoring after a fact-check).
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close cancels outstanding calls and waits for them to return. Requests
// made after Close are ignored.
func (o *Orchestrator) Close() {
	o.unsubscribe()
	o.mu.Lock()
	o.closed = true
	o.cancel()
	o.mu.Unlock()
	o.wg.Wait()
}

// start registers the operation slot and launches the call. A non-zero pin
// restricts the start to that generation. A cascade start that finds the slot
// busy schedules one re-run for when the running call completes, since the
// running call was issued with outdated inputs.
func (o *Orchestrator) start(pin uint64, id types.ResultID, kind Kind, cascade bool) bool {
	item, gen, ok := o.store.Lookup(id)
	if !ok {
		o.logger.Debug("enrichment requested for unknown result",
			zap.String("id", id.String()),
			zap.String("kind", string(kind)),
		)
		return false
	}
	if pin != 0 && pin != gen {
		o.logger.Debug("skipping follow-up for a replaced search",
			zap.String("id", id.String()),
			zap.String("kind", string(kind)),
			zap.Uint64("generation", pin),
		)
		return false
	}
	key := opKey{gen: gen, id: id, kind: kind}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	if _, busy := o.inflight[key]; busy {
		if cascade {
			o.rerun[key] = true
		}
		o.mu.Unlock()
		o.logger.Debug("enrichment already in flight",
			zap.String("id", id.String()),
			zap.String("kind", string(kind)),
			zap.Bool("cascade", cascade),
		)
		return false
	}
	if gen != o.gen {
		o.advance(gen)
	}
	o.inflight[key] = struct{}{}
	o.states[key] = types.StatusInFlight
	ctx := o.ctx
	o.wg.Add(1)
	o.mu.Unlock()

	if err := o.store.Upsert(gen, id, markInFlight(kind)); err != nil {
		o.finish(key, types.StatusIdle, false)
		o.wg.Done()
		return false
	}
	item = markInFlight(kind)(item)

	go o.run(ctx, key, item)
	return true
}

// advance moves the orchestrator to a new generation: calls still running for
// the old one are cancelled and their slot states forgotten. Callers hold o.mu.
func (o *Orchestrator) advance(gen uint64) {
	if gen < o.gen {
		return
	}
	o.cancel()
	o.ctx, o.cancel = context.WithCancel(context.Background())
	o.gen = gen
	for k := range o.states {
		if k.gen != gen {
			delete(o.states, k)
		}
	}
	for k := range o.rerun {
		if k.gen != gen {
			delete(o.rerun, k)
		}
	}
}

func (o *Orchestrator) run(ctx context.Context, key opKey, item types.SearchResult) {
	defer o.wg.Done()

	log := o.logger.With(
		zap.String("id", key.id.String()),
		zap.String("kind", string(key.kind)),
		zap.Uint64("generation", key.gen),
	)

	var (
		mutation store.Mutation
		callErr  error
	)
	if err := o.sem.Acquire(ctx, 1); err != nil {
		callErr = eris.Wrap(err, "waiting for a free enrichment slot")
		mutation = failure(key.kind, callErr)
	} else {
		start := time.Now()
		mutation, callErr = o.call(ctx, key.kind, item)
		o.sem.Release(1)
		log = log.With(zap.Duration("elapsed", time.Since(start)))
	}

	err := o.store.Upsert(key.gen, key.id, mutation)
	switch {
	case errors.Is(err, store.ErrStale):
		log.Debug("discarding outcome for a replaced search")
		o.finish(key, types.StatusIdle, false)
		return
	case err != nil:
		log.Warn("could not apply enrichment outcome", zap.Error(err))
		o.finish(key, types.StatusError, false)
		return
	}

	status := types.StatusApplied
	if callErr != nil {
		status = types.StatusError
		log.Warn("enrichment failed", zap.Error(callErr))
	} else {
		log.Debug("enrichment applied")
	}

	rerun := o.finish(key, status, true)
	if rerun {
		o.start(key.gen, key.id, key.kind, false)
	}

	// The verdict is a scoring input, and a failure replaces it with error.
	// Rescore once either way. Rescoring never fact-checks.
	if key.kind == KindFactCheck {
		o.start(key.gen, key.id, KindScore, true)
	}
}

// finish releases the operation slot, records its final status and reports
// whether a re-run was scheduled while it was running.
func (o *Orchestrator) finish(key opKey, status types.OpStatus, applied bool) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, key)
	if key.gen == o.gen {
		o.states[key] = status
	}
	rerun := applied && o.rerun[key]
	delete(o.rerun, key)
	return rerun
}

// call invokes the collaborator for kind and returns the mutation that applies
// its outcome. A non-nil error means the mutation records a failure.
func (o *Orchestrator) call(ctx context.Context, kind Kind, item types.SearchResult) (store.Mutation, error) {
	switch kind {
	case KindScore:
		return o.callScore(ctx, item)
	case KindFactCheck:
		return o.callFactCheck(ctx, item)
	case KindSummarize:
		return o.callSummarize(ctx, item)
	default:
		err := eris.Errorf("unknown enrichment kind %q", kind)
		return failure(kind, err), err
	}
}

func (o *Orchestrator) callScore(ctx context.Context, item types.SearchResult) (store.Mutation, error) {
	if o.collab.Scorer == nil {
		err := eris.New("no scorer configured")
		return failure(KindScore, err), err
	}
	ctx, cancel := context.WithTimeout(ctx, o.cfg.ScoreTimeout)
	defer cancel()

	verdict := item.FactCheck.Verdict
	if !verdict.IsTerminal() {
		verdict = types.VerdictPending
	}
	resp, err := o.collab.Scorer.Score(ctx, ScoreRequest{
		SourceType:   item.SourceType,
		BaseTrust:    item.BaseTrust,
		RecencyBoost: item.RecencyBoost,
		Verdict:      verdict,
	})
	if err != nil {
		err = eris.Wrap(err, "scoring")
		return failure(KindScore, err), err
	}
	if resp.Score < 0 || resp.Score > 100 {
		err = eris.Errorf("scorer returned out-of-range score %d", resp.Score)
		return failure(KindScore, err), err
	}
	return func(r types.SearchResult) types.SearchResult {
		r.Score = resp.Score
		r.Factors = resp.Factors
		r.ScoreStatus = types.StatusApplied
		r.ScoreError = ""
		return r
	}, nil
}

func (o *Orchestrator) callFactCheck(ctx context.Context, item types.SearchResult) (store.Mutation, error) {
	if o.collab.FactChecker == nil {
		err := eris.New("no fact-checker configured")
		return failure(KindFactCheck, err), err
	}
	ctx, cancel := context.WithTimeout(ctx, o.cfg.FactCheckTimeout)
	defer cancel()

	resp, err := o.collab.FactChecker.FactCheck(ctx, FactCheckRequest{
		URL:   item.Link,
		Claim: ClaimText(item),
	})
	if err != nil {
		err = eris.Wrap(err, "fact-checking")
		return failure(KindFactCheck, err), err
	}
	verdict := types.ParseVerdict(string(resp.Verdict))
	if !verdict.IsTerminal() || verdict == types.VerdictError {
		err = eris.Errorf("fact-checker returned no verdict (%q)", resp.Verdict)
		return failure(KindFactCheck, err), err
	}
	sources := append([]string(nil), resp.Sources...)
	return func(r types.SearchResult) types.SearchResult {
		r.FactCheck = types.FactCheckResult{
			Status:      types.StatusApplied,
			Verdict:     verdict,
			Explanation: resp.Explanation,
			Sources:     sources,
		}
		return r
	}, nil
}

func (o *Orchestrator) callSummarize(ctx context.Context, item types.SearchResult) (store.Mutation, error) {
	if o.collab.Summarizer == nil {
		err := eris.New("no summarizer configured")
		return failure(KindSummarize, err), err
	}
	ctx, cancel := context.WithTimeout(ctx, o.cfg.SummarizeTimeout)
	defer cancel()

	resp, err := o.collab.Summarizer.Summarize(ctx, SummarizeRequest{
		URL:          item.Link,
		FallbackText: FallbackText(item),
	})
	if err != nil {
		err = eris.Wrap(err, "summarizing")
		return failure(KindSummarize, err), err
	}
	if strings.TrimSpace(resp.Text) == "" {
		err = eris.New("summarizer returned an empty summary")
		return failure(KindSummarize, err), err
	}
	return func(r types.SearchResult) types.SearchResult {
		r.Summary = types.SummaryResult{
			Status:     types.StatusApplied,
			Text:       resp.Text,
			Provenance: resp.Provenance,
		}
		return r
	}, nil
}

// ClaimText is the claim sent for fact-checking: the result's title and
// snippet.
func ClaimText(r types.SearchResult) string {
	return joinNonEmpty(". ", r.Title, r.Snippet)
}

// FallbackText is summarized when a result's page cannot be fetched.
func FallbackText(r types.SearchResult) string {
	return joinNonEmpty("\n\n", r.Title, r.Snippet)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// markInFlight returns the mutation that flags kind as running on a result.
func markInFlight(kind Kind) store.Mutation {
	return func(r types.SearchResult) types.SearchResult {
		switch kind {
		case KindScore:
			r.ScoreStatus = types.StatusInFlight
			r.ScoreError = ""
		case KindFactCheck:
			r.FactCheck.Status = types.StatusInFlight
			r.FactCheck.Verdict = types.VerdictChecking
			r.FactCheck.Error = ""
		case KindSummarize:
			r.Summary.Status = types.StatusInFlight
			r.Summary.Error = ""
		}
		return r
	}
}

// failure returns the mutation that records err on the field of kind. Other
// fields of the result are left untouched.
func failure(kind Kind, err error) store.Mutation {
	msg := err.Error()
	return func(r types.SearchResult) types.SearchResult {
		switch kind {
		case KindScore:
			r.Score = -1
			r.Factors = types.ScoreFactors{}
			r.ScoreStatus = types.StatusError
			r.ScoreError = msg
		case KindFactCheck:
			r.FactCheck = types.FactCheckResult{
				Status:  types.StatusError,
				Verdict: types.VerdictError,
				Error:   msg,
			}
		case KindSummarize:
			r.Summary = types.SummaryResult{
				Status: types.StatusError,
				Error:  msg,
			}
		}
		return r
	}
}
