// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store holds the canonical collection of results for the current
// search generation. All mutations go through Upsert, keyed by ResultID.
package store

import (
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/perspective-engine/pkg/types"
)

var (
	// ErrStale is returned by Upsert when the caller's generation is no
	// longer current. The mutation has no effect.
	ErrStale = eris.New("store: stale generation")

	// ErrNotFound is returned by Upsert when no result has the given ID in
	// the current generation.
	ErrNotFound = eris.New("store: result not found")
)

// Mutation is a pure transform applied to a stored result. It receives a
// copy and returns the replacement.
type Mutation func(types.SearchResult) types.SearchResult

// Listener is notified with the generation after every successful mutation.
// Listeners run synchronously on the mutating goroutine and must not call
// back into Upsert or ReplaceAll.
type Listener func(gen uint64)

type entry struct {
	mu     sync.Mutex
	result types.SearchResult
}

// Store is safe for concurrent use. ReplaceAll takes the structure lock
// exclusively; Upsert takes it shared and serializes per entry, so updates
// to different results never wait on each other.
type Store struct {
	mu      sync.RWMutex
	gen     uint64
	entries map[types.ResultID]*entry
	order   []types.ResultID

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int

	logger *zap.Logger
}

// New returns an empty store at generation 0.
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		entries:   make(map[types.ResultID]*entry),
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// Generation returns the current generation.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// ReplaceAll swaps in a new collection, increments the generation and
// returns it. Results sharing an ID are merged into the first occurrence.
// Nothing from the previous generation is carried over.
func (s *Store) ReplaceAll(results []types.SearchResult) uint64 {
	entries := make(map[types.ResultID]*entry, len(results))
	order := make([]types.ResultID, 0, len(results))
	for _, r := range results {
		if e, ok := entries[r.ID]; ok {
			e.result = merge(e.result, r)
			continue
		}
		entries[r.ID] = &entry{result: r.Clone()}
		order = append(order, r.ID)
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.entries = entries
	s.order = order
	s.mu.Unlock()

	s.logger.Debug("store replaced",
		zap.Uint64("generation", gen),
		zap.Int("results", len(order)),
		zap.Int("merged", len(results)-len(order)),
	)
	s.notify(gen)
	return gen
}

// Upsert applies fn to the result with the given ID, provided gen is still
// the current generation. Concurrent upserts to one ID are applied one at a
// time, each seeing the previous one's output.
func (s *Store) Upsert(gen uint64, id types.ResultID, fn Mutation) error {
	s.mu.RLock()
	if gen != s.gen {
		s.mu.RUnlock()
		s.logger.Debug("stale upsert discarded",
			zap.String("id", id.String()),
			zap.Uint64("generation", gen),
		)
		return ErrStale
	}
	e, ok := s.entries[id]
	if !ok {
		s.mu.RUnlock()
		s.logger.Warn("upsert for unknown result", zap.String("id", id.String()))
		return ErrNotFound
	}

	e.mu.Lock()
	next := fn(e.result.Clone())
	next.ID = id
	e.result = next
	e.mu.Unlock()
	s.mu.RUnlock()

	s.notify(gen)
	return nil
}

// Get returns a copy of the result with the given ID.
func (s *Store) Get(id types.ResultID) (types.SearchResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return types.SearchResult{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result.Clone(), true
}

// Lookup returns a copy of the result with the given ID together with the
// generation it was read from.
func (s *Store) Lookup(id types.ResultID) (types.SearchResult, uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return types.SearchResult{}, s.gen, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result.Clone(), s.gen, true
}

// All returns copies of every result in ingestion order.
func (s *Store) All() []types.SearchResult {
	results, _ := s.Snapshot()
	return results
}

// Snapshot returns copies of every result in ingestion order together with
// the generation they belong to.
func (s *Store) Snapshot() ([]types.SearchResult, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.SearchResult, 0, len(s.order))
	for _, id := range s.order {
		e := s.entries[id]
		e.mu.Lock()
		out = append(out, e.result.Clone())
		e.mu.Unlock()
	}
	return out, s.gen
}

// IDs returns the IDs of the current generation in ingestion order.
func (s *Store) IDs() []types.ResultID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.ResultID(nil), s.order...)
}

// Len returns the number of results in the current generation.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

func (s *Store) notify(gen uint64) {
	s.lmu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn(gen)
	}
}

// merge fills empty fields of dst from src and records every engine that
// returned the result.
func merge(dst, src types.SearchResult) types.SearchResult {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Snippet == "" {
		dst.Snippet = src.Snippet
	}
	if dst.Link == "" {
		dst.Link = src.Link
	}
	if dst.SourceType == "" {
		dst.SourceType = src.SourceType
	}
	if dst.Sentiment.Label == "" {
		dst.Sentiment = src.Sentiment
	}
	if src.Engine != "" && !containsEngine(dst.Engine, src.Engine) {
		if dst.Engine == "" {
			dst.Engine = src.Engine
		} else {
			dst.Engine = dst.Engine + "," + src.Engine
		}
	}
	return dst
}

func containsEngine(list, engine string) bool {
	for _, e := range strings.Split(list, ",") {
		if e == engine {
			return true
		}
	}
	return false
}
