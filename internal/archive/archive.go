// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps a local SQLite history of completed searches and the
// enriched results they produced, so past runs can be listed, reopened and
// exported.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"

	"github.com/pdiddy/perspective-engine/internal/view"
	"github.com/pdiddy/perspective-engine/pkg/types"
)

const (
	dbFile       = "history.db"
	defaultDir   = "data"
	defaultLimit = 20

	// timeLayout is fixed-width so created_at sorts correctly as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNotFound is returned when no archived run matches a run ID.
var ErrNotFound = eris.New("archive: run not found")

// Archive manages the history database.
type Archive struct {
	db  *sql.DB
	dir string
}

// Search describes the request being archived.
type Search struct {
	Query      string
	Engines    []string
	Filter     types.Perspective
	Generation uint64
	CreatedAt  time.Time
}

// Record is one archived search.
type Record struct {
	RunID        string            `json:"run_id" yaml:"run_id"`
	Query        string            `json:"query" yaml:"query"`
	Engines      []string          `json:"engines" yaml:"engines"`
	Filter       types.Perspective `json:"filter" yaml:"filter"`
	Generation   uint64            `json:"generation" yaml:"generation"`
	CreatedAt    time.Time         `json:"created_at" yaml:"created_at"`
	ResultCount  int               `json:"result_count" yaml:"result_count"`
	AverageScore float64           `json:"average_score" yaml:"average_score"`
	HasAverage   bool              `json:"has_average" yaml:"has_average"`
}

// Entry is one archived result.
type Entry struct {
	RunID       string         `json:"run_id" yaml:"run_id"`
	Position    int            `json:"position" yaml:"position"`
	ResultID    string         `json:"result_id" yaml:"result_id"`
	Link        string         `json:"link" yaml:"link"`
	Category    string         `json:"category" yaml:"category"`
	Title       string         `json:"title" yaml:"title"`
	Snippet     string         `json:"snippet" yaml:"snippet"`
	Engine      string         `json:"engine" yaml:"engine"`
	SourceType  string         `json:"source_type" yaml:"source_type"`
	Score       int            `json:"credibility_score" yaml:"credibility_score"`
	ScoreStatus types.OpStatus `json:"score_status" yaml:"score_status"`
	Verdict     types.Verdict  `json:"verdict" yaml:"verdict"`
	Explanation string         `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Summary     string         `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Open opens or creates the history database at cfg.Dir/history.db and
// creates the schema if it does not exist.
func Open(cfg types.ArchiveConfig) (*Archive, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "creating archive directory")
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, eris.Wrap(err, "opening archive database")
	}

	a := &Archive{db: db, dir: dir}
	if err := a.createSchema(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "creating archive schema")
	}
	return a, nil
}

// Close releases the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Dir returns the directory holding the database.
func (a *Archive) Dir() string {
	return a.dir
}

func (a *Archive) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			run_id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			engines TEXT,
			filter TEXT,
			generation INTEGER,
			created_at TEXT NOT NULL,
			result_count INTEGER,
			average_score REAL,
			has_average INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES searches(run_id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			result_id TEXT NOT NULL,
			link TEXT,
			category TEXT,
			title TEXT,
			snippet TEXT,
			engine TEXT,
			source_type TEXT,
			score INTEGER,
			score_status TEXT,
			verdict TEXT,
			explanation TEXT,
			summary TEXT,
			UNIQUE(run_id, result_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_created_at ON searches(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := a.db.Exec(stmt); err != nil {
			return eris.Wrap(err, "executing schema statement")
		}
	}
	return nil
}

// Save stores a search and its results under a new run ID and returns the
// record. Results are stored in the order given.
func (a *Archive) Save(ctx context.Context, s Search, results []types.SearchResult) (Record, error) {
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	stats := view.Summarize(results)
	rec := Record{
		RunID:        uuid.NewString(),
		Query:        s.Query,
		Engines:      s.Engines,
		Filter:       s.Filter,
		Generation:   s.Generation,
		CreatedAt:    created.UTC(),
		ResultCount:  len(results),
		AverageScore: stats.AverageScore,
		HasAverage:   stats.HasAverage,
	}

	engines, err := json.Marshal(rec.Engines)
	if err != nil {
		return Record{}, eris.Wrap(err, "encoding engines")
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, eris.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO searches (run_id, query, engines, filter, generation, created_at, result_count, average_score, has_average)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Query, string(engines), string(rec.Filter), rec.Generation,
		rec.CreatedAt.Format(timeLayout), rec.ResultCount, rec.AverageScore, rec.HasAverage,
	); err != nil {
		return Record{}, eris.Wrap(err, "inserting search")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO results (run_id, position, result_id, link, category, title, snippet, engine,
			source_type, score, score_status, verdict, explanation, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Record{}, eris.Wrap(err, "preparing result insert")
	}
	defer stmt.Close()

	for i, r := range results {
		if _, err := stmt.ExecContext(ctx,
			rec.RunID, i, r.ID.String(), r.Link, r.Category, r.Title, r.Snippet, r.Engine,
			r.SourceType, r.Score, string(r.ScoreStatus), string(r.FactCheck.Verdict),
			r.FactCheck.Explanation, r.Summary.Text,
		); err != nil {
			return Record{}, eris.Wrapf(err, "inserting result %s", r.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return Record{}, eris.Wrap(err, "committing search")
	}
	return rec, nil
}

// List returns the most recent searches, newest first. A limit of zero
// uses the default of 20.
func (a *Archive) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT run_id, query, engines, filter, generation, created_at, result_count, average_score, has_average
		FROM searches ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "listing searches")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "listing searches")
}

// Load returns an archived search and its results in their saved order.
// runID may be a unique prefix of the full run ID.
func (a *Archive) Load(ctx context.Context, runID string) (Record, []Entry, error) {
	rec, err := a.record(ctx, runID)
	if err != nil {
		return Record{}, nil, err
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT position, result_id, link, category, title, snippet, engine, source_type,
			score, score_status, verdict, explanation, summary
		FROM results WHERE run_id = ? ORDER BY position`, rec.RunID)
	if err != nil {
		return Record{}, nil, eris.Wrap(err, "loading results")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e := Entry{RunID: rec.RunID}
		var status, verdict string
		if err := rows.Scan(&e.Position, &e.ResultID, &e.Link, &e.Category, &e.Title, &e.Snippet,
			&e.Engine, &e.SourceType, &e.Score, &status, &verdict, &e.Explanation, &e.Summary); err != nil {
			return Record{}, nil, eris.Wrap(err, "scanning result")
		}
		e.ScoreStatus = types.OpStatus(status)
		e.Verdict = types.Verdict(verdict)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return Record{}, nil, eris.Wrap(err, "loading results")
	}
	return rec, entries, nil
}

// Find returns archived results whose title or snippet contains text,
// newest run first.
func (a *Archive) Find(ctx context.Context, text string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	pattern := "%" + escapeLike(strings.TrimSpace(text)) + "%"
	rows, err := a.db.QueryContext(ctx,
		`SELECT r.run_id, r.position, r.result_id, r.link, r.category, r.title, r.snippet, r.engine,
			r.source_type, r.score, r.score_status, r.verdict, r.explanation, r.summary
		FROM results r JOIN searches s ON s.run_id = r.run_id
		WHERE r.title LIKE ? ESCAPE '\' OR r.snippet LIKE ? ESCAPE '\'
		ORDER BY s.created_at DESC, r.position LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, eris.Wrap(err, "searching archive")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var status, verdict string
		if err := rows.Scan(&e.RunID, &e.Position, &e.ResultID, &e.Link, &e.Category, &e.Title, &e.Snippet,
			&e.Engine, &e.SourceType, &e.Score, &status, &verdict, &e.Explanation, &e.Summary); err != nil {
			return nil, eris.Wrap(err, "scanning result")
		}
		e.ScoreStatus = types.OpStatus(status)
		e.Verdict = types.Verdict(verdict)
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "searching archive")
}

// Delete removes a search and its results.
func (a *Archive) Delete(ctx context.Context, runID string) error {
	rec, err := a.record(ctx, runID)
	if err != nil {
		return err
	}
	if _, err := a.db.ExecContext(ctx, `DELETE FROM searches WHERE run_id = ?`, rec.RunID); err != nil {
		return eris.Wrapf(err, "deleting run %s", rec.RunID)
	}
	return nil
}

func (a *Archive) record(ctx context.Context, runID string) (Record, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return Record{}, eris.Wrap(ErrNotFound, "empty run id")
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT run_id, query, engines, filter, generation, created_at, result_count, average_score, has_average
		FROM searches WHERE run_id LIKE ? ESCAPE '\' LIMIT 2`, escapeLike(runID)+"%")
	if err != nil {
		return Record{}, eris.Wrap(err, "looking up run")
	}
	defer rows.Close()

	var found []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return Record{}, err
		}
		found = append(found, rec)
	}
	if err := rows.Err(); err != nil {
		return Record{}, eris.Wrap(err, "looking up run")
	}
	switch len(found) {
	case 0:
		return Record{}, eris.Wrapf(ErrNotFound, "run %s", runID)
	case 1:
		return found[0], nil
	default:
		return Record{}, eris.Errorf("archive: run id prefix %q is ambiguous", runID)
	}
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		rec     Record
		engines string
		filter  string
		created string
	)
	if err := sc.Scan(&rec.RunID, &rec.Query, &engines, &filter, &rec.Generation, &created,
		&rec.ResultCount, &rec.AverageScore, &rec.HasAverage); err != nil {
		return Record{}, eris.Wrap(err, "scanning search")
	}
	if engines != "" {
		if err := json.Unmarshal([]byte(engines), &rec.Engines); err != nil {
			return Record{}, eris.Wrapf(err, "decoding engines of run %s", rec.RunID)
		}
	}
	rec.Filter = types.Perspective(filter)
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Record{}, eris.Wrapf(err, "parsing created_at of run %s", rec.RunID)
	}
	rec.CreatedAt = t
	return rec, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
