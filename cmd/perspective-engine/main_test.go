// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/perspective-engine/internal/archive"
	"github.com/pdiddy/perspective-engine/pkg/types"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestSearchArchivesOfflineRun(t *testing.T) {
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(orig) })
	t.Setenv("HOME", dir)
	t.Setenv("PERSPECTIVE_ENGINE_ARCHIVE_DIR", filepath.Join(dir, "history"))

	noSecrets := filepath.Join(dir, "no-secrets")
	queryFile := filepath.Join(dir, "query.yaml")

	require.NoError(t, execute(t, "search", "--secrets-dir", noSecrets,
		"--engines", "google", "--filter", "all", "--save", queryFile, "home solar panels"))
	require.FileExists(t, queryFile)

	require.NoError(t, execute(t, "search", "--secrets-dir", noSecrets,
		"--load", queryFile, "--filter", "fringe", "--save", "", "--json"))

	a, err := archive.Open(types.ArchiveConfig{Dir: filepath.Join(dir, "history")})
	require.NoError(t, err)
	defer a.Close()

	recs, err := a.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, "home solar panels", r.Query)
		assert.True(t, r.HasAverage)
	}
	assert.Equal(t, types.PerspectiveFringe, recs[0].Filter)
	assert.Less(t, recs[0].ResultCount, recs[1].ResultCount)

	require.NoError(t, execute(t, "history", "list", "--secrets-dir", noSecrets))
	require.NoError(t, execute(t, "history", "export", "--secrets-dir", noSecrets,
		"--format", "json", "-o", filepath.Join(dir, "export.json"), recs[0].RunID[:8]))
	data, err := os.ReadFile(filepath.Join(dir, "export.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), recs[0].RunID)
}

func TestSearchRequiresQuery(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	err := execute(t, "search", "--secrets-dir", filepath.Join(dir, "none"),
		"--query", "", "--load", "", "--no-archive")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provide a query")
}

func TestFormatRecords(t *testing.T) {
	var buf bytes.Buffer
	formatRecords(&buf, nil)
	assert.Equal(t, "No searches archived.\n", buf.String())

	buf.Reset()
	formatRecords(&buf, []archive.Record{{
		RunID:       "0123456789abcdef",
		Query:       "vaccines",
		Filter:      types.PerspectiveAll,
		CreatedAt:   time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
		ResultCount: 7,
	}})
	out := buf.String()
	assert.Contains(t, out, "01234567 ")
	assert.NotContains(t, out, "89abcdef")
	assert.Contains(t, out, "N/A")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "vaccines"))
}

func TestFormatEntries(t *testing.T) {
	var buf bytes.Buffer
	formatEntries(&buf, []archive.Entry{
		{RunID: "abcdef0123", Position: 0, Title: "Scored", Score: 64, ScoreStatus: types.StatusApplied, Verdict: types.VerdictVerified},
		{RunID: "abcdef0123", Position: 1, Title: "Failed", Score: -1, ScoreStatus: types.StatusError, Verdict: types.VerdictPending},
	}, true)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[2], "64")
	assert.Contains(t, lines[2], "abcdef01")
	assert.Contains(t, lines[3], " -  ")
	assert.Contains(t, lines[5], "2 results")
}
