package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/votesheet/internal/adapters/http/api"
	app "github.com/okian/votesheet/internal/app"
	"github.com/okian/votesheet/internal/export"
	"github.com/okian/votesheet/internal/votefile"
	"github.com/okian/votesheet/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const votesYAML = `votes:
  - candidate: Abhishek Tiwari
    counts: [10, 0, 0, 0, 7]
  - candidate: Ajay Jaitly
    counts: [0, "12", 0, 0, abc]
`

func writeVotes(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "votes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("VOTESHEET_CONFIG", "")
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRankCmd(t *testing.T) {
	votes := writeVotes(t, votesYAML)

	stdout, stderr, err := execute(t, "rank", votes)
	require.NoError(t, err)

	assert.Contains(t, stderr, "1 value(s) coerced (non_numeric)")
	lines := strings.Split(stdout, "\n")
	require.Greater(t, len(lines), 3)
	assert.Contains(t, lines[1], "Abhishek Tiwari")
	assert.Contains(t, lines[1], "25.700")
	assert.Contains(t, lines[2], "Ajay Jaitly")
	assert.Contains(t, lines[2], "18.888")
	assert.Contains(t, stdout, "116.7%")
	assert.Contains(t, stdout, "over-limit")
	assert.Contains(t, stdout, "29 votes in 3 categories, top score 25.700, 1 over limit")
}

func TestRankCmdLimit(t *testing.T) {
	votes := writeVotes(t, votesYAML)

	stdout, _, err := execute(t, "rank", "--limit", "1", votes)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Abhishek Tiwari")
	assert.NotContains(t, stdout, "Ajay Jaitly")
}

func TestRankCmdErrors(t *testing.T) {
	t.Run("unknown candidate", func(t *testing.T) {
		votes := writeVotes(t, "votes:\n  - candidate: Nobody\n    counts: [1, 2, 3, 4, 5]\n")
		_, _, err := execute(t, "rank", votes)
		assert.ErrorIs(t, err, votefile.ErrUnknownCandidate)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := execute(t, "rank", filepath.Join(t.TempDir(), "none.yaml"))
		assert.Error(t, err)
	})

	t.Run("custom sheet", func(t *testing.T) {
		cfg := filepath.Join(t.TempDir(), "sheet.yaml")
		require.NoError(t, os.WriteFile(cfg, []byte(`candidates: [Ada, Grace]
top_n: 1
`), 0o600))
		votes := writeVotes(t, "votes:\n  - candidate: Grace\n    counts: [1, 0, 0, 0, 0]\n")

		stdout, _, err := execute(t, "rank", "--config", cfg, votes)
		require.NoError(t, err)
		lines := strings.Split(stdout, "\n")
		assert.Contains(t, lines[1], "*1")
		assert.Contains(t, lines[1], "Grace")
		assert.NotContains(t, lines[2], "*")
	})
}

func TestExportCmd(t *testing.T) {
	votes := writeVotes(t, votesYAML)

	t.Run("stdout", func(t *testing.T) {
		stdout, _, err := execute(t, "export", "--out", "-", votes)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
		require.Len(t, lines, 24)
		assert.Equal(t, "Candidate,A (1995),B (1695),C (1495),D (13XX),E (1030),Total Votes,Weighted Score", lines[0])
		assert.Equal(t, "Abhishek Tiwari,10,0,0,0,7,17,25.700", lines[1])
		assert.Equal(t, "Ajay Jaitly,0,12,0,0,0,12,18.888", lines[2])
		assert.Equal(t, "E (1030),7,6,116.7%", lines[23])
	})

	t.Run("default name", func(t *testing.T) {
		dir := t.TempDir()
		_, stderr, err := execute(t, "export", "--dir", dir, votes)
		require.NoError(t, err)

		want := filepath.Join(dir, export.FileName(time.Now()))
		assert.Contains(t, stderr, want)
		body, err := os.ReadFile(want)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(body), "Candidate,"))
	})
}

func TestDriveCmd(t *testing.T) {
	svc := app.New(app.WithLogger(logger.NewNop()))
	require.NoError(t, svc.Start(t.Context()))
	t.Cleanup(svc.Stop)
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(t.Context(), mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	stdout, _, err := execute(t, "drive", "--url", ts.URL, "--edits", "120", "--workers", "4", "--seed", "3", "--reset")
	require.NoError(t, err)
	assert.Contains(t, stdout, "120 edits")
	assert.Contains(t, stdout, "revision 121")
}
