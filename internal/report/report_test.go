package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swarmhammer/internal/config"
	"swarmhammer/internal/swarm"
	"swarmhammer/internal/version"
)

func sampleResult() *swarm.Result {
	ledger := swarm.NewLedger()
	ledger.Record("echidna_common: failed!", "h/gen.1.0")
	ledger.Record("echidna_common: failed!", "h/gen.1.1")
	ledger.Record("echidna_rare: failed!", "h/gen.1.1")

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &swarm.Result{
		Failures:    []string{"h/gen.1.0/echidna.out", "h/gen.1.1/echidna.out"},
		Ledger:      ledger,
		Generations: 1,
		Workers:     3,
		Started:     start,
		Finished:    start.Add(90 * time.Second),
	}
}

func sampleReport() *Report {
	return New(&config.RunParameters{Name: "h", Seed: 7}, sampleResult())
}

func TestNew(t *testing.T) {
	r := sampleReport()

	_, err := uuid.Parse(r.ID)
	assert.NoError(t, err)
	assert.Equal(t, version.GetVersion(), r.Version)
	assert.Equal(t, "h", r.Name)
	assert.Equal(t, uint64(7), r.Seed)
	assert.Equal(t, 2, r.ExitStatus())
	assert.Equal(t, 90*time.Second, r.Duration())

	require.Len(t, r.Properties, 2)
	assert.Equal(t, "echidna_rare: failed!", r.Properties[0].Failure)
	assert.Equal(t, 1, r.Properties[0].Count)
	assert.Equal(t, "echidna_common: failed!", r.Properties[1].Failure)
	assert.Equal(t, []string{"h/gen.1.0", "h/gen.1.1"}, r.Properties[1].Prefixes)
	assert.Equal(t, []string{"h/gen.1.0/echidna.out", "h/gen.1.1/echidna.out"}, r.Properties[1].LogPaths())
}

func TestNew_UniqueIDs(t *testing.T) {
	assert.NotEqual(t, sampleReport().ID, sampleReport().ID)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	r := sampleReport()

	path, err := r.Save(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	fromFile, err := Load(path)
	require.NoError(t, err)
	fromDir, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, r.ID, fromFile.ID)
	assert.Equal(t, r.Properties, fromFile.Properties)
	assert.Equal(t, r.Failures, fromFile.Failures)
	assert.True(t, r.Started.Equal(fromFile.Started))
	assert.Equal(t, fromFile.ID, fromDir.ID)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("{not json"), 0644))
	_, err = Load(garbage)
	assert.Error(t, err)

	r := sampleReport()
	r.Version = "99.0.0"
	data, err := json.Marshal(r)
	require.NoError(t, err)
	future := filepath.Join(dir, "future.json")
	require.NoError(t, os.WriteFile(future, data, 0644))
	_, err = Load(future)
	assert.ErrorIs(t, err, ErrIncompatible)

	r.Version = "not-a-version"
	data, err = json.Marshal(r)
	require.NoError(t, err)
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, data, 0644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestMarkdown(t *testing.T) {
	md := sampleReport().Markdown()

	assert.Contains(t, md, "# Campaign h")
	assert.Contains(t, md, "| Seed | 7 |")
	assert.Contains(t, md, "| Duration | 1m30s |")
	assert.Contains(t, md, "## SOME TESTS FAILED")
	assert.Contains(t, md, "**FAILED 2 TIMES**")
	assert.Contains(t, md, "See: h/gen.1.0/echidna.out, h/gen.1.1/echidna.out")

	rare := strings.Index(md, "echidna_rare: failed!")
	common := strings.Index(md, "echidna_common: failed!")
	assert.Less(t, rare, common, "least reproduced failures come first")
}

func TestMarkdown_NoFailures(t *testing.T) {
	r := New(&config.RunParameters{Name: "h"}, &swarm.Result{Ledger: swarm.NewLedger()})
	md := r.Markdown()

	assert.Contains(t, md, "## NO FAILURES")
	assert.NotContains(t, md, "FAILED ")
	assert.Equal(t, 0, r.ExitStatus())
}

func TestMarkdown_FailuresWithoutProperties(t *testing.T) {
	r := New(&config.RunParameters{Name: "h"}, &swarm.Result{
		Failures: []string{"h/initial/echidna.out"},
		Ledger:   swarm.NewLedger(),
	})
	md := r.Markdown()

	assert.Contains(t, md, "## SOME TESTS FAILED")
	assert.Contains(t, md, "- h/initial/echidna.out")
}

func TestCodeFence(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"echidna_x: failed!", "```"},
		{"uses `x` inline", "```"},
		{"contains ``` a fence", "````"},
		{"five ````` in a row", "``````"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, codeFence(tt.line), tt.line)
	}
}

func TestMarkdown_FailureWithBackticks(t *testing.T) {
	ledger := swarm.NewLedger()
	ledger.Record("echidna_x: failed! ```boom```", "h/gen.1.0")
	r := New(&config.RunParameters{Name: "h"}, &swarm.Result{
		Failures: []string{"h/gen.1.0/echidna.out"},
		Ledger:   ledger,
	})

	assert.Contains(t, r.Markdown(), "````text\nechidna_x: failed! ```boom```\n````\n")
}

func TestRender(t *testing.T) {
	r := sampleReport()

	var plain bytes.Buffer
	require.NoError(t, r.Render(&plain, false))
	assert.Equal(t, r.Markdown(), plain.String())

	var styled bytes.Buffer
	require.NoError(t, r.Render(&styled, true))
	assert.Contains(t, styled.String(), "echidna_rare: failed!")
	assert.Contains(t, styled.String(), "FAILED 2 TIMES")
}
