package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgealign/internal/drawing"
)

// memSecrets is an in-memory secret store.
type memSecrets map[string][]byte

func (m memSecrets) Get(key string) ([]byte, error)      { return m[key], nil }
func (m memSecrets) Set(key string, value []byte) error { m[key] = value; return nil }
func (m memSecrets) Delete(key string) error            { delete(m, key); return nil }

const unaligned = `[
  {"id": "a", "type": "rectangle", "x": 0, "y": 0},
  {"id": "b", "type": "rectangle", "x": 300, "y": 100},
  {"id": "c", "type": "arrow", "x": 1, "y": 2, "width": 3, "height": 4, "start": {"id": "a"}, "end": {"id": "b"}}
]`

type harness struct {
	dir     string
	config  string
	secrets memSecrets
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.toml")
	body := "[journal]\ndriver = \"sqlite\"\npath = " + quote(filepath.Join(dir, "runs.db")) + "\n"
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o644))
	return &harness{dir: dir, config: cfg, secrets: memSecrets{}}
}

func quote(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

// run executes the CLI with args and stdin, returning stdout and the error.
func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(h.secrets)
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", h.config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestOptimize_Stdin(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, unaligned, "optimize")
	require.NoError(t, err)
	assert.Equal(t, drawing.Optimize(unaligned)+"\n", out)
}

func TestOptimize_PassesThroughUnparseable(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "nothing to see\n", "optimize", "-")
	require.NoError(t, err)
	assert.Equal(t, "nothing to see\n", out)
}

func TestOptimize_Check(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, unaligned, "optimize", "--check")
	assert.ErrorIs(t, err, ErrWouldChange)
	assert.Empty(t, out)

	_, err = h.run(t, drawing.Optimize(unaligned), "optimize", "--check")
	assert.NoError(t, err)
}

func TestOptimize_WriteInPlace(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "diagram.json")
	require.NoError(t, os.WriteFile(path, []byte(unaligned), 0o644))

	out, err := h.run(t, "", "optimize", "-w", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, drawing.Optimize(unaligned), string(data))

	_, err = h.run(t, "", "optimize", "--write")
	assert.ErrorContains(t, err, "needs a file")
}

func TestOptimize_Report(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, unaligned, "optimize", "--report")
	require.NoError(t, err)

	var rep drawing.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, drawing.StatusOptimized, rep.Status)
	require.Len(t, rep.Changes, 1)
	assert.Equal(t, "c", rep.Changes[0].ID)
}

func TestRuns_ListsJournal(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, unaligned, "optimize")
	require.NoError(t, err)
	_, err = h.run(t, "junk", "optimize")
	require.NoError(t, err)

	out, err := h.run(t, "", "runs")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "STATUS")
	assert.Contains(t, out, "optimized")
	assert.Contains(t, out, "no-array")

	out, err = h.run(t, "", "runs", "--json", "--limit", "1")
	require.NoError(t, err)
	var runs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	assert.Len(t, runs, 1)
}

func TestRunsPrune(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, unaligned, "optimize")
	require.NoError(t, err)

	out, err := h.run(t, "", "runs", "prune")
	require.NoError(t, err)
	assert.Equal(t, "pruned 0 runs\n", out)
}

func TestRunsPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "hunter2\n", "runs", "password")
	require.NoError(t, err)
	assert.Equal(t, []byte("hunter2"), h.secrets["journal"])

	_, err = h.run(t, "", "runs", "password", "--clear")
	require.NoError(t, err)
	assert.NotContains(t, h.secrets, "journal")

	_, err = h.run(t, "", "runs", "password")
	assert.Error(t, err)
}

func TestConfigErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "--config", filepath.Join(h.dir, "missing.toml"), "optimize")
	assert.Error(t, err)

	bad := filepath.Join(h.dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[journal]\ndriver = \"oracle\"\n"), 0o644))
	_, err = h.run(t, "", "--config", bad, "optimize")
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestJournalFallsBackToNop(t *testing.T) {
	h := newHarness(t)
	cfg := filepath.Join(h.dir, "mysql.toml")
	// Nothing listens on port 1.
	require.NoError(t, os.WriteFile(cfg, []byte("[journal]\ndriver = \"mysql\"\nhost = \"127.0.0.1\"\nport = 1\n"), 0o644))

	out, err := h.run(t, unaligned, "--config", cfg, "optimize")
	require.NoError(t, err)
	assert.Equal(t, drawing.Optimize(unaligned)+"\n", out)

	_, err = h.run(t, "", "--config", cfg, "runs")
	assert.Error(t, err)
}
