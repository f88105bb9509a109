package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/coursealloc/internal/config"
	"github.com/mesh-intelligence/coursealloc/internal/fairdiv"
	"github.com/mesh-intelligence/coursealloc/internal/paths"
	"github.com/mesh-intelligence/coursealloc/internal/runner"
	"github.com/mesh-intelligence/coursealloc/internal/session"
	"github.com/mesh-intelligence/coursealloc/internal/tableio"
	"github.com/mesh-intelligence/coursealloc/pkg/sqlite"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

// testEnv is an isolated config and data directory pair.
type testEnv struct {
	configDir string
	dataDir   string
}

func newTestEnv(t *testing.T, backend string) testEnv {
	t.Helper()
	te := testEnv{configDir: t.TempDir(), dataDir: t.TempDir()}
	cfg := config.Default()
	cfg.Backend = backend
	cfg.Pacing = false
	cfg.LogLevel = "error"
	_, err := config.WriteDefault(te.configDir, cfg)
	require.NoError(t, err)
	return te
}

// run executes the root command and returns its stdout.
func (te testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config-dir", te.configDir, "--data-dir", te.dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func (te testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := te.run(t, args...)
	require.NoError(t, err, "coursealloc %s", strings.Join(args, " "))
	return out
}

type runOutput struct {
	Dimensions types.Dimensions `json:"dimensions"`
	Outcomes   []types.Outcome  `json:"outcomes"`
	ElapsedMS  float64          `json:"elapsed_ms"`
}

func decodeRun(t *testing.T, out string) runOutput {
	t.Helper()
	var ro runOutput
	require.NoError(t, json.Unmarshal([]byte(out), &ro), out)
	return ro
}

func TestVersion(t *testing.T) {
	te := newTestEnv(t, types.BackendMemory)
	out := te.mustRun(t, "version")
	assert.Contains(t, out, "coursealloc v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestGenerateWritesTables(t *testing.T) {
	te := newTestEnv(t, types.BackendMemory)
	outDir := filepath.Join(t.TempDir(), "tables")
	te.mustRun(t, "generate", "-n", "4", "-m", "5", "--seed", "7", "--out", outDir)

	dims := types.Dimensions{Agents: 4, Items: 5}
	for _, name := range types.StandardTableNames {
		f, err := os.Open(filepath.Join(outDir, name+".csv"))
		require.NoError(t, err)
		_, shape, err := tableio.Parse(f)
		f.Close()
		require.NoError(t, err, name)
		want, _ := dims.ShapeOf(name)
		assert.Equal(t, want, shape, name)
	}
}

func TestGenerateRejectsInvalidDimensions(t *testing.T) {
	te := newTestEnv(t, types.BackendMemory)
	_, err := te.run(t, "generate", "-n", "1", "--out", t.TempDir())
	require.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestRunJSON(t *testing.T) {
	te := newTestEnv(t, types.BackendMemory)
	out := te.mustRun(t, "--json", "run", "-n", "3", "-m", "4", "--seed", "11", "--algorithm", "round_robin")

	ro := decodeRun(t, out)
	assert.Equal(t, types.Dimensions{Agents: 3, Items: 4}, ro.Dimensions)
	require.Len(t, ro.Outcomes, 1)
	got := ro.Outcomes[0]
	assert.Equal(t, types.AlgRoundRobin, got.Algorithm)
	assert.Empty(t, got.Error)
	require.NotNil(t, got.Stats)
	assert.Len(t, got.Allocation, 3)
}

func TestRunAllAlgorithmsText(t *testing.T) {
	te := newTestEnv(t, types.BackendMemory)
	out := te.mustRun(t, "run", "-n", "3", "-m", "3", "--seed", "5")

	for _, alg := range types.Algorithms {
		assert.Contains(t, out, "== "+alg.Title()+" ==")
	}
	assert.Contains(t, out, "AGENT")
	assert.Contains(t, out, "Finished 6 algorithm(s) on 3 agents and 3 items")
}

func TestRunAcceptsAlgorithmTitles(t *testing.T) {
	te := newTestEnv(t, types.BackendMemory)
	out := te.mustRun(t, "--json", "run", "--seed", "3", "--algorithm", "Serial dictatorship")
	ro := decodeRun(t, out)
	require.Len(t, ro.Outcomes, 1)
	assert.Equal(t, types.AlgSerialDictatorship, ro.Outcomes[0].Algorithm)
}

func TestRunUsesCSVFiles(t *testing.T) {
	te := newTestEnv(t, types.BackendMemory)
	dir := t.TempDir()
	te.mustRun(t, "generate", "-n", "4", "-m", "4", "--seed", "21", "--out", dir)

	fromSeed := decodeRun(t, te.mustRun(t, "--json", "run", "-n", "4", "-m", "4", "--seed", "21"))

	args := []string{"--json", "run", "-n", "4", "-m", "4", "--seed", "99"}
	for _, name := range types.StandardTableNames {
		args = append(args, "--"+strings.ReplaceAll(name, "_", "-"), filepath.Join(dir, name+".csv"))
	}
	fromFiles := decodeRun(t, te.mustRun(t, args...))

	if diff := cmp.Diff(fromSeed.Outcomes, fromFiles.Outcomes); diff != "" {
		t.Errorf("outcomes differ (-seed +files):\n%s", diff)
	}
}

func TestRunUploadKeepsDimensions(t *testing.T) {
	te := newTestEnv(t, types.BackendMemory)
	dir := t.TempDir()
	prefs := "Agent,Item 1,Item 2,Item 3,Item 4\n" +
		"Agent 1,400,300,200,100\n" +
		"Agent 2,100,200,300,400\n" +
		"Agent 3,250,250,250,250\n"
	path := filepath.Join(dir, "prefs.csv")
	require.NoError(t, os.WriteFile(path, []byte(prefs), 0o644))

	out := te.mustRun(t, "--json", "run", "-n", "2", "-m", "3", "--algorithm", "round_robin", "--preferences", path)
	ro := decodeRun(t, out)
	assert.Equal(t, types.Dimensions{Agents: 2, Items: 3}, ro.Dimensions)
	require.Len(t, ro.Outcomes, 1)
	assert.Empty(t, ro.Outcomes[0].Error)
}

func TestRunErrors(t *testing.T) {
	te := newTestEnv(t, types.BackendMemory)
	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("a,b\nc,d\n"), 0o644))

	tests := []struct {
		name string
		args []string
		is   error
		code int
	}{
		{"unknown algorithm", []string{"run", "--algorithm", "lottery"}, types.ErrUnknownAlgorithm, exitUserError},
		{"bad dimensions", []string{"run", "-n", "501"}, types.ErrValidation, exitUserError},
		{"malformed csv", []string{"run", "--preferences", bad}, types.ErrImport, exitUserError},
		{"missing file", []string{"run", "--preferences", filepath.Join(t.TempDir(), "none.csv")}, os.ErrNotExist, exitSysError},
		{"unknown session", []string{"run", "--session", "nope"}, types.ErrNotFound, exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := te.run(t, tt.args...)
			require.ErrorIs(t, err, tt.is)
			assert.Equal(t, tt.code, exitCode(err))
		})
	}
}

func TestRunStoredSession(t *testing.T) {
	te := newTestEnv(t, types.BackendSQLite)

	store := sqlite.NewBackend()
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: te.dataDir}))
	mgr := session.NewManager(store, runner.New(fairdiv.New(), runner.WithPacing(false)), session.WithSeed(4))
	snap, err := mgr.Create(types.Dimensions{Agents: 3, Items: 5})
	require.NoError(t, err)
	require.NoError(t, store.Detach())

	out := te.mustRun(t, "--json", "run", "--session", snap.SessionID, "--algorithm", "utilitarian_matching")
	ro := decodeRun(t, out)
	assert.Equal(t, snap.Dimensions, ro.Dimensions)
	require.Len(t, ro.Outcomes, 1)
	assert.Empty(t, ro.Outcomes[0].Error)

	// The run is recorded with the session.
	reopened := sqlite.NewBackend()
	require.NoError(t, reopened.Attach(types.Config{Backend: types.BackendSQLite, DataDir: te.dataDir}))
	defer reopened.Detach()
	runs, err := reopened.ListRuns(snap.SessionID)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestInit(t *testing.T) {
	te := testEnv{configDir: filepath.Join(t.TempDir(), "cfg"), dataDir: t.TempDir()}

	out := te.mustRun(t, "--log-level", "error", "init", "--backend", types.BackendSQLite)
	assert.Contains(t, out, "Wrote "+paths.ConfigFile(te.configDir))
	assert.Contains(t, out, "Backend sqlite")

	cfg, err := config.Load(te.configDir)
	require.NoError(t, err)
	assert.Equal(t, types.BackendSQLite, cfg.Backend)
	for _, f := range []string{"sessions.jsonl", "runs.jsonl"} {
		_, err := os.Stat(filepath.Join(te.dataDir, f))
		assert.NoError(t, err, f)
	}

	out = te.mustRun(t, "--log-level", "error", "init")
	assert.Contains(t, out, "Kept existing")
}

func TestInitRejectsUnknownBackend(t *testing.T) {
	te := testEnv{configDir: t.TempDir(), dataDir: t.TempDir()}
	_, err := te.run(t, "init", "--backend", "postgres")
	require.ErrorIs(t, err, types.ErrBackendUnknown)
	_, statErr := os.Stat(paths.ConfigFile(te.configDir))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExitCode(t *testing.T) {
	base := errors.New("boom")
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(base))
	assert.Equal(t, exitSysError, exitCode(sysErr(base)))
	assert.Equal(t, exitSysError, exitCode(fmt.Errorf("wrapped: %w", sysErr(base))))
	assert.Nil(t, sysErr(nil))
}

func TestSortedAgents(t *testing.T) {
	alloc := types.Allocation{"Agent 10": nil, "Agent 2": nil, "Agent 1": nil}
	assert.Equal(t, []string{"Agent 1", "Agent 2", "Agent 10"}, sortedAgents(alloc))
}
