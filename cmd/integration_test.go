package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/qdata-clean/internal/cleaning"
	"github.com/KaramelBytes/qdata-clean/internal/metrics"
	"github.com/KaramelBytes/qdata-clean/internal/parser"
	"github.com/KaramelBytes/qdata-clean/internal/workspace"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores defaults on every command so Changed state does not
// leak between invocations in one process.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execCmd(args ...string) error {
	resetFlags(rootCmd)
	cfg = nil
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) {
	t.Helper()
	if err := execCmd(args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

// isolate points HOME and the working directory at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(home))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func loadWorkspace(t *testing.T, home string) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.Load(filepath.Join(home, ".qdata", "workspace"))
	require.NoError(t, err)
	return ws
}

func TestCLI_UploadCleanExport(t *testing.T) {
	home := isolate(t)
	src := writeFile(t, home, "sensors.csv", "t,v,label\n1,10,a\n,,\n3,30,c\n")

	runCmd(t, "upload", "-q", src)
	ws := loadWorkspace(t, home)
	require.Equal(t, 1, ws.Len())
	active, ok := ws.Active()
	require.True(t, ok)
	assert.Equal(t, "sensors.csv", active.Name)
	assert.Equal(t, 3, active.Rows())

	runCmd(t, "profile")
	runCmd(t, "stats", "--column", "v")
	runCmd(t, "chart", "--x", "t", "--y", "v", "--limit", "2")

	runCmd(t, "clean", "--dry-run", "--options", "remove_nulls")
	ws = loadWorkspace(t, home)
	active, _ = ws.Active()
	assert.False(t, active.Processed, "dry run does not save")

	runCmd(t, "clean", "--options", "remove_nulls,normalize_numbers")
	ws = loadWorkspace(t, home)
	active, _ = ws.Active()
	assert.True(t, active.Processed)
	assert.Equal(t, []cleaning.Option{cleaning.RemoveNulls, cleaning.NormalizeNumbers}, active.Options)
	assert.Equal(t, 2, active.Rows())

	out := filepath.Join(home, "out", "clean.json")
	runCmd(t, "export", "--format", "json", "--metadata=false", "-o", out)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	back, err := parser.Parse("clean.json", b)
	require.NoError(t, err)
	assert.True(t, back.Equal(active.Table))
	assert.Equal(t, "1.0000", back.Row(1).Get("v").Text())

	meta := filepath.Join(home, "meta.json")
	runCmd(t, "export", "sensors.csv", "--format", "json", "--statistics", "-o", meta)
	b, err = os.ReadFile(meta)
	require.NoError(t, err)
	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &env))
	assert.Contains(t, env, "metadata")
	assert.Contains(t, env, "statistics")
	assert.Contains(t, env, "data")
}

func TestCLI_OneShotCommandsRecordNoMetrics(t *testing.T) {
	home := isolate(t)
	src := writeFile(t, home, "m.csv", "t,v\n1,10\n2,\n3,30\n")
	before := []int{
		testutil.CollectAndCount(metrics.UploadsTotal),
		testutil.CollectAndCount(metrics.CleaningRunsTotal),
		testutil.CollectAndCount(metrics.ExportsTotal),
	}

	runCmd(t, "upload", "-q", src)
	runCmd(t, "clean", "--options", "remove_nulls")
	runCmd(t, "export", "--format", "csv", "-o", filepath.Join(home, "m_out.csv"))

	after := []int{
		testutil.CollectAndCount(metrics.UploadsTotal),
		testutil.CollectAndCount(metrics.CleaningRunsTotal),
		testutil.CollectAndCount(metrics.ExportsTotal),
	}
	assert.Equal(t, before, after)
}

func TestCLI_UploadIsAllOrNothing(t *testing.T) {
	home := isolate(t)
	good := writeFile(t, home, "good.csv", "a\n1\n")
	bad := writeFile(t, home, "bad.json", "[1,2]")

	err := execCmd("upload", "-q", good, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrParse)
	_, statErr := os.Stat(filepath.Join(home, ".qdata", "workspace", "workspace.json"))
	assert.True(t, os.IsNotExist(statErr))

	err = execCmd("upload", filepath.Join(home, "*.txt"))
	assert.Error(t, err)
}

func TestCLI_UseAndRemove(t *testing.T) {
	home := isolate(t)
	writeFile(t, home, "a.csv", "x\n1\n")
	writeFile(t, home, "b.json", `[{"x":2},{"x":3}]`)

	runCmd(t, "upload", "-q", filepath.Join(home, "*.csv"), filepath.Join(home, "*.json"))
	runCmd(t, "list")
	runCmd(t, "use", "b.json")
	ws := loadWorkspace(t, home)
	active, ok := ws.Active()
	require.True(t, ok)
	assert.Equal(t, "b.json", active.Name)

	runCmd(t, "remove", "b.json")
	ws = loadWorkspace(t, home)
	assert.Equal(t, 1, ws.Len())
	_, ok = ws.Active()
	assert.False(t, ok)

	err := execCmd("profile")
	assert.Error(t, err, "no active upload")
	err = execCmd("use", "missing")
	assert.ErrorIs(t, err, workspace.ErrNotFound)
}

func TestCLI_CleanRejectsUnknownOption(t *testing.T) {
	home := isolate(t)
	writeFile(t, home, "a.csv", "x\n1\n")
	runCmd(t, "upload", "-q", filepath.Join(home, "a.csv"))

	err := execCmd("clean", "--options", "sparkle")
	assert.ErrorIs(t, err, cleaning.ErrUnknownOption)
}

func TestCLI_AnalyzeWritesReport(t *testing.T) {
	home := isolate(t)
	src := writeFile(t, home, "m.csv", "t,v\n1,10\n2,\n3,30\n")
	out := filepath.Join(home, "report.md")

	runCmd(t, "analyze", src, "--clean", "remove_nulls", "-o", out)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[DATASET SUMMARY]")
	assert.Contains(t, string(b), "m.csv")
}

func TestCLI_ConfigSet(t *testing.T) {
	home := isolate(t)
	runCmd(t, "config", "set", "outlier_method", "truncate")
	runCmd(t, "config", "show")
	b, err := os.ReadFile(filepath.Join(home, ".qdata", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "outlier_method: truncate")

	assert.Error(t, execCmd("config", "set", "export_format", "pdf"))
	assert.Error(t, execCmd("config", "set", "chart_max_points", "many"))
	assert.Error(t, execCmd("config", "set", "nope", "1"))
}
