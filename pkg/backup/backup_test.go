package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/melody/pkg/command"
	"github.com/windowsadmins/melody/pkg/config"
)

// fakeRunner satisfies command.Runner without shelling out.
type fakeRunner struct {
	stdout string
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (command.Result, error) {
	return command.Result{Stdout: f.stdout}, f.err
}

func (f *fakeRunner) RunPowerShell(ctx context.Context, script string) (command.Result, error) {
	return command.Result{Stdout: f.stdout}, f.err
}

func testConfig(t *testing.T) *config.Configuration {
	t.Helper()
	return &config.Configuration{
		BackupRoot:      t.TempDir(),
		MachineName:     "TESTBOX",
		RetainedBackups: 5,
	}
}

func TestRunCopiesFilesAndWritesSnapshots(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "config"), []byte("Host example\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "id_ed25519.pub"), []byte("ssh-ed25519 AAAA\n"), 0644))

	cfg := testConfig(t)
	features := []Feature{{
		Name: "ssh",
		FileGlobs: []string{
			filepath.Join(srcDir, "config"),
			filepath.Join(srcDir, "*.pub"),
		},
	}}

	executor := NewExecutor(cfg, &fakeRunner{}, features)
	backupPath, results, err := executor.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.True(t, result.Success)
	assert.Equal(t, "ssh", result.Feature)
	assert.Empty(t, result.Errors)

	featureDir := filepath.Join(backupPath, "ssh")
	entries, err := ReadFilesManifest(featureDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		copied, err := os.ReadFile(filepath.Join(featureDir, "files", entry.Stored))
		require.NoError(t, err)
		original, err := os.ReadFile(entry.Source)
		require.NoError(t, err)
		assert.Equal(t, original, copied)
	}

	_, err = os.Stat(filepath.Join(featureDir, "feature.json"))
	assert.NoError(t, err)
}

func TestRunGlobWithoutMatchesIsSkip(t *testing.T) {
	cfg := testConfig(t)
	features := []Feature{{
		Name:      "terminal",
		FileGlobs: []string{filepath.Join(t.TempDir(), "missing", "*.json")},
	}}

	_, results, err := NewExecutor(cfg, &fakeRunner{}, features).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.True(t, result.Success)
	require.Len(t, result.Items, 1)
	assert.Contains(t, result.Items[0].Detail, "skipped")
}

func TestRunUnsetEnvironmentVariableIsSkip(t *testing.T) {
	cfg := testConfig(t)
	features := []Feature{{
		Name:      "outlook",
		FileGlobs: []string{`%MELODY_TEST_UNSET%\Signatures`},
	}}

	_, results, err := NewExecutor(cfg, &fakeRunner{}, features).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Items, 1)
	assert.True(t, results[0].Success)
	assert.Contains(t, results[0].Items[0].Detail, "environment variable unset")
}

func TestRunExcludedFeatureSkipped(t *testing.T) {
	cfg := testConfig(t)
	cfg.ExcludeFeatures = []string{"games"}
	features := []Feature{
		{Name: "games"},
		{Name: "mouse"},
	}

	_, results, err := NewExecutor(cfg, &fakeRunner{}, features).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "mouse", results[0].Feature)
}

func TestRunCollectorErrorsFailFeatureButNotRun(t *testing.T) {
	cfg := testConfig(t)
	features := []Feature{
		{
			Name: "broken",
			Collect: func(ctx context.Context, env *Env) ([]Outcome, []string) {
				return []Outcome{{Name: "thing", Success: false}}, []string{"thing exploded"}
			},
		},
		{
			Name: "fine",
			Collect: func(ctx context.Context, env *Env) ([]Outcome, []string) {
				require.NoError(t, WriteSnapshot(env.Dir, "fine.json", map[string]string{"ok": "yes"}))
				return []Outcome{{Name: "thing", Success: true}}, nil
			},
		},
	}

	backupPath, results, err := NewExecutor(cfg, &fakeRunner{}, features).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Errors, "thing exploded")
	assert.True(t, results[1].Success)

	_, err = os.Stat(filepath.Join(backupPath, "fine", "fine.json"))
	assert.NoError(t, err)
}

func TestRunPrunesOldBackups(t *testing.T) {
	cfg := testConfig(t)
	cfg.RetainedBackups = 2
	machineDir := cfg.MachineBackupDir()

	for i := 0; i < 4; i++ {
		old := filepath.Join(machineDir, fmt.Sprintf("2026-01-0%d-120000", i+1))
		require.NoError(t, os.MkdirAll(old, 0755))
	}

	_, _, err := NewExecutor(cfg, &fakeRunner{}, []Feature{{Name: "mouse"}}).Run(context.Background())
	require.NoError(t, err)

	entries, err := os.ReadDir(machineDir)
	require.NoError(t, err)
	var stamps []string
	for _, entry := range entries {
		stamps = append(stamps, entry.Name())
	}
	// Four stale plus the fresh one, pruned down to the retention count.
	assert.Len(t, stamps, 2)
}

func TestRunHonorsContextCancellation(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, results, err := NewExecutor(cfg, &fakeRunner{}, []Feature{{Name: "mouse"}}).Run(ctx)
	assert.Error(t, err)
	assert.Empty(t, results)
}

func TestWriteSnapshotEndsWithNewline(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteSnapshot(dir, "x.json", []int{1, 2}))
	data, err := os.ReadFile(filepath.Join(dir, "x.json"))
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), data[len(data)-1])
}

func TestReadFilesManifestMissingIsNil(t *testing.T) {
	entries, err := ReadFilesManifest(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}
