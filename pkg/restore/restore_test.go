package restore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/melody/pkg/backup"
	"github.com/windowsadmins/melody/pkg/command"
	"github.com/windowsadmins/melody/pkg/config"
)

type fakeRunner struct {
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (command.Result, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return command.Result{}, f.err
}

func (f *fakeRunner) RunPowerShell(ctx context.Context, script string) (command.Result, error) {
	return command.Result{}, f.err
}

func testConfig(t *testing.T) *config.Configuration {
	t.Helper()
	return &config.Configuration{
		BackupRoot:      t.TempDir(),
		MachineName:     "TESTBOX",
		RetainedBackups: 5,
	}
}

func TestLatestBackup(t *testing.T) {
	cfg := testConfig(t)
	machineDir := cfg.MachineBackupDir()
	for _, stamp := range []string{"2026-08-24-090000", "2026-08-25-120000", "not-a-backup"} {
		require.NoError(t, os.MkdirAll(filepath.Join(machineDir, stamp), 0755))
	}

	got, err := NewExecutor(cfg, &fakeRunner{}).LatestBackup()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(machineDir, "2026-08-25-120000"), got)
}

func TestLatestBackupNoneFound(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.MachineBackupDir(), 0755))
	_, err := NewExecutor(cfg, &fakeRunner{}).LatestBackup()
	assert.Error(t, err)
}

func TestRunImportsRegistryFiles(t *testing.T) {
	cfg := testConfig(t)
	backupPath := t.TempDir()
	regDir := filepath.Join(backupPath, "mouse", "registry")
	require.NoError(t, os.MkdirAll(regDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(regDir, "00-mouse.reg"), []byte("x"), 0644))

	runner := &fakeRunner{}
	results, err := NewExecutor(cfg, runner).Run(context.Background(), backupPath, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, results[0].Success)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, "reg.exe", runner.calls[0][0])
	assert.Equal(t, "import", runner.calls[0][1])
}

func TestRunRecordsImportFailures(t *testing.T) {
	cfg := testConfig(t)
	backupPath := t.TempDir()
	regDir := filepath.Join(backupPath, "mouse", "registry")
	require.NoError(t, os.MkdirAll(regDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(regDir, "00-mouse.reg"), []byte("x"), 0644))

	runner := &fakeRunner{err: errors.New("access denied")}
	results, err := NewExecutor(cfg, runner).Run(context.Background(), backupPath, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.NotEmpty(t, results[0].Errors)
}

func TestRunUnknownFeature(t *testing.T) {
	cfg := testConfig(t)
	backupPath := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(backupPath, "mouse"), 0755))

	_, err := NewExecutor(cfg, &fakeRunner{}).Run(context.Background(), backupPath, []string{"nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestRunRespectsExclusions(t *testing.T) {
	cfg := testConfig(t)
	cfg.ExcludeFeatures = []string{"games"}
	backupPath := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(backupPath, "games"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(backupPath, "mouse"), 0755))

	results, err := NewExecutor(cfg, &fakeRunner{}).Run(context.Background(), backupPath, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "mouse", results[0].Feature)
}

func TestRestoreFilesCopiesBack(t *testing.T) {
	featureDir := t.TempDir()
	destDir := t.TempDir()
	destPath := filepath.Join(destDir, "config")

	filesDir := filepath.Join(featureDir, "files")
	require.NoError(t, os.MkdirAll(filepath.Join(filesDir, "stored"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(filesDir, "stored", "config"), []byte("Host example\n"), 0644))

	entries := []backup.FileEntry{{
		Source: destPath,
		Stored: filepath.Join("stored", "config"),
	}}
	require.NoError(t, backup.WriteSnapshot(featureDir, backup.FilesManifest, entries))

	items, errs := restoreFiles(featureDir)
	assert.Empty(t, errs)
	require.Len(t, items, 1)
	assert.True(t, items[0].Success)

	data, err := os.ReadFile(destPath)
	require.NoError(t, err)
	assert.Equal(t, "Host example\n", string(data))
}

func TestRestoreFilesMissingStoredFile(t *testing.T) {
	featureDir := t.TempDir()
	entries := []backup.FileEntry{{
		Source: filepath.Join(t.TempDir(), "dest"),
		Stored: "gone",
	}}
	require.NoError(t, backup.WriteSnapshot(featureDir, backup.FilesManifest, entries))

	_, errs := restoreFiles(featureDir)
	assert.NotEmpty(t, errs)
}

func TestSelectFeatures(t *testing.T) {
	available := []string{"games", "mouse", "ssh"}

	selected, unknown := selectFeatures(available, nil)
	assert.Equal(t, available, selected)
	assert.Empty(t, unknown)

	selected, unknown = selectFeatures(available, []string{"SSH", " mouse ", "nope"})
	assert.Equal(t, []string{"ssh", "mouse"}, selected)
	assert.Equal(t, []string{"nope"}, unknown)
}
