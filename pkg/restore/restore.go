// pkg/restore/restore.go - the restore executor.
//
// Restore mirrors backup: for each feature directory it imports the saved
// .reg exports with reg.exe and copies stored files back to their recorded
// sources. Snapshots (the *.json documents) are informational and are not
// applied; they exist for the operator to consult.

package restore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/windowsadmins/melody/pkg/backup"
	"github.com/windowsadmins/melody/pkg/command"
	"github.com/windowsadmins/melody/pkg/config"
	"github.com/windowsadmins/melody/pkg/logging"
)

// Executor applies a stored backup back onto the machine.
type Executor struct {
	cfg    *config.Configuration
	runner command.Runner
}

// NewExecutor builds a restore executor.
func NewExecutor(cfg *config.Configuration, runner command.Runner) *Executor {
	return &Executor{cfg: cfg, runner: runner}
}

// LatestBackup returns the newest timestamped backup directory under the
// machine's backup dir.
func (e *Executor) LatestBackup() (string, error) {
	machineDir := e.cfg.MachineBackupDir()
	entries, err := os.ReadDir(machineDir)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", machineDir, err)
	}
	var stamps []string
	for _, entry := range entries {
		if entry.IsDir() && len(entry.Name()) == 17 && strings.Count(entry.Name(), "-") == 3 {
			stamps = append(stamps, entry.Name())
		}
	}
	if len(stamps) == 0 {
		return "", fmt.Errorf("no backups found under %s", machineDir)
	}
	sort.Strings(stamps)
	return filepath.Join(machineDir, stamps[len(stamps)-1]), nil
}

// Features lists the feature directories present in a backup.
func Features(backupPath string) ([]string, error) {
	entries, err := os.ReadDir(backupPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", backupPath, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Run restores the named features from backupPath. An empty name list
// restores every feature the backup contains. Feature failures accumulate
// into results rather than aborting the run.
func (e *Executor) Run(ctx context.Context, backupPath string, names []string) ([]backup.Result, error) {
	available, err := Features(backupPath)
	if err != nil {
		return nil, err
	}
	selected, unknown := selectFeatures(available, names)
	if len(unknown) > 0 {
		return nil, fmt.Errorf("backup has no feature(s): %s", strings.Join(unknown, ", "))
	}

	logging.Info("Restore run started", "path", backupPath, "features", len(selected))

	var results []backup.Result
	for _, name := range selected {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if e.cfg.FeatureExcluded(name) {
			logging.Info("Feature excluded by configuration", "feature", name)
			continue
		}
		results = append(results, e.restoreFeature(ctx, name, filepath.Join(backupPath, name)))
	}
	return results, nil
}

func selectFeatures(available, names []string) (selected, unknown []string) {
	if len(names) == 0 {
		return available, nil
	}
	have := make(map[string]bool, len(available))
	for _, name := range available {
		have[name] = true
	}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if have[name] {
			selected = append(selected, name)
		} else {
			unknown = append(unknown, name)
		}
	}
	return selected, unknown
}

// restoreFeature imports the feature's .reg exports and copies its stored
// files back to their recorded source paths.
func (e *Executor) restoreFeature(ctx context.Context, name, featureDir string) backup.Result {
	result := backup.Result{
		Feature:    name,
		BackupPath: featureDir,
	}
	logging.Info("Restoring feature", "feature", name)

	items, errs := e.importRegistryFiles(ctx, featureDir)
	result.Items = append(result.Items, items...)
	result.Errors = append(result.Errors, errs...)

	items, errs = restoreFiles(featureDir)
	result.Items = append(result.Items, items...)
	result.Errors = append(result.Errors, errs...)

	result.Success = len(result.Errors) == 0
	if result.Success {
		logging.Info("Feature restored", "feature", name, "items", len(result.Items))
	} else {
		logging.Warn("Feature restored with errors",
			"feature", name,
			"items", len(result.Items),
			"errors", len(result.Errors),
		)
	}
	return result
}

// importRegistryFiles feeds every stored .reg export through reg.exe.
// reg.exe understands the exact format the backup wrote, including the
// UTF-16 encoding, so there is nothing to re-parse here.
func (e *Executor) importRegistryFiles(ctx context.Context, featureDir string) ([]backup.Outcome, []string) {
	regDir := filepath.Join(featureDir, "registry")
	paths, err := filepath.Glob(filepath.Join(regDir, "*.reg"))
	if err != nil || len(paths) == 0 {
		return nil, nil
	}
	sort.Strings(paths)

	var items []backup.Outcome
	var errs []string
	for _, path := range paths {
		name := filepath.Base(path)
		res, err := e.runner.Run(ctx, "reg.exe", "import", path)
		if err != nil {
			detail := err.Error()
			if res.Stderr != "" {
				detail = strings.TrimSpace(res.Stderr)
			}
			errs = append(errs, fmt.Sprintf("importing %s: %s", name, detail))
			items = append(items, backup.Outcome{Name: name, Success: false, Detail: detail})
			continue
		}
		items = append(items, backup.Outcome{Name: name, Success: true, Detail: "imported"})
	}
	return items, errs
}

// restoreFiles copies each entry in files.json from the stored layout back
// to its original source path. Existing files are overwritten; that is the
// point of a restore.
func restoreFiles(featureDir string) ([]backup.Outcome, []string) {
	entries, err := backup.ReadFilesManifest(featureDir)
	if err != nil {
		return nil, []string{err.Error()}
	}
	if len(entries) == 0 {
		return nil, nil
	}

	filesDir := filepath.Join(featureDir, "files")
	var items []backup.Outcome
	var errs []string
	restored := 0
	for _, entry := range entries {
		stored := filepath.Join(filesDir, entry.Stored)
		if err := copyBack(stored, entry.Source); err != nil {
			errs = append(errs, fmt.Sprintf("restoring %s: %v", entry.Source, err))
			items = append(items, backup.Outcome{Name: entry.Source, Success: false, Detail: err.Error()})
			continue
		}
		restored++
	}
	items = append(items, backup.Outcome{
		Name:    "stored files",
		Success: len(errs) == 0,
		Detail:  fmt.Sprintf("%d of %d file(s) restored", restored, len(entries)),
	})
	return items, errs
}

func copyBack(stored, dest string) error {
	data, err := os.ReadFile(stored)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0644)
}
