// pkg/backup/backup.go - the generic backup executor.
//
// Features are data: a name, registry keys, file globs, and optionally a
// custom collector. The executor is the only logic. It runs features
// sequentially, treats anything missing as a skip, and accumulates
// per-item outcomes so one broken feature never aborts the run.

package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/windowsadmins/melody/pkg/command"
	"github.com/windowsadmins/melody/pkg/config"
	"github.com/windowsadmins/melody/pkg/logging"
	"github.com/windowsadmins/melody/pkg/regfile"
	"github.com/windowsadmins/melody/pkg/utils"
)

// Outcome records one attempted item within a feature.
type Outcome struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Detail  string `json:"detail,omitempty"`
}

// Result is the aggregated outcome of one feature.
type Result struct {
	Feature    string    `json:"feature"`
	Success    bool      `json:"success"`
	BackupPath string    `json:"backup_path"`
	Items      []Outcome `json:"items,omitempty"`
	Errors     []string  `json:"errors,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Env is what a custom collector gets to work with: the run configuration,
// the command runner, and the feature's backup directory.
type Env struct {
	Cfg    *config.Configuration
	Runner command.Runner
	Dir    string
}

// CollectorFunc gathers feature-specific state beyond registry keys and
// file globs. It returns per-item outcomes and non-fatal error strings.
type CollectorFunc func(ctx context.Context, env *Env) ([]Outcome, []string)

// Feature is one declarative backup entry.
type Feature struct {
	Name         string
	Description  string
	RegistryKeys []string
	FileGlobs    []string
	Collect      CollectorFunc
}

// Executor runs a set of features against one configuration.
type Executor struct {
	cfg      *config.Configuration
	runner   command.Runner
	features []Feature
}

// NewExecutor builds an executor. The configuration is treated as
// immutable from here on.
func NewExecutor(cfg *config.Configuration, runner command.Runner, features []Feature) *Executor {
	return &Executor{cfg: cfg, runner: runner, features: features}
}

// Run executes every feature sequentially into a fresh timestamped backup
// directory and returns its path with the per-feature results. Feature
// failures are recorded, not returned; the error covers only being unable
// to create the backup directory itself.
func (e *Executor) Run(ctx context.Context) (string, []Result, error) {
	stamp := time.Now().Format("2006-01-02-150405")
	backupPath := filepath.Join(e.cfg.MachineBackupDir(), stamp)
	if err := os.MkdirAll(backupPath, 0755); err != nil {
		return "", nil, fmt.Errorf("creating backup directory %s: %w", backupPath, err)
	}

	logging.Info("Backup run started", "path", backupPath, "features", len(e.features))

	var results []Result
	for _, feature := range e.features {
		if err := ctx.Err(); err != nil {
			return backupPath, results, err
		}
		if e.cfg.FeatureExcluded(feature.Name) {
			logging.Info("Feature excluded by configuration", "feature", feature.Name)
			continue
		}
		result := e.runFeature(ctx, feature, backupPath)
		results = append(results, result)
	}

	e.pruneOldBackups()
	return backupPath, results, nil
}

// runFeature executes one feature: registry exports, file copies, then the
// custom collector, with every outcome and error accumulated into the
// feature's Result and written to its feature.json snapshot.
func (e *Executor) runFeature(ctx context.Context, feature Feature, backupPath string) Result {
	result := Result{
		Feature:    feature.Name,
		BackupPath: filepath.Join(backupPath, feature.Name),
		Timestamp:  time.Now(),
	}
	logging.Info("Backing up feature", "feature", feature.Name)

	if err := os.MkdirAll(result.BackupPath, 0755); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("creating %s: %v", result.BackupPath, err))
		return result
	}

	items, errs := e.exportRegistryKeys(feature, result.BackupPath)
	result.Items = append(result.Items, items...)
	result.Errors = append(result.Errors, errs...)

	items, errs = e.copyFileGlobs(feature, result.BackupPath)
	result.Items = append(result.Items, items...)
	result.Errors = append(result.Errors, errs...)

	if feature.Collect != nil {
		items, errs = feature.Collect(ctx, &Env{Cfg: e.cfg, Runner: e.runner, Dir: result.BackupPath})
		result.Items = append(result.Items, items...)
		result.Errors = append(result.Errors, errs...)
	}

	result.Success = len(result.Errors) == 0
	if err := WriteSnapshot(result.BackupPath, "feature.json", result); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("writing feature snapshot: %v", err))
		result.Success = false
	}

	if result.Success {
		logging.Info("Feature backed up", "feature", feature.Name, "items", len(result.Items))
	} else {
		logging.Warn("Feature backed up with errors",
			"feature", feature.Name,
			"items", len(result.Items),
			"errors", len(result.Errors),
		)
	}
	return result
}

// exportRegistryKeys writes one .reg file per configured key under
// registry\. A missing key is a skip, not an error.
func (e *Executor) exportRegistryKeys(feature Feature, featureDir string) ([]Outcome, []string) {
	if len(feature.RegistryKeys) == 0 {
		return nil, nil
	}

	regDir := filepath.Join(featureDir, "registry")
	if err := os.MkdirAll(regDir, 0755); err != nil {
		return nil, []string{fmt.Sprintf("creating %s: %v", regDir, err)}
	}

	var items []Outcome
	var errs []string
	for i, keyPath := range feature.RegistryKeys {
		keys, err := regfile.ExportKey(keyPath)
		if err != nil {
			if regfile.IsNotExist(err) {
				logging.Debug("Registry key absent, skipping", "key", keyPath)
				items = append(items, Outcome{Name: keyPath, Success: true, Detail: "not present, skipped"})
				continue
			}
			errs = append(errs, fmt.Sprintf("exporting %s: %v", keyPath, err))
			items = append(items, Outcome{Name: keyPath, Success: false, Detail: err.Error()})
			continue
		}

		fileName := fmt.Sprintf("%02d-%s.reg", i, utils.SanitizeFileName(keyPath))
		f, err := os.Create(filepath.Join(regDir, fileName))
		if err != nil {
			errs = append(errs, fmt.Sprintf("creating %s: %v", fileName, err))
			items = append(items, Outcome{Name: keyPath, Success: false, Detail: err.Error()})
			continue
		}
		err = regfile.WriteReg(f, keys)
		f.Close()
		if err != nil {
			errs = append(errs, fmt.Sprintf("writing %s: %v", fileName, err))
			items = append(items, Outcome{Name: keyPath, Success: false, Detail: err.Error()})
			continue
		}
		items = append(items, Outcome{Name: keyPath, Success: true, Detail: fileName})
	}
	return items, errs
}

// pruneOldBackups removes the oldest timestamped backup directories beyond
// the configured retention count. Best effort.
func (e *Executor) pruneOldBackups() {
	machineDir := e.cfg.MachineBackupDir()
	entries, err := os.ReadDir(machineDir)
	if err != nil {
		return
	}
	var stamps []string
	for _, entry := range entries {
		if entry.IsDir() && len(entry.Name()) == 17 && strings.Count(entry.Name(), "-") == 3 {
			stamps = append(stamps, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(stamps)))
	for i := e.cfg.RetainedBackups; i < len(stamps); i++ {
		old := filepath.Join(machineDir, stamps[i])
		logging.Info("Pruning old backup", "path", old)
		os.RemoveAll(old)
	}
}
