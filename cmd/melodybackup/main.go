// cmd/melodybackup/main.go - back up Windows settings per feature.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/windowsadmins/melody/pkg/backup"
	"github.com/windowsadmins/melody/pkg/command"
	"github.com/windowsadmins/melody/pkg/config"
	"github.com/windowsadmins/melody/pkg/features"
	"github.com/windowsadmins/melody/pkg/history"
	"github.com/windowsadmins/melody/pkg/logging"
	"github.com/windowsadmins/melody/pkg/report"
	"github.com/windowsadmins/melody/pkg/version"
)

var (
	showConfig   bool
	listFeatures bool
	checkOnly    bool
	showVersion  bool
	featureNames []string
	machineName  string
	backupRoot   string
	verbosity    int
)

func main() {
	pflag.BoolVar(&showConfig, "show-config", false, "Display the resolved configuration and exit")
	pflag.BoolVar(&listFeatures, "list-features", false, "List the available backup features and exit")
	pflag.BoolVar(&checkOnly, "checkonly", false, "Report what would be backed up without writing anything")
	pflag.BoolVar(&showVersion, "version", false, "Print the version and exit")
	pflag.StringArrayVar(&featureNames, "feature", nil, "Back up only the named feature (repeatable)")
	pflag.StringVar(&machineName, "machine-name", "", "Override the configured machine name")
	pflag.StringVar(&backupRoot, "backup-root", "", "Override the configured backup root directory")
	pflag.CountVarP(&verbosity, "verbose", "v", "Increase verbosity (repeat for more)")
	pflag.Parse()

	if showVersion {
		version.Print()
		os.Exit(0)
	}

	logger := logging.New(verbosity > 0)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}
	if machineName != "" {
		cfg.MachineName = machineName
	}
	if backupRoot != "" {
		cfg.BackupRoot = backupRoot
	}
	if verbosity > 1 {
		cfg.LogLevel = "DEBUG"
	}

	if showConfig {
		printConfig(cfg)
		os.Exit(0)
	}

	selected, unknown := features.Select(featureNames)
	if len(unknown) > 0 {
		logger.Fatal("Unknown feature(s): %s (use --list-features)", strings.Join(unknown, ", "))
	}

	if listFeatures {
		printFeatures(cfg, selected)
		os.Exit(0)
	}

	opts := logging.DefaultOptions()
	opts.Component = "melodybackup"
	opts.Level = logging.ParseLevel(cfg.LogLevel)
	opts.Console = verbosity > 0
	if err := logging.Init(opts); err != nil {
		logger.Fatal("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	if checkOnly {
		printFeatures(cfg, selected)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now()
	runner := command.NewRunner(time.Duration(cfg.PackageManagerTimeoutSeconds) * time.Second)
	executor := backup.NewExecutor(cfg, runner, selected)

	backupPath, results, err := executor.Run(ctx)
	if err != nil {
		logger.Fatal("Backup run aborted: %v", err)
	}

	summary, err := report.Write(backupPath, results)
	if err != nil {
		logger.Error("Failed to write backup summary: %v", err)
	}

	recordHistory("backup", backupPath, startedAt, results, logger)
	printResults(logger, results)

	if summary != nil && summary.Failed > 0 {
		logger.Error("Backup finished with %d of %d feature(s) failing", summary.Failed, len(results))
		os.Exit(1)
	}
	logger.Success("Backup complete: %d feature(s) written to %s", len(results), backupPath)
}

func recordHistory(kind, backupPath string, startedAt time.Time, results []backup.Result, logger *logging.Logger) {
	db, err := history.Open(history.DefaultPath)
	if err != nil {
		logger.Warning("Run history unavailable: %v", err)
		return
	}
	defer db.Close()
	if _, err := db.RecordSession(kind, backupPath, startedAt, results); err != nil {
		logger.Warning("Could not record run history: %v", err)
	}
}

func printConfig(cfg *config.Configuration) {
	fmt.Printf("BackupRoot:                   %s\n", cfg.BackupRoot)
	fmt.Printf("MachineName:                  %s\n", cfg.MachineName)
	fmt.Printf("SharedBackupPath:             %s\n", cfg.SharedBackupPath)
	fmt.Printf("LogLevel:                     %s\n", cfg.LogLevel)
	fmt.Printf("RetainedBackups:              %d\n", cfg.RetainedBackups)
	fmt.Printf("SkipPackageManagers:          %t\n", cfg.SkipPackageManagers)
	fmt.Printf("PackageManagerTimeoutSeconds: %d\n", cfg.PackageManagerTimeoutSeconds)
	fmt.Printf("ExcludeFeatures:              %s\n", strings.Join(cfg.ExcludeFeatures, ", "))
	fmt.Printf("SteamLibraryPaths:            %s\n", strings.Join(cfg.SteamLibraryPaths, ", "))
}

func printFeatures(cfg *config.Configuration, selected []backup.Feature) {
	for _, feature := range selected {
		marker := " "
		if cfg.FeatureExcluded(feature.Name) {
			marker = "x"
		}
		fmt.Printf("[%s] %-14s %s\n", marker, feature.Name, feature.Description)
	}
}

func printResults(logger *logging.Logger, results []backup.Result) {
	for _, result := range results {
		if result.Success {
			logger.Info("%-14s ok (%d item(s))", result.Feature, len(result.Items))
		} else {
			logger.Warning("%-14s failed: %s", result.Feature, strings.Join(result.Errors, "; "))
		}
	}
}
