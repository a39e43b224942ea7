// cmd/melodyrestore/main.go - restore backed-up Windows settings.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/pflag"

	"github.com/windowsadmins/melody/pkg/backup"
	"github.com/windowsadmins/melody/pkg/command"
	"github.com/windowsadmins/melody/pkg/config"
	"github.com/windowsadmins/melody/pkg/history"
	"github.com/windowsadmins/melody/pkg/logging"
	"github.com/windowsadmins/melody/pkg/restore"
	"github.com/windowsadmins/melody/pkg/version"
)

var (
	backupPath   string
	useLatest    bool
	featureNames []string
	force        bool
	showVersion  bool
	verbosity    int
)

func main() {
	pflag.StringVar(&backupPath, "backup-path", "", "Backup directory to restore from")
	pflag.BoolVar(&useLatest, "latest", false, "Restore from the newest backup for this machine")
	pflag.StringArrayVar(&featureNames, "feature", nil, "Restore only the named feature (repeatable)")
	pflag.BoolVar(&force, "force", false, "Skip the confirmation prompt")
	pflag.BoolVar(&showVersion, "version", false, "Print the version and exit")
	pflag.CountVarP(&verbosity, "verbose", "v", "Increase verbosity (repeat for more)")
	pflag.Parse()

	if showVersion {
		version.Print()
		os.Exit(0)
	}

	logger := logging.New(verbosity > 0)

	if backupPath == "" && !useLatest {
		logger.Fatal("Either --backup-path or --latest is required")
	}
	if backupPath != "" && useLatest {
		logger.Fatal("--backup-path and --latest are mutually exclusive")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}
	if verbosity > 1 {
		cfg.LogLevel = "DEBUG"
	}

	opts := logging.DefaultOptions()
	opts.Component = "melodyrestore"
	opts.Level = logging.ParseLevel(cfg.LogLevel)
	opts.Console = verbosity > 0
	if err := logging.Init(opts); err != nil {
		logger.Fatal("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	runner := command.NewRunner(time.Duration(cfg.PackageManagerTimeoutSeconds) * time.Second)
	executor := restore.NewExecutor(cfg, runner)

	if useLatest {
		backupPath, err = executor.LatestBackup()
		if err != nil {
			logger.Fatal("Could not locate the latest backup: %v", err)
		}
		logger.Info("Using latest backup: %s", backupPath)
	}

	available, err := restore.Features(backupPath)
	if err != nil {
		logger.Fatal("Could not read backup: %v", err)
	}
	scope := "all features"
	if len(featureNames) > 0 {
		scope = strings.Join(featureNames, ", ")
	}

	if !force {
		confirmed := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Restore %s from %s? Current settings will be overwritten.", scope, backupPath),
		}
		if err := survey.AskOne(prompt, &confirmed); err != nil || !confirmed {
			logger.Info("Restore cancelled")
			os.Exit(0)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now()
	results, err := executor.Run(ctx, backupPath, featureNames)
	if err != nil {
		logger.Fatal("Restore run aborted: %v", err)
	}

	recordHistory(backupPath, startedAt, results, logger)

	failed := 0
	for _, result := range results {
		if result.Success {
			logger.Info("%-14s restored (%d item(s))", result.Feature, len(result.Items))
		} else {
			failed++
			logger.Warning("%-14s failed: %s", result.Feature, strings.Join(result.Errors, "; "))
		}
	}
	if failed > 0 {
		logger.Error("Restore finished with %d of %d feature(s) failing", failed, len(results))
		os.Exit(1)
	}
	logger.Success("Restore complete: %d of %d available feature(s) applied", len(results), len(available))
}

func recordHistory(backupPath string, startedAt time.Time, results []backup.Result, logger *logging.Logger) {
	db, err := history.Open(history.DefaultPath)
	if err != nil {
		logger.Warning("Run history unavailable: %v", err)
		return
	}
	defer db.Close()
	if _, err := db.RecordSession("restore", backupPath, startedAt, results); err != nil {
		logger.Warning("Could not record run history: %v", err)
	}
}
