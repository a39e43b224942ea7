// cmd/melodyutil/main.go - inspection helpers for backups and inventories.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/windowsadmins/melody/pkg/config"
	"github.com/windowsadmins/melody/pkg/history"
	"github.com/windowsadmins/melody/pkg/inventory"
	"github.com/windowsadmins/melody/pkg/keyvalue"
	"github.com/windowsadmins/melody/pkg/logging"
	"github.com/windowsadmins/melody/pkg/version"
)

var (
	showVersion bool
	verbosity   int
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: melodyutil [flags] <command>

Commands:
  apps             List installed applications from the registry
  manifest <file>  Parse a Steam appmanifest_*.acf and print its metadata
  history [n]      Show the n most recent backup/restore runs (default 10)
  config           Show the resolved configuration

Flags:
`)
	pflag.PrintDefaults()
}

func main() {
	pflag.Usage = usage
	pflag.BoolVar(&showVersion, "version", false, "Print the version and exit")
	pflag.CountVarP(&verbosity, "verbose", "v", "Increase verbosity (repeat for more)")
	pflag.Parse()

	if showVersion {
		version.Print()
		os.Exit(0)
	}

	logger := logging.New(verbosity > 0)
	args := pflag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "apps":
		listApps()
	case "manifest":
		if len(args) < 2 {
			logger.Fatal("manifest requires a file argument")
		}
		showManifest(logger, args[1])
	case "history":
		limit := 10
		if len(args) > 1 {
			parsed, err := strconv.Atoi(args[1])
			if err != nil || parsed <= 0 {
				logger.Fatal("history takes a positive count, got %q", args[1])
			}
			limit = parsed
		}
		showHistory(logger, limit)
	case "config":
		showConfig(logger)
	default:
		logger.Error("Unknown command: %s", args[0])
		usage()
		os.Exit(2)
	}
}

func listApps() {
	apps := inventory.Applications()
	for _, app := range apps {
		fmt.Printf("%-50s %-20s %s\n", app.Name, app.Version, app.Publisher)
	}
	fmt.Printf("\n%d application(s)\n", len(apps))
}

func showManifest(logger *logging.Logger, path string) {
	f, err := os.Open(path)
	if err != nil {
		logger.Fatal("Could not open %s: %v", path, err)
	}
	defer f.Close()

	manifest, err := keyvalue.ParseAppManifest(f)
	if err != nil {
		logger.Fatal("Could not parse %s: %v", path, err)
	}
	fmt.Printf("AppID:      %s\n", manifest.AppID)
	fmt.Printf("Name:       %s\n", manifest.Name)
	fmt.Printf("InstallDir: %s\n", manifest.InstallDir)
	if manifest.BuildID != "" {
		fmt.Printf("BuildID:    %s\n", manifest.BuildID)
	}
	if manifest.SizeOnDisk > 0 {
		fmt.Printf("SizeOnDisk: %d bytes\n", manifest.SizeOnDisk)
	}
}

func showHistory(logger *logging.Logger, limit int) {
	db, err := history.Open(history.DefaultPath)
	if err != nil {
		logger.Fatal("Could not open run history: %v", err)
	}
	defer db.Close()

	sessions, err := db.RecentSessions(limit)
	if err != nil {
		logger.Fatal("Could not read run history: %v", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No recorded runs.")
		return
	}
	for _, session := range sessions {
		status := "ok"
		if session.Failed > 0 {
			status = fmt.Sprintf("%d failed", session.Failed)
		}
		fmt.Printf("%s  %-7s  %-10s  %s\n",
			session.StartedAt.Local().Format("2006-01-02 15:04:05"),
			session.Kind, status, session.BackupPath)
	}
}

func showConfig(logger *logging.Logger) {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}
	data, err := os.ReadFile(config.ConfigPath)
	if err == nil {
		fmt.Printf("# %s\n%s", config.ConfigPath, data)
		return
	}
	fmt.Printf("# no %s, showing resolved values\n", config.ConfigPath)
	fmt.Printf("BackupRoot:      %s\n", cfg.BackupRoot)
	fmt.Printf("MachineName:     %s\n", cfg.MachineName)
	fmt.Printf("LogLevel:        %s\n", cfg.LogLevel)
	fmt.Printf("RetainedBackups: %d\n", cfg.RetainedBackups)
}
