// pkg/features/applications.go - collector for the application inventory.

package features

import (
	"context"
	"fmt"

	"github.com/windowsadmins/melody/pkg/backup"
	"github.com/windowsadmins/melody/pkg/inventory"
	"github.com/windowsadmins/melody/pkg/logging"
	"github.com/windowsadmins/melody/pkg/retry"
)

// CollectApplications snapshots the installed application inventory, the
// per-package-manager listings, and the set of applications no manager
// tracks. A manager that isn't installed is a skip, not a failure.
func CollectApplications(ctx context.Context, env *backup.Env) ([]backup.Outcome, []string) {
	var items []backup.Outcome
	var errs []string

	installed := inventory.Applications()
	if err := backup.WriteSnapshot(env.Dir, "applications.json", installed); err != nil {
		errs = append(errs, fmt.Sprintf("writing applications.json: %v", err))
	} else {
		items = append(items, backup.Outcome{
			Name:    "registry inventory",
			Success: true,
			Detail:  fmt.Sprintf("%d application(s)", len(installed)),
		})
	}

	if env.Cfg.SkipPackageManagers {
		logging.Info("Package manager inventory disabled by configuration")
		return items, errs
	}

	var managed []inventory.ManagedApp

	// winget is the flakiest of the bunch; give it a few attempts.
	var wingetApps []inventory.ManagedApp
	err := retry.Retry(retry.DefaultConfig(), func() error {
		var listErr error
		wingetApps, listErr = inventory.WingetList(ctx, env.Runner)
		return listErr
	})
	items = append(items, managerOutcome("winget", wingetApps, err))
	managed = append(managed, wingetApps...)

	chocoApps, err := inventory.ChocoList(ctx, env.Runner)
	items = append(items, managerOutcome("chocolatey", chocoApps, err))
	managed = append(managed, chocoApps...)

	scoopApps, err := inventory.ScoopList(ctx, env.Runner)
	items = append(items, managerOutcome("scoop", scoopApps, err))
	managed = append(managed, scoopApps...)

	storeApps, err := inventory.StoreApps(ctx, env.Runner)
	items = append(items, managerOutcome("store", storeApps, err))
	managed = append(managed, storeApps...)

	if err := backup.WriteSnapshot(env.Dir, "managed.json", managed); err != nil {
		errs = append(errs, fmt.Sprintf("writing managed.json: %v", err))
	}

	unmanaged := inventory.Unmanaged(installed, managed)
	if err := backup.WriteSnapshot(env.Dir, "unmanaged.json", unmanaged); err != nil {
		errs = append(errs, fmt.Sprintf("writing unmanaged.json: %v", err))
	} else {
		items = append(items, backup.Outcome{
			Name:    "unmanaged applications",
			Success: true,
			Detail:  fmt.Sprintf("%d application(s) outside package managers", len(unmanaged)),
		})
	}

	return items, errs
}

// managerOutcome turns a package-manager listing attempt into an Outcome.
// Managers that aren't installed report as skipped.
func managerOutcome(name string, apps []inventory.ManagedApp, err error) backup.Outcome {
	if err != nil {
		logging.Debug("Package manager listing unavailable", "manager", name, "error", err)
		return backup.Outcome{Name: name, Success: true, Detail: "not available, skipped"}
	}
	return backup.Outcome{
		Name:    name,
		Success: true,
		Detail:  fmt.Sprintf("%d package(s)", len(apps)),
	}
}
