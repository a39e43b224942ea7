// pkg/features/network.go - collector for network configuration.

package features

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yusufpapurcu/wmi"

	"github.com/windowsadmins/melody/pkg/backup"
	"github.com/windowsadmins/melody/pkg/logging"
)

// Win32_NetworkAdapterConfiguration carries the IP-enabled adapter state
// worth re-checking after a machine rebuild.
type Win32_NetworkAdapterConfiguration struct {
	Description          string
	MACAddress           string
	DHCPEnabled          bool
	IPAddress            []string
	DefaultIPGateway     []string
	DNSServerSearchOrder []string
}

// CollectNetwork exports saved wireless profiles with netsh and snapshots
// the IP-enabled adapter configuration from WMI. Wireless profile exports
// include the key material only for the current user, which is what netsh
// allows without extra privileges.
func CollectNetwork(ctx context.Context, env *backup.Env) ([]backup.Outcome, []string) {
	var items []backup.Outcome
	var errs []string

	profileDir := filepath.Join(env.Dir, "wlan-profiles")
	res, err := env.Runner.Run(ctx, "netsh.exe",
		"wlan", "export", "profile", "key=clear", "folder="+profileDir)
	if err != nil {
		// No wireless service on desktops and servers; that's a skip.
		logging.Debug("Wireless profile export unavailable", "error", err)
		items = append(items, backup.Outcome{Name: "wlan profiles", Success: true, Detail: "not available, skipped"})
	} else {
		exported := strings.Count(res.Stdout, "successfully")
		items = append(items, backup.Outcome{
			Name:    "wlan profiles",
			Success: true,
			Detail:  fmt.Sprintf("%d profile(s)", exported),
		})
	}

	var adapters []Win32_NetworkAdapterConfiguration
	query := wmi.CreateQuery(&adapters, "WHERE IPEnabled = TRUE")
	if err := wmi.Query(query, &adapters); err != nil {
		errs = append(errs, fmt.Sprintf("querying network adapters: %v", err))
		return items, errs
	}
	for _, adapter := range adapters {
		items = append(items, backup.Outcome{
			Name:    adapter.Description,
			Success: true,
			Detail:  strings.Join(adapter.IPAddress, ", "),
		})
	}

	if err := backup.WriteSnapshot(env.Dir, "adapters.json", adapters); err != nil {
		errs = append(errs, fmt.Sprintf("writing adapters.json: %v", err))
	}
	return items, errs
}
