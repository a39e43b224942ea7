// pkg/features/printers.go - collector for installed printers.

package features

import (
	"context"
	"fmt"

	"github.com/yusufpapurcu/wmi"

	"github.com/windowsadmins/melody/pkg/backup"
)

// Win32_Printer is the WMI printer class, limited to the fields worth
// carrying to a new machine.
type Win32_Printer struct {
	Name       string
	DriverName string
	PortName   string
	Default    bool
	Network    bool
	Shared     bool
	ShareName  string
	Location   string
}

// CollectPrinters snapshots the installed printers from WMI.
func CollectPrinters(ctx context.Context, env *backup.Env) ([]backup.Outcome, []string) {
	var printers []Win32_Printer
	query := wmi.CreateQuery(&printers, "")
	if err := wmi.Query(query, &printers); err != nil {
		return nil, []string{fmt.Sprintf("querying printers: %v", err)}
	}

	var items []backup.Outcome
	for _, printer := range printers {
		detail := printer.PortName
		if printer.Default {
			detail += " (default)"
		}
		items = append(items, backup.Outcome{Name: printer.Name, Success: true, Detail: detail})
	}

	if err := backup.WriteSnapshot(env.Dir, "printers.json", printers); err != nil {
		return items, []string{fmt.Sprintf("writing printers.json: %v", err)}
	}
	return items, nil
}
