// pkg/features/sound.go - collector for audio devices.

package features

import (
	"context"
	"fmt"

	"github.com/yusufpapurcu/wmi"

	"github.com/windowsadmins/melody/pkg/backup"
)

// Win32_SoundDevice is the WMI audio device class.
type Win32_SoundDevice struct {
	Name         string
	Manufacturer string
	Status       string
	DeviceID     string
}

// CollectSound snapshots the machine's audio devices from WMI. The sound
// scheme itself rides along in the feature's registry keys.
func CollectSound(ctx context.Context, env *backup.Env) ([]backup.Outcome, []string) {
	var devices []Win32_SoundDevice
	query := wmi.CreateQuery(&devices, "")
	if err := wmi.Query(query, &devices); err != nil {
		return nil, []string{fmt.Sprintf("querying sound devices: %v", err)}
	}

	var items []backup.Outcome
	for _, device := range devices {
		items = append(items, backup.Outcome{
			Name:    device.Name,
			Success: true,
			Detail:  device.Status,
		})
	}

	if err := backup.WriteSnapshot(env.Dir, "sound-devices.json", devices); err != nil {
		return items, []string{fmt.Sprintf("writing sound-devices.json: %v", err)}
	}
	return items, nil
}
