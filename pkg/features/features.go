// pkg/features/features.go - the declarative backup feature table.
//
// Every feature is a data entry: the registry keys and file globs that hold
// its state, plus an optional collector for anything that has to be asked
// for (package managers, WMI, vendor CLIs). The backup executor consumes
// the table; nothing here contains control flow of its own.

package features

import (
	"sort"
	"strings"

	"github.com/windowsadmins/melody/pkg/backup"
)

// All returns the full feature table sorted by name.
func All() []backup.Feature {
	features := []backup.Feature{
		{
			Name:        "mouse",
			Description: "Pointer speed, button layout, and cursor scheme",
			RegistryKeys: []string{
				`HKCU\Control Panel\Mouse`,
				`HKCU\Control Panel\Cursors`,
			},
		},
		{
			Name:        "keyboard",
			Description: "Repeat delay, layouts, and input method settings",
			RegistryKeys: []string{
				`HKCU\Control Panel\Keyboard`,
				`HKCU\Keyboard Layout`,
				`HKCU\Control Panel\Input Method`,
			},
		},
		{
			Name:        "touchpad",
			Description: "Precision touchpad gestures and sensitivity",
			RegistryKeys: []string{
				`HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\PrecisionTouchPad`,
				`HKLM\SOFTWARE\Microsoft\Windows\CurrentVersion\PrecisionTouchPad`,
			},
		},
		{
			Name:        "sound",
			Description: "Audio devices, default endpoints, and sound scheme",
			RegistryKeys: []string{
				`HKCU\AppEvents\Schemes`,
				`HKCU\SOFTWARE\Microsoft\Multimedia\Audio`,
				`HKLM\SOFTWARE\Microsoft\Windows\CurrentVersion\MMDevices\Audio`,
			},
			Collect: CollectSound,
		},
		{
			Name:        "printers",
			Description: "Installed printers, ports, and per-printer defaults",
			RegistryKeys: []string{
				`HKCU\Printers\Settings`,
				`HKCU\SOFTWARE\Microsoft\Windows NT\CurrentVersion\Devices`,
				`HKCU\SOFTWARE\Microsoft\Windows NT\CurrentVersion\PrinterPorts`,
			},
			Collect: CollectPrinters,
		},
		{
			Name:        "network",
			Description: "Wireless profiles and adapter configuration",
			RegistryKeys: []string{
				`HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion\NetworkList\Profiles`,
			},
			Collect: CollectNetwork,
		},
		{
			Name:        "vpn",
			Description: "VPN connections and phonebook entries",
			FileGlobs: []string{
				`%APPDATA%\Microsoft\Network\Connections\Pbk\rasphone.pbk`,
				`%PROGRAMDATA%\Microsoft\Network\Connections\Pbk\rasphone.pbk`,
			},
			Collect: CollectVPN,
		},
		{
			Name:        "ssh",
			Description: "OpenSSH client configuration and public keys",
			RegistryKeys: []string{
				`HKCU\SOFTWARE\OpenSSH`,
			},
			FileGlobs: []string{
				`%USERPROFILE%\.ssh\config`,
				`%USERPROFILE%\.ssh\known_hosts`,
				`%USERPROFILE%\.ssh\*.pub`,
			},
		},
		{
			Name:        "terminal",
			Description: "Windows Terminal and console host settings",
			RegistryKeys: []string{
				`HKCU\Console`,
			},
			FileGlobs: []string{
				`%LOCALAPPDATA%\Packages\Microsoft.WindowsTerminal_8wekyb3d8bbwe\LocalState\settings.json`,
				`%LOCALAPPDATA%\Microsoft\Windows Terminal\settings.json`,
			},
		},
		{
			Name:        "explorer",
			Description: "File Explorer preferences and folder view state",
			RegistryKeys: []string{
				`HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\Explorer\Advanced`,
				`HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\Explorer\UserShellFolders`,
			},
		},
		{
			Name:        "power",
			Description: "Active power scheme and per-scheme overrides",
			RegistryKeys: []string{
				`HKLM\SYSTEM\CurrentControlSet\Control\Power\User\PowerSchemes`,
			},
		},
		{
			Name:        "outlook",
			Description: "Outlook profiles, signatures, and preferences",
			RegistryKeys: []string{
				`HKCU\SOFTWARE\Microsoft\Office\16.0\Outlook\Profiles`,
				`HKCU\SOFTWARE\Microsoft\Office\16.0\Outlook\Preferences`,
				`HKCU\SOFTWARE\Microsoft\Office\16.0\Outlook\Options`,
			},
			FileGlobs: []string{
				`%APPDATA%\Microsoft\Signatures`,
				`%APPDATA%\Microsoft\Outlook\*.xml`,
			},
		},
		{
			Name:        "word",
			Description: "Word options, custom dictionary, and templates",
			RegistryKeys: []string{
				`HKCU\SOFTWARE\Microsoft\Office\16.0\Word\Options`,
			},
			FileGlobs: []string{
				`%APPDATA%\Microsoft\UProof\*.dic`,
				`%APPDATA%\Microsoft\Templates\Normal.dotm`,
			},
		},
		{
			Name:        "excel",
			Description: "Excel options and personal macro workbook",
			RegistryKeys: []string{
				`HKCU\SOFTWARE\Microsoft\Office\16.0\Excel\Options`,
				`HKCU\SOFTWARE\Microsoft\Office\16.0\Excel\Security`,
			},
			FileGlobs: []string{
				`%APPDATA%\Microsoft\Excel\XLSTART\*`,
			},
		},
		{
			Name:        "visio",
			Description: "Visio application options and stencil paths",
			RegistryKeys: []string{
				`HKCU\SOFTWARE\Microsoft\Office\16.0\Visio\Application`,
			},
		},
		{
			Name:        "onenote",
			Description: "OneNote options and notebook list",
			RegistryKeys: []string{
				`HKCU\SOFTWARE\Microsoft\Office\16.0\OneNote\Options`,
				`HKCU\SOFTWARE\Microsoft\Office\16.0\OneNote\OpenNotebooks`,
			},
		},
		{
			Name:        "applications",
			Description: "Installed application inventory and package manager state",
			Collect:     CollectApplications,
		},
		{
			Name:        "wsl",
			Description: "WSL distributions and their release information",
			RegistryKeys: []string{
				`HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\Lxss`,
			},
			FileGlobs: []string{
				`%USERPROFILE%\.wslconfig`,
			},
			Collect: CollectWSL,
		},
		{
			Name:        "games",
			Description: "Steam and GOG installed game manifests",
			RegistryKeys: []string{
				`HKCU\SOFTWARE\Valve\Steam`,
				`HKLM\SOFTWARE\WOW6432Node\GOG.com\Games`,
			},
			Collect: CollectGames,
		},
		{
			Name:        "credentials",
			Description: "Credential Manager entry names (no secrets)",
			Collect:     CollectCredentials,
		},
		{
			Name:        "wallpaper",
			Description: "Desktop wallpaper, slideshow settings, and theme",
			RegistryKeys: []string{
				`HKCU\Control Panel\Desktop`,
				`HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\Themes\Personalize`,
			},
			FileGlobs: []string{
				`%APPDATA%\Microsoft\Windows\Themes\slideshow.ini`,
			},
			Collect: CollectWallpaper,
		},
	}

	sort.Slice(features, func(i, j int) bool {
		return features[i].Name < features[j].Name
	})
	return features
}

// Select filters the table down to the named features. Unknown names are
// returned so the caller can report them.
func Select(names []string) ([]backup.Feature, []string) {
	if len(names) == 0 {
		return All(), nil
	}
	byName := make(map[string]backup.Feature)
	for _, feature := range All() {
		byName[feature.Name] = feature
	}

	var selected []backup.Feature
	var unknown []string
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if feature, ok := byName[name]; ok {
			selected = append(selected, feature)
		} else {
			unknown = append(unknown, name)
		}
	}
	return selected, unknown
}
