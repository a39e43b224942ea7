// pkg/inventory/inventory.go - enumeration of installed applications from
// the Windows uninstall registry hives.

package inventory

import (
	"sort"
	"strings"

	version "github.com/hashicorp/go-version"
	"golang.org/x/sys/windows/registry"

	"github.com/windowsadmins/melody/pkg/logging"
)

// Application is one installed program as recorded in an uninstall key.
type Application struct {
	Name            string `json:"name"`
	Version         string `json:"version,omitempty"`
	Publisher       string `json:"publisher,omitempty"`
	InstallLocation string `json:"install_location,omitempty"`
	UninstallString string `json:"uninstall_string,omitempty"`
	RegistryKey     string `json:"registry_key"`
}

// uninstallHives are the registry locations that record installed software:
// native and 32-bit-on-64 machine installs plus per-user installs.
var uninstallHives = []struct {
	root registry.Key
	path string
	name string
}{
	{registry.LOCAL_MACHINE, `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`, "HKLM"},
	{registry.LOCAL_MACHINE, `SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`, "HKLM-WOW64"},
	{registry.CURRENT_USER, `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`, "HKCU"},
}

// Applications enumerates installed applications across all uninstall hives.
// Entries appearing in more than one hive collapse to the highest version.
// The result is sorted by name.
func Applications() []Application {
	byName := make(map[string]Application)

	for _, hive := range uninstallHives {
		key, err := registry.OpenKey(hive.root, hive.path, registry.ENUMERATE_SUB_KEYS|registry.READ)
		if err != nil {
			logging.Debug("Uninstall hive not readable", "hive", hive.name, "error", err)
			continue
		}

		subKeys, err := key.ReadSubKeyNames(-1)
		if err != nil {
			key.Close()
			continue
		}

		for _, subKey := range subKeys {
			app, ok := readUninstallEntry(hive.root, hive.path+`\`+subKey, hive.name)
			if !ok {
				continue
			}
			existing, seen := byName[app.Name]
			if !seen || newerVersion(app.Version, existing.Version) {
				byName[app.Name] = app
			}
		}
		key.Close()
	}

	apps := make([]Application, 0, len(byName))
	for _, app := range byName {
		apps = append(apps, app)
	}
	sort.Slice(apps, func(i, j int) bool {
		return strings.ToLower(apps[i].Name) < strings.ToLower(apps[j].Name)
	})
	return apps
}

func readUninstallEntry(root registry.Key, path, hiveName string) (Application, bool) {
	sk, err := registry.OpenKey(root, path, registry.READ)
	if err != nil {
		return Application{}, false
	}
	defer sk.Close()

	name, _, err := sk.GetStringValue("DisplayName")
	if err != nil || name == "" {
		return Application{}, false
	}
	// System components and hotfix stubs are not user applications.
	if sysComponent, _, err := sk.GetIntegerValue("SystemComponent"); err == nil && sysComponent == 1 {
		return Application{}, false
	}

	app := Application{Name: name, RegistryKey: hiveName + `\` + path}
	if v, _, err := sk.GetStringValue("DisplayVersion"); err == nil {
		app.Version = v
	}
	if p, _, err := sk.GetStringValue("Publisher"); err == nil {
		app.Publisher = p
	}
	if loc, _, err := sk.GetStringValue("InstallLocation"); err == nil {
		app.InstallLocation = loc
	}
	if u, _, err := sk.GetStringValue("UninstallString"); err == nil {
		app.UninstallString = u
	}
	return app, true
}

// newerVersion reports whether a is a strictly newer version than b.
// Unparseable versions lose to parseable ones.
func newerVersion(a, b string) bool {
	va, errA := version.NewVersion(a)
	vb, errB := version.NewVersion(b)
	if errA != nil {
		return false
	}
	if errB != nil {
		return true
	}
	return va.GreaterThan(vb)
}
