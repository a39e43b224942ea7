// pkg/features/games.go - collector for installed game libraries.

package features

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sys/windows/registry"

	"github.com/windowsadmins/melody/pkg/backup"
	"github.com/windowsadmins/melody/pkg/keyvalue"
	"github.com/windowsadmins/melody/pkg/logging"
)

// GOGGame describes one GOG Galaxy installation found in the registry.
type GOGGame struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
}

// CollectGames inventories installed Steam games through their appmanifest
// files and GOG games through the Galaxy registry entries. A machine with
// neither launcher reports skips rather than failures.
func CollectGames(ctx context.Context, env *backup.Env) ([]backup.Outcome, []string) {
	var items []backup.Outcome
	var errs []string

	manifests, steamErrs := collectSteam(env.Cfg.SteamLibraryPaths)
	errs = append(errs, steamErrs...)
	if manifests == nil {
		items = append(items, backup.Outcome{Name: "steam", Success: true, Detail: "not installed, skipped"})
	} else {
		items = append(items, backup.Outcome{
			Name:    "steam",
			Success: true,
			Detail:  fmt.Sprintf("%d game(s)", len(manifests)),
		})
		if err := backup.WriteSnapshot(env.Dir, "steam-games.json", manifests); err != nil {
			errs = append(errs, fmt.Sprintf("writing steam-games.json: %v", err))
		}
	}

	gogGames, err := collectGOG()
	if err != nil {
		items = append(items, backup.Outcome{Name: "gog", Success: true, Detail: "not installed, skipped"})
	} else {
		items = append(items, backup.Outcome{
			Name:    "gog",
			Success: true,
			Detail:  fmt.Sprintf("%d game(s)", len(gogGames)),
		})
		if err := backup.WriteSnapshot(env.Dir, "gog-games.json", gogGames); err != nil {
			errs = append(errs, fmt.Sprintf("writing gog-games.json: %v", err))
		}
	}

	return items, errs
}

// collectSteam walks every Steam library's steamapps directory and parses
// the app manifests there. A nil slice means Steam is not installed; an
// empty non-nil slice means Steam is present with no games.
func collectSteam(extraLibraries []string) ([]*keyvalue.GameManifest, []string) {
	steamPath, err := steamInstallPath()
	if err != nil {
		logging.Debug("Steam not found in registry", "error", err)
		if len(extraLibraries) == 0 {
			return nil, nil
		}
	}

	libraries := steamLibraries(steamPath)
	libraries = append(libraries, extraLibraries...)

	var errs []string
	seen := make(map[string]bool)
	manifests := []*keyvalue.GameManifest{}
	for _, library := range libraries {
		steamapps := filepath.Join(library, "steamapps")
		paths, err := filepath.Glob(filepath.Join(steamapps, "appmanifest_*.acf"))
		if err != nil {
			continue
		}
		for _, path := range paths {
			f, err := os.Open(path)
			if err != nil {
				errs = append(errs, fmt.Sprintf("opening %s: %v", path, err))
				continue
			}
			manifest, parseErr := keyvalue.ParseAppManifest(f)
			f.Close()
			if parseErr != nil {
				errs = append(errs, fmt.Sprintf("parsing %s: %v", path, parseErr))
				continue
			}
			if seen[manifest.AppID] {
				continue
			}
			seen[manifest.AppID] = true
			manifests = append(manifests, manifest)
		}
	}
	sort.Slice(manifests, func(i, j int) bool { return manifests[i].Name < manifests[j].Name })
	return manifests, errs
}

// steamInstallPath reads the per-user Steam install directory.
func steamInstallPath() (string, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, `SOFTWARE\Valve\Steam`, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer key.Close()
	path, _, err := key.GetStringValue("SteamPath")
	if err != nil {
		return "", err
	}
	return filepath.FromSlash(path), nil
}

// steamLibraries resolves the install directory plus every library listed
// in libraryfolders.vdf. Steam writes forward slashes into the VDF.
func steamLibraries(steamPath string) []string {
	if steamPath == "" {
		return nil
	}
	libraries := []string{steamPath}

	vdfPath := filepath.Join(steamPath, "steamapps", "libraryfolders.vdf")
	f, err := os.Open(vdfPath)
	if err != nil {
		return libraries
	}
	defer f.Close()

	paths, err := keyvalue.ParseLibraryFolders(f)
	if err != nil {
		logging.Warn("Could not parse Steam library folders", "path", vdfPath, "error", err)
		return libraries
	}
	for _, p := range paths {
		p = filepath.FromSlash(p)
		if !strings.EqualFold(p, steamPath) {
			libraries = append(libraries, p)
		}
	}
	return libraries
}

// collectGOG enumerates GOG Galaxy's per-game registry keys.
func collectGOG() ([]GOGGame, error) {
	root, err := registry.OpenKey(registry.LOCAL_MACHINE,
		`SOFTWARE\WOW6432Node\GOG.com\Games`, registry.READ)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	ids, err := root.ReadSubKeyNames(-1)
	if err != nil {
		return nil, err
	}

	games := []GOGGame{}
	for _, id := range ids {
		key, err := registry.OpenKey(root, id, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		name, _, _ := key.GetStringValue("gameName")
		path, _, _ := key.GetStringValue("path")
		version, _, _ := key.GetStringValue("ver")
		key.Close()
		if name == "" {
			continue
		}
		games = append(games, GOGGame{ProductID: id, Name: name, Path: path, Version: version})
	}
	sort.Slice(games, func(i, j int) bool { return games[i].Name < games[j].Name })
	return games, nil
}
