// pkg/keyvalue/manifest.go - extraction of game metadata from launcher
// manifests on top of the generic parser.

package keyvalue

import (
	"fmt"
	"io"
	"sort"
	"strconv"
)

// GameManifest is the metadata extracted from a Steam appmanifest_*.acf.
type GameManifest struct {
	AppID      string `json:"app_id"`
	Name       string `json:"name"`
	InstallDir string `json:"install_dir"`
	SizeOnDisk int64  `json:"size_on_disk,omitempty"`
	BuildID    string `json:"build_id,omitempty"`
}

// ParseAppManifest extracts game metadata from an appmanifest ACF document.
func ParseAppManifest(r io.Reader) (*GameManifest, error) {
	doc, err := Parse(r)
	if err != nil {
		return nil, err
	}

	state, ok := childBlock(doc, "AppState")
	if !ok {
		return nil, fmt.Errorf("manifest has no AppState block")
	}

	manifest := &GameManifest{
		AppID:      childString(state, "appid"),
		Name:       childString(state, "name"),
		InstallDir: childString(state, "installdir"),
		BuildID:    childString(state, "buildid"),
	}
	if manifest.AppID == "" {
		return nil, fmt.Errorf("manifest AppState has no appid")
	}
	if size, err := strconv.ParseInt(childString(state, "SizeOnDisk"), 10, 64); err == nil {
		manifest.SizeOnDisk = size
	}
	return manifest, nil
}

// ParseLibraryFolders extracts library directory paths from a Steam
// libraryfolders.vdf. Both layouts are handled: the old flat one where
// numbered keys map directly to paths, and the current one where numbered
// keys map to blocks carrying a "path" entry.
func ParseLibraryFolders(r io.Reader) ([]string, error) {
	doc, err := Parse(r)
	if err != nil {
		return nil, err
	}

	folders, ok := childBlock(doc, "libraryfolders")
	if !ok {
		// Very old exports title-case the block.
		if folders, ok = childBlock(doc, "LibraryFolders"); !ok {
			return nil, fmt.Errorf("document has no libraryfolders block")
		}
	}

	numbered := make([]string, 0, len(folders))
	for key := range folders {
		if _, err := strconv.Atoi(key); err == nil {
			numbered = append(numbered, key)
		}
	}
	sort.Slice(numbered, func(i, j int) bool {
		a, _ := strconv.Atoi(numbered[i])
		b, _ := strconv.Atoi(numbered[j])
		return a < b
	})

	var paths []string
	for _, key := range numbered {
		switch entry := folders[key].(type) {
		case string:
			paths = append(paths, entry)
		case map[string]any:
			if p := childString(entry, "path"); p != "" {
				paths = append(paths, p)
			}
		}
	}
	return paths, nil
}

func childBlock(doc map[string]any, key string) (map[string]any, bool) {
	block, ok := doc[key].(map[string]any)
	return block, ok
}

func childString(block map[string]any, key string) string {
	s, _ := block[key].(string)
	return s
}
