// pkg/backup/files.go - file glob copying for the backup executor.

package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/windowsadmins/melody/pkg/logging"
	"github.com/windowsadmins/melody/pkg/utils"
)

// FileEntry maps one stored file back to where it came from, so restore
// can put it back without guessing.
type FileEntry struct {
	Source string `json:"source"` // absolute original path
	Stored string `json:"stored"` // path relative to the feature's files dir
}

// FilesManifest is the files.json document written next to the files dir.
const FilesManifest = "files.json"

// copyFileGlobs copies everything matched by the feature's globs into
// files\ and records the source mapping in files.json. A glob with no
// matches is a skip, not an error.
func (e *Executor) copyFileGlobs(feature Feature, featureDir string) ([]Outcome, []string) {
	if len(feature.FileGlobs) == 0 {
		return nil, nil
	}

	filesDir := filepath.Join(featureDir, "files")
	var items []Outcome
	var errs []string
	var entries []FileEntry

	for _, glob := range feature.FileGlobs {
		expanded := utils.ExpandWindowsEnv(glob)
		if strings.Contains(expanded, "%") {
			items = append(items, Outcome{Name: glob, Success: true, Detail: "environment variable unset, skipped"})
			continue
		}

		matches, err := filepath.Glob(expanded)
		if err != nil {
			errs = append(errs, fmt.Sprintf("bad glob %s: %v", glob, err))
			items = append(items, Outcome{Name: glob, Success: false, Detail: err.Error()})
			continue
		}
		if len(matches) == 0 {
			logging.Debug("Glob matched nothing, skipping", "glob", expanded)
			items = append(items, Outcome{Name: glob, Success: true, Detail: "no matches, skipped"})
			continue
		}

		copied := 0
		for _, match := range matches {
			n, copyErrs := copyTree(match, filesDir, &entries)
			copied += n
			errs = append(errs, copyErrs...)
		}
		items = append(items, Outcome{
			Name:    glob,
			Success: true,
			Detail:  fmt.Sprintf("%d file(s)", copied),
		})
	}

	if len(entries) > 0 {
		if err := WriteSnapshot(featureDir, FilesManifest, entries); err != nil {
			errs = append(errs, fmt.Sprintf("writing %s: %v", FilesManifest, err))
		}
	}
	return items, errs
}

// copyTree copies a file, or a directory recursively, into filesDir while
// appending manifest entries. Returns the number of files copied.
func copyTree(source, filesDir string, entries *[]FileEntry) (int, []string) {
	info, err := os.Stat(source)
	if err != nil {
		return 0, []string{fmt.Sprintf("stat %s: %v", source, err)}
	}

	var errs []string
	copied := 0

	copyOne := func(path string) {
		stored := storedRelPath(path)
		dest := filepath.Join(filesDir, stored)
		if err := copyFile(path, dest); err != nil {
			errs = append(errs, fmt.Sprintf("copying %s: %v", path, err))
			return
		}
		*entries = append(*entries, FileEntry{Source: path, Stored: stored})
		copied++
	}

	if !info.IsDir() {
		copyOne(source)
		return copied, errs
	}

	filepath.Walk(source, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			errs = append(errs, fmt.Sprintf("walking %s: %v", path, err))
			return nil
		}
		if !fi.IsDir() {
			copyOne(path)
		}
		return nil
	})
	return copied, errs
}

// storedRelPath turns an absolute path into a relative layout under the
// files dir, keeping the drive letter as the first component.
func storedRelPath(path string) string {
	cleaned := filepath.Clean(path)
	vol := filepath.VolumeName(cleaned) // "C:" or a UNC prefix
	rest := strings.TrimPrefix(cleaned, vol)
	rest = strings.TrimLeft(rest, `\/`)
	drive := strings.TrimSuffix(vol, ":")
	if drive == "" {
		return rest
	}
	drive = utils.SanitizeFileName(drive)
	return filepath.Join(drive, rest)
}

func copyFile(source, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// WriteSnapshot serializes v as indented JSON into dir\name.
func WriteSnapshot(dir, name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), append(data, '\n'), 0644)
}

// ReadFilesManifest loads a feature's files.json, returning nil when the
// feature stored no files.
func ReadFilesManifest(featureDir string) ([]FileEntry, error) {
	data, err := os.ReadFile(filepath.Join(featureDir, FilesManifest))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []FileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FilesManifest, err)
	}
	return entries, nil
}
