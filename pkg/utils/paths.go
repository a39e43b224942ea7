// pkg/utils/paths.go - utility functions for working with Windows file paths.

package utils

import (
	"os"
	"regexp"
	"strings"
)

var envPattern = regexp.MustCompile(`%([^%]+)%`)

// ExpandWindowsEnv replaces %VAR% style environment references in a path
// with their current values. Unknown variables are left untouched so the
// caller can surface them in an error instead of silently copying from
// the wrong location.
func ExpandWindowsEnv(path string) string {
	return envPattern.ReplaceAllStringFunc(path, func(match string) string {
		name := strings.Trim(match, "%")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// NormalizeWindowsPath ensures Windows-style paths with single backslashes.
func NormalizeWindowsPath(path string) string {
	normalized := strings.ReplaceAll(path, "/", `\`)
	for strings.Contains(normalized, `\\`) {
		normalized = strings.ReplaceAll(normalized, `\\`, `\`)
	}
	return normalized
}

var unsafeFileChars = regexp.MustCompile(`[<>:"/\\|?*]+`)

// SanitizeFileName converts an arbitrary string (typically a registry key
// path) into something safe to use as a file name.
func SanitizeFileName(name string) string {
	cleaned := unsafeFileChars.ReplaceAllString(name, "-")
	cleaned = strings.Trim(cleaned, "-. ")
	if cleaned == "" {
		return "item"
	}
	return cleaned
}
