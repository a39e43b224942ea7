// pkg/inventory/unmanaged.go - detection of applications installed on the
// machine but not tracked by any recognized package manager.

package inventory

import (
	"regexp"
	"strings"
)

// noiseTokens are decorations vendors append to display names that package
// managers leave out: bitness, trademark marks, edition noise.
var noiseTokens = regexp.MustCompile(`(?i)\(?\b(x64|x86|64[- ]bit|32[- ]bit|amd64|win64|win32)\b\)?|[™®©]`)

var versionSuffix = regexp.MustCompile(`\s+v?\d+(\.\d+)*\s*$`)

var whitespace = regexp.MustCompile(`\s+`)

// NormalizeName reduces an application display name to a comparable form:
// lowercase, bitness and trademark tokens stripped, trailing version
// numbers dropped, whitespace collapsed.
func NormalizeName(name string) string {
	cleaned := noiseTokens.ReplaceAllString(name, " ")
	cleaned = strings.ToLower(cleaned)
	cleaned = versionSuffix.ReplaceAllString(cleaned, "")
	cleaned = whitespace.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// IsMatch reports whether two application names refer to the same software.
// A match is normalized equality, or substring containment when both
// normalized names are longer than three characters.
func IsMatch(a, b string) bool {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if len(na) > 3 && len(nb) > 3 {
		return strings.Contains(na, nb) || strings.Contains(nb, na)
	}
	return false
}

// Unmanaged returns the installed applications that no package manager
// claims. Plain double loop; the lists are small.
func Unmanaged(installed []Application, managed []ManagedApp) []Application {
	var unmanaged []Application
	for _, app := range installed {
		tracked := false
		for _, m := range managed {
			if IsMatch(app.Name, m.Name) || (m.ID != "" && IsMatch(app.Name, m.ID)) {
				tracked = true
				break
			}
		}
		if !tracked {
			unmanaged = append(unmanaged, app)
		}
	}
	return unmanaged
}
