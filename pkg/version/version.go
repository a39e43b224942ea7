// pkg/version/version.go - functions for displaying version information about a Go application.

package version

import (
	"fmt"
	"strings"
)

// These values are private which ensures they can only be set with the build flags.
var (
	version   = "unknown"
	branch    = "unknown"
	revision  = "unknown"
	goVersion = "unknown"
	buildDate = "unknown"
	appName   = "melody"
)

// Info is a structure with version build information about the current application.
type Info struct {
	Version   string `json:"version"`
	Branch    string `json:"branch"`
	Revision  string `json:"revision"`
	GoVersion string `json:"go_version"`
	BuildDate string `json:"build_date"`
}

// Version returns a structure with the current version information.
func Version() Info {
	return Info{
		Version:   version,
		Branch:    branch,
		Revision:  revision,
		GoVersion: goVersion,
		BuildDate: buildDate,
	}
}

// Print outputs the application name and version string.
func Print() {
	info := Version()
	fmt.Printf("%s %s\n", appName, info.Version)
	if info.Revision != "unknown" {
		fmt.Printf("  branch:     %s\n", info.Branch)
		fmt.Printf("  revision:   %s\n", info.Revision)
		fmt.Printf("  build date: %s\n", info.BuildDate)
		fmt.Printf("  go version: %s\n", strings.TrimPrefix(info.GoVersion, "go"))
	}
}
