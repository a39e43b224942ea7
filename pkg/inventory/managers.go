// pkg/inventory/managers.go - package-manager application listings.
//
// Each supported manager is queried through the command Runner and decoded
// by a pure parse function so the decoding is testable against canned
// output without the manager installed.

package inventory

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/windowsadmins/melody/pkg/command"
)

// ManagedApp is one application tracked by a package manager or the Store.
type ManagedApp struct {
	Name    string `json:"name"`
	ID      string `json:"id,omitempty"`
	Version string `json:"version,omitempty"`
	Source  string `json:"source"`
}

// WingetList returns applications tracked by winget.
func WingetList(ctx context.Context, run command.Runner) ([]ManagedApp, error) {
	res, err := run.Run(ctx, "winget.exe", "list", "--disable-interactivity", "--accept-source-agreements")
	if err != nil {
		return nil, fmt.Errorf("winget list: %w", err)
	}
	return parseWingetList(strings.NewReader(res.Stdout))
}

// ChocoList returns applications tracked by Chocolatey.
func ChocoList(ctx context.Context, run command.Runner) ([]ManagedApp, error) {
	res, err := run.Run(ctx, "choco.exe", "list", "--limit-output")
	if err != nil {
		return nil, fmt.Errorf("choco list: %w", err)
	}
	return parseChocoList(strings.NewReader(res.Stdout)), nil
}

// ScoopList returns applications tracked by Scoop via its JSON export.
func ScoopList(ctx context.Context, run command.Runner) ([]ManagedApp, error) {
	res, err := run.Run(ctx, "scoop", "export")
	if err != nil {
		return nil, fmt.Errorf("scoop export: %w", err)
	}
	return parseScoopExport(strings.NewReader(res.Stdout))
}

// StoreApps returns Microsoft Store packages for the current user.
func StoreApps(ctx context.Context, run command.Runner) ([]ManagedApp, error) {
	res, err := run.RunPowerShell(ctx,
		`Get-AppxPackage | Select-Object Name, Version, PackageFullName | ConvertTo-Json -Compress`)
	if err != nil {
		return nil, fmt.Errorf("store app listing: %w", err)
	}
	return parseStoreApps(strings.NewReader(res.Stdout))
}

// parseWingetList decodes winget's fixed-width table output. Column starts
// are taken from the header line so localized widths still line up.
func parseWingetList(r io.Reader) ([]ManagedApp, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var header string
	var rows []string
	inTable := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !inTable {
			// Progress spinners precede the real table.
			if strings.HasPrefix(line, "Name") && strings.Contains(line, "Id") && strings.Contains(line, "Version") {
				header = line
				inTable = true
			}
			continue
		}
		if strings.HasPrefix(line, "---") || strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if header == "" {
		return nil, fmt.Errorf("no table header in winget output")
	}

	idStart := strings.Index(header, "Id")
	versionStart := strings.Index(header, "Version")
	sourceStart := strings.Index(header, "Source")

	apps := make([]ManagedApp, 0, len(rows))
	for _, row := range rows {
		app := ManagedApp{
			Name:   sliceColumn(row, 0, idStart),
			ID:     sliceColumn(row, idStart, versionStart),
			Source: "winget",
		}
		if sourceStart > versionStart {
			app.Version = sliceColumn(row, versionStart, sourceStart)
		} else {
			app.Version = sliceColumn(row, versionStart, len(row))
		}
		if app.Name != "" {
			apps = append(apps, app)
		}
	}
	return apps, nil
}

func sliceColumn(row string, start, end int) string {
	if start < 0 || start >= len(row) {
		return ""
	}
	if end < start || end > len(row) {
		end = len(row)
	}
	return strings.TrimSpace(row[start:end])
}

// parseChocoList decodes choco's machine-readable "name|version" lines.
func parseChocoList(r io.Reader) []ManagedApp {
	var apps []ManagedApp
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		parts := strings.SplitN(line, "|", 2)
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		apps = append(apps, ManagedApp{
			Name:    parts[0],
			ID:      parts[0],
			Version: parts[1],
			Source:  "chocolatey",
		})
	}
	return apps
}

// parseScoopExport decodes the JSON document from scoop export.
func parseScoopExport(r io.Reader) ([]ManagedApp, error) {
	var export struct {
		Apps []struct {
			Name    string `json:"Name"`
			Version string `json:"Version"`
			Source  string `json:"Source"`
		} `json:"apps"`
	}
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decoding scoop export: %w", err)
	}

	apps := make([]ManagedApp, 0, len(export.Apps))
	for _, app := range export.Apps {
		if app.Name == "" {
			continue
		}
		apps = append(apps, ManagedApp{
			Name:    app.Name,
			ID:      app.Name,
			Version: app.Version,
			Source:  "scoop",
		})
	}
	return apps, nil
}

// parseStoreApps decodes Get-AppxPackage ConvertTo-Json output, which is an
// array for multiple packages but a bare object for exactly one.
func parseStoreApps(r io.Reader) ([]ManagedApp, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}

	type appxPackage struct {
		Name            string `json:"Name"`
		Version         string `json:"Version"`
		PackageFullName string `json:"PackageFullName"`
	}
	var packages []appxPackage
	if strings.HasPrefix(trimmed, "{") {
		var single appxPackage
		if err := json.Unmarshal([]byte(trimmed), &single); err != nil {
			return nil, fmt.Errorf("decoding store app listing: %w", err)
		}
		packages = []appxPackage{single}
	} else if err := json.Unmarshal([]byte(trimmed), &packages); err != nil {
		return nil, fmt.Errorf("decoding store app listing: %w", err)
	}

	apps := make([]ManagedApp, 0, len(packages))
	for _, pkg := range packages {
		if pkg.Name == "" {
			continue
		}
		apps = append(apps, ManagedApp{
			Name:    pkg.Name,
			ID:      pkg.PackageFullName,
			Version: pkg.Version,
			Source:  "store",
		})
	}
	return apps, nil
}
