// pkg/features/wsl.go - collector for WSL distribution state.

package features

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/windowsadmins/melody/pkg/backup"
	"github.com/windowsadmins/melody/pkg/logging"
)

// WSLDistribution describes one registered distribution.
type WSLDistribution struct {
	Name      string            `json:"name"`
	State     string            `json:"state"`
	Version   string            `json:"version"`
	Default   bool              `json:"default"`
	OSRelease map[string]string `json:"os_release,omitempty"`
}

// CollectWSL records the registered distributions and each one's
// /etc/os-release. Machines without WSL report a single skip.
func CollectWSL(ctx context.Context, env *backup.Env) ([]backup.Outcome, []string) {
	res, err := env.Runner.Run(ctx, "wsl.exe", "--list", "--verbose")
	if err != nil {
		logging.Debug("WSL not available", "error", err)
		return []backup.Outcome{{Name: "wsl", Success: true, Detail: "not available, skipped"}}, nil
	}

	distros := parseWSLList(res.Stdout)
	if len(distros) == 0 {
		return []backup.Outcome{{Name: "wsl", Success: true, Detail: "no distributions registered"}}, nil
	}

	var items []backup.Outcome
	var errs []string
	for i := range distros {
		release, err := env.Runner.Run(ctx, "wsl.exe", "-d", distros[i].Name, "--", "cat", "/etc/os-release")
		if err != nil {
			// A stopped or broken distro still gets inventoried.
			logging.Debug("Could not read os-release", "distro", distros[i].Name, "error", err)
		} else {
			distros[i].OSRelease = parseOSRelease(release.Stdout)
		}
		items = append(items, backup.Outcome{
			Name:    distros[i].Name,
			Success: true,
			Detail:  fmt.Sprintf("WSL%s, %s", distros[i].Version, distros[i].State),
		})
	}

	if err := backup.WriteSnapshot(env.Dir, "wsl.json", distros); err != nil {
		errs = append(errs, fmt.Sprintf("writing wsl.json: %v", err))
	}
	return items, errs
}

// parseWSLList decodes `wsl --list --verbose` output. wsl.exe writes
// UTF-16LE to pipes, so the text is decoded before line parsing.
func parseWSLList(raw string) []WSLDistribution {
	text := decodeWSLOutput(raw)

	var distros []WSLDistribution
	scanner := bufio.NewScanner(strings.NewReader(text))
	headerSeen := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		fieldsLine := strings.TrimSpace(line)
		if fieldsLine == "" {
			continue
		}
		if !headerSeen {
			// Header row: NAME STATE VERSION (localized spellings vary,
			// but it is always the first non-empty row).
			headerSeen = true
			continue
		}

		isDefault := false
		if strings.HasPrefix(fieldsLine, "*") {
			isDefault = true
			fieldsLine = strings.TrimSpace(fieldsLine[1:])
		}
		fields := strings.Fields(fieldsLine)
		if len(fields) < 3 {
			continue
		}
		distros = append(distros, WSLDistribution{
			Name:    fields[0],
			State:   fields[1],
			Version: fields[2],
			Default: isDefault,
		})
	}
	return distros
}

// decodeWSLOutput converts wsl.exe's UTF-16LE pipe output into a normal
// string. Output that is already 8-bit text passes through unchanged.
func decodeWSLOutput(raw string) string {
	data := []byte(raw)
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE {
		data = data[2:]
	} else if !strings.Contains(raw, "\x00") {
		return raw
	}
	codes := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		codes = append(codes, uint16(data[i])|uint16(data[i+1])<<8)
	}
	return string(utf16.Decode(codes))
}

// parseOSRelease reads the KEY=value lines of /etc/os-release.
func parseOSRelease(raw string) map[string]string {
	release := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		release[parts[0]] = strings.Trim(parts[1], `"`)
	}
	if len(release) == 0 {
		return nil
	}
	return release
}
