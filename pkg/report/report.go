// pkg/report/report.go - run summaries written next to each backup.

package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/windowsadmins/melody/pkg/backup"
	"github.com/windowsadmins/melody/pkg/logging"
	"github.com/windowsadmins/melody/pkg/version"
)

// HostInfo captures the machine identity a summary is tied to.
type HostInfo struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	KernelArch      string `json:"kernel_arch"`
}

// Summary is the summary.json document written at the root of a backup.
type Summary struct {
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Host      HostInfo        `json:"host"`
	Features  []backup.Result `json:"features"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
}

// Latest is the latest.json pointer kept at the machine directory level so
// restores can find the newest backup without listing directories.
type Latest struct {
	BackupPath string    `json:"backup_path"`
	Timestamp  time.Time `json:"timestamp"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
}

// Write builds the summary from the run results, writes summary.json into
// the backup directory, and refreshes latest.json one level up.
func Write(backupPath string, results []backup.Result) (*Summary, error) {
	summary := &Summary{
		Version:   version.Version().Version,
		Timestamp: time.Now(),
		Host:      readHostInfo(),
		Features:  results,
	}
	for _, result := range results {
		if result.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	if err := writeJSON(filepath.Join(backupPath, "summary.json"), summary); err != nil {
		return nil, err
	}

	latest := Latest{
		BackupPath: backupPath,
		Timestamp:  summary.Timestamp,
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
	}
	machineDir := filepath.Dir(backupPath)
	if err := writeJSON(filepath.Join(machineDir, "latest.json"), latest); err != nil {
		// The pointer is a convenience; the backup itself is intact.
		logging.Warn("Could not update latest.json", "error", err)
	}
	return summary, nil
}

// readHostInfo asks gopsutil for host identity. Failures leave the struct
// mostly empty rather than failing the summary.
func readHostInfo() HostInfo {
	info, err := host.Info()
	if err != nil {
		logging.Warn("Could not read host info", "error", err)
		hostname, _ := os.Hostname()
		return HostInfo{Hostname: hostname}
	}
	return HostInfo{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelArch:      info.KernelArch,
	}
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
