// pkg/features/vpn.go - collector for VPN connection profiles.

package features

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/windowsadmins/melody/pkg/backup"
	"github.com/windowsadmins/melody/pkg/logging"
)

// VPNConnection describes one configured VPN profile. Pre-shared keys and
// stored credentials are deliberately absent; Windows does not expose them.
type VPNConnection struct {
	Name                 string `json:"Name"`
	ServerAddress        string `json:"ServerAddress"`
	TunnelType           string `json:"TunnelType"`
	AuthenticationMethod any    `json:"AuthenticationMethod"`
	EncryptionLevel      string `json:"EncryptionLevel"`
	SplitTunneling       bool   `json:"SplitTunneling"`
	RememberCredential   bool   `json:"RememberCredential"`
	ConnectionStatus     string `json:"ConnectionStatus"`
}

// CollectVPN snapshots the user's VPN profiles via Get-VpnConnection.
func CollectVPN(ctx context.Context, env *backup.Env) ([]backup.Outcome, []string) {
	script := "Get-VpnConnection -ErrorAction SilentlyContinue | " +
		"Select-Object Name,ServerAddress,TunnelType,AuthenticationMethod," +
		"EncryptionLevel,SplitTunneling,RememberCredential,ConnectionStatus | " +
		"ConvertTo-Json -Depth 3"
	res, err := env.Runner.RunPowerShell(ctx, script)
	if err != nil {
		logging.Debug("VPN enumeration unavailable", "error", err)
		return []backup.Outcome{{Name: "vpn connections", Success: true, Detail: "not available, skipped"}}, nil
	}

	connections, err := parseVPNConnections(res.Stdout)
	if err != nil {
		return nil, []string{fmt.Sprintf("parsing VPN connections: %v", err)}
	}
	if len(connections) == 0 {
		return []backup.Outcome{{Name: "vpn connections", Success: true, Detail: "none configured"}}, nil
	}

	var items []backup.Outcome
	for _, conn := range connections {
		items = append(items, backup.Outcome{
			Name:    conn.Name,
			Success: true,
			Detail:  fmt.Sprintf("%s to %s", conn.TunnelType, conn.ServerAddress),
		})
	}

	var errs []string
	if err := backup.WriteSnapshot(env.Dir, "vpn.json", connections); err != nil {
		errs = append(errs, fmt.Sprintf("writing vpn.json: %v", err))
	}
	return items, errs
}

// parseVPNConnections handles ConvertTo-Json emitting a bare object for a
// single profile and an array for several.
func parseVPNConnections(raw string) ([]VPNConnection, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var single VPNConnection
		if err := json.Unmarshal([]byte(trimmed), &single); err != nil {
			return nil, err
		}
		return []VPNConnection{single}, nil
	}
	var connections []VPNConnection
	if err := json.Unmarshal([]byte(trimmed), &connections); err != nil {
		return nil, err
	}
	return connections, nil
}
