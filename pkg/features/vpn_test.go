package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVPNConnectionsArray(t *testing.T) {
	raw := `[
  {"Name": "Work", "ServerAddress": "vpn.example.com", "TunnelType": "Ikev2", "ConnectionStatus": "Disconnected"},
  {"Name": "Lab", "ServerAddress": "lab.example.com", "TunnelType": "Sstp", "SplitTunneling": true}
]`
	connections, err := parseVPNConnections(raw)
	require.NoError(t, err)
	require.Len(t, connections, 2)
	assert.Equal(t, "Work", connections[0].Name)
	assert.Equal(t, "vpn.example.com", connections[0].ServerAddress)
	assert.True(t, connections[1].SplitTunneling)
}

func TestParseVPNConnectionsSingleObject(t *testing.T) {
	raw := `{"Name": "Work", "ServerAddress": "vpn.example.com", "TunnelType": "Automatic"}`
	connections, err := parseVPNConnections(raw)
	require.NoError(t, err)
	require.Len(t, connections, 1)
	assert.Equal(t, "Work", connections[0].Name)
}

func TestParseVPNConnectionsEmpty(t *testing.T) {
	connections, err := parseVPNConnections("   \n")
	require.NoError(t, err)
	assert.Empty(t, connections)
}

func TestParseVPNConnectionsBadJSON(t *testing.T) {
	_, err := parseVPNConnections("{not json")
	assert.Error(t, err)
}
