package features

import (
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// utf16le encodes text the way wsl.exe writes to a pipe.
func utf16le(text string, withBOM bool) string {
	codes := utf16.Encode([]rune(text))
	buf := make([]byte, 0, len(codes)*2+2)
	if withBOM {
		buf = append(buf, 0xFF, 0xFE)
	}
	for _, c := range codes {
		buf = append(buf, byte(c), byte(c>>8))
	}
	return string(buf)
}

const wslListing = "  NAME            STATE           VERSION\r\n" +
	"* Ubuntu          Running         2\r\n" +
	"  Debian          Stopped         2\r\n" +
	"  Legacy          Stopped         1\r\n"

func TestParseWSLListUTF16(t *testing.T) {
	for _, withBOM := range []bool{true, false} {
		distros := parseWSLList(utf16le(wslListing, withBOM))
		require.Len(t, distros, 3, "withBOM=%v", withBOM)

		assert.Equal(t, "Ubuntu", distros[0].Name)
		assert.True(t, distros[0].Default)
		assert.Equal(t, "Running", distros[0].State)
		assert.Equal(t, "2", distros[0].Version)

		assert.Equal(t, "Debian", distros[1].Name)
		assert.False(t, distros[1].Default)
		assert.Equal(t, "1", distros[2].Version)
	}
}

func TestParseWSLListPlainText(t *testing.T) {
	distros := parseWSLList(wslListing)
	require.Len(t, distros, 3)
	assert.Equal(t, "Ubuntu", distros[0].Name)
}

func TestParseWSLListEmpty(t *testing.T) {
	assert.Empty(t, parseWSLList(""))
	assert.Empty(t, parseWSLList("  NAME  STATE  VERSION\r\n"))
}

func TestParseOSRelease(t *testing.T) {
	raw := `NAME="Ubuntu"
VERSION_ID="24.04"
PRETTY_NAME="Ubuntu 24.04 LTS"
ID=ubuntu

# comment
`
	release := parseOSRelease(raw)
	require.NotNil(t, release)
	assert.Equal(t, "Ubuntu", release["NAME"])
	assert.Equal(t, "24.04", release["VERSION_ID"])
	assert.Equal(t, "ubuntu", release["ID"])
}

func TestParseOSReleaseEmpty(t *testing.T) {
	assert.Nil(t, parseOSRelease(""))
}
