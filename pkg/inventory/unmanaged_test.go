package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"7-Zip 23.01 (x64)":              "7-zip",
		"Mozilla Firefox (x64 en-US)":    "mozilla firefox en-us)",
		"Notepad++ (64-bit x64)":         "notepad++",
		"Git version 2.44.0":             "git version",
		"VLC media player":               "vlc media player",
		"Microsoft Edge™":                "microsoft edge",
		"  Spaced   Out  ":               "spaced out",
		"Python 3.12.1 (64-bit)":         "python",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeName(input), "input %q", input)
	}
}

func TestIsMatch(t *testing.T) {
	assert.True(t, IsMatch("7-Zip 23.01 (x64)", "7-Zip"))
	assert.True(t, IsMatch("Mozilla Firefox (x64 en-US)", "Mozilla Firefox"))
	assert.True(t, IsMatch("Git version 2.44.0", "Git Version"))
	assert.True(t, IsMatch("Visual Studio Code", "Microsoft Visual Studio Code"))

	assert.False(t, IsMatch("Go", "GIMP"))
	assert.False(t, IsMatch("", "7-Zip"))
	assert.False(t, IsMatch("Slack", "Discord"))
}

func TestUnmanaged(t *testing.T) {
	installed := []Application{
		{Name: "7-Zip 23.01 (x64)"},
		{Name: "Obscure Vendor Tool"},
		{Name: "Mozilla Firefox (x64 en-US)"},
	}
	managed := []ManagedApp{
		{Name: "7-Zip", ID: "7zip.7zip", Source: "winget"},
		{Name: "Firefox", ID: "Mozilla Firefox", Source: "chocolatey"},
	}

	got := Unmanaged(installed, managed)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "Obscure Vendor Tool", got[0].Name)
	}
}

func TestUnmanagedMatchesOnID(t *testing.T) {
	installed := []Application{{Name: "Node.js"}}
	managed := []ManagedApp{{Name: "OpenJS NodeJS", ID: "Node.js", Source: "winget"}}
	assert.Empty(t, Unmanaged(installed, managed))
}

func TestNewerVersion(t *testing.T) {
	assert.True(t, newerVersion("2.0.0", "1.9.9"))
	assert.False(t, newerVersion("1.0.0", "1.0.0"))
	assert.False(t, newerVersion("garbage", "1.0.0"))
	assert.True(t, newerVersion("1.0.0", "garbage"))
}
