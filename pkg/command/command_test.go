package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodePowerShell(t *testing.T) {
	// "ab" in UTF-16LE is 61 00 62 00, which is "YQBiAA==" in base64.
	assert.Equal(t, "YQBiAA==", EncodePowerShell("ab"))
}

func TestEncodePowerShellRoundTripsQuotes(t *testing.T) {
	// The encoded form must be plain base64 regardless of quoting in the
	// script, which is the whole point of -EncodedCommand.
	encoded := EncodePowerShell(`Write-Output "hello 'world'"`)
	assert.Regexp(t, `^[A-Za-z0-9+/]+=*$`, encoded)
}

func TestCombinedOutput(t *testing.T) {
	assert.Equal(t, "out", Result{Stdout: "out\n"}.CombinedOutput())
	assert.Equal(t, "err", Result{Stderr: " err "}.CombinedOutput())
	assert.Equal(t, "out\nerr", Result{Stdout: "out", Stderr: "err"}.CombinedOutput())
	assert.Equal(t, "", Result{}.CombinedOutput())
}

func TestExitCodeNilError(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
}
