// pkg/command/command.go - capability-abstracted runner for external tools.
//
// Every shell-out the backup and restore executors perform (reg.exe, winget,
// choco, scoop, wsl, netsh, PowerShell) goes through the Runner interface so
// collectors stay uniform and testable.

package command

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf16"
)

// Result is the structured outcome of one external command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes external commands.
type Runner interface {
	// Run executes a command and returns its structured result. A non-zero
	// exit code is returned in both Result.ExitCode and err.
	Run(ctx context.Context, name string, args ...string) (Result, error)

	// RunPowerShell executes a PowerShell script fragment.
	RunPowerShell(ctx context.Context, script string) (Result, error)
}

// ExecRunner runs commands with os/exec, applying a per-command timeout.
type ExecRunner struct {
	Timeout time.Duration
}

// NewRunner returns an ExecRunner with the given per-command timeout.
// A zero timeout means no limit beyond the caller's context.
func NewRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(err),
	}

	if ctx.Err() == context.DeadlineExceeded {
		return result, fmt.Errorf("%s timed out after %s", name, r.Timeout)
	}
	if err != nil {
		return result, fmt.Errorf("%s: %w", name, err)
	}
	return result, nil
}

// RunPowerShell implements Runner. The script is passed with -EncodedCommand
// so quoting inside the fragment survives the command line intact.
func (r *ExecRunner) RunPowerShell(ctx context.Context, script string) (Result, error) {
	ps := FindPowerShell()
	if ps == "" {
		return Result{ExitCode: -1}, errors.New("no powershell executable found")
	}
	return r.Run(ctx, ps,
		"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass",
		"-EncodedCommand", EncodePowerShell(script))
}

// FindPowerShell prefers PowerShell Core, falling back to Windows PowerShell.
func FindPowerShell() string {
	if path, err := exec.LookPath("pwsh.exe"); err == nil {
		return path
	}
	if path, err := exec.LookPath("powershell.exe"); err == nil {
		return path
	}
	return ""
}

// EncodePowerShell converts a script to the UTF-16LE base64 form expected
// by powershell -EncodedCommand.
func EncodePowerShell(script string) string {
	codes := utf16.Encode([]rune(script))
	buf := make([]byte, 0, len(codes)*2)
	for _, c := range codes {
		buf = append(buf, byte(c), byte(c>>8))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// exitCode extracts the process exit code from a Run error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// CombinedOutput joins stdout and stderr for log messages.
func (res Result) CombinedOutput() string {
	out := strings.TrimSpace(res.Stdout)
	errOut := strings.TrimSpace(res.Stderr)
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	default:
		return out + "\n" + errOut
	}
}
