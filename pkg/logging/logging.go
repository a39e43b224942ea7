// pkg/logging/logging.go - timestamped logging for the Melody tools.
//
// Each run writes into its own timestamped subdirectory (YYYY-MM-DD-HHMMss)
// under the logging base directory, in two formats: a traditional plain-text
// melody.log and a structured melody.jsonl with one JSON object per line.
// Old run directories are pruned on startup according to the retention count.

package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/windows"
)

// LogLevel represents the severity of the log message.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel.
func (ll LogLevel) String() string {
	switch ll {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configuration string to a LogLevel, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Entry is a single structured log record as written to melody.jsonl.
type Entry struct {
	Time       int64                  `json:"time"`
	Timestamp  string                 `json:"timestamp"`
	Level      string                 `json:"level"`
	Message    string                 `json:"message"`
	Component  string                 `json:"component"`
	PID        int64                  `json:"pid"`
	Hostname   string                 `json:"hostname"`
	SessionID  string                 `json:"session_id"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// Options configures the file logger.
type Options struct {
	BaseDir   string   // base logging directory
	Component string   // component name recorded in each entry
	Level     LogLevel // minimum level written
	Retention int      // timestamped run directories to keep
	Console   bool     // mirror the plain log to stdout
}

// FileLogger writes run-scoped log files.
type FileLogger struct {
	mu        sync.Mutex
	plain     *log.Logger
	logFile   *os.File
	jsonFile  *os.File
	opts      Options
	logDir    string
	hostname  string
	sessionID string
}

var (
	instance *FileLogger
	once     sync.Once
)

// DefaultOptions returns the standard logging setup for the Melody tools.
func DefaultOptions() Options {
	return Options{
		BaseDir:   `C:\ProgramData\MelodyRecovery\logs`,
		Component: "melody",
		Level:     LevelInfo,
		Retention: 20,
		Console:   false,
	}
}

// Init initializes the package-level file logger. It must be called before
// the package-level logging functions are used.
func Init(opts Options) error {
	var initErr error
	once.Do(func() {
		instance, initErr = newFileLogger(opts)
	})
	return initErr
}

// Close flushes and closes the package-level logger's files.
func Close() {
	if instance == nil {
		return
	}
	instance.mu.Lock()
	defer instance.mu.Unlock()
	if instance.logFile != nil {
		instance.logFile.Close()
		instance.logFile = nil
	}
	if instance.jsonFile != nil {
		instance.jsonFile.Close()
		instance.jsonFile = nil
	}
}

// CurrentLogDir returns the timestamped directory for this run, or "".
func CurrentLogDir() string {
	if instance == nil {
		return ""
	}
	return instance.logDir
}

// SessionID returns the unique identifier for this run, or "".
func SessionID() string {
	if instance == nil {
		return ""
	}
	return instance.sessionID
}

func newFileLogger(opts Options) (*FileLogger, error) {
	start := time.Now()
	if err := os.MkdirAll(opts.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base log directory: %w", err)
	}

	logDir := filepath.Join(opts.BaseDir, start.Format("2006-01-02-150405"))
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	fl := &FileLogger{
		opts:      opts,
		logDir:    logDir,
		hostname:  hostname,
		sessionID: fmt.Sprintf("melody-%d-%s", os.Getpid(), start.Format("2006-01-02-150405")),
	}

	var err error
	fl.logFile, err = os.OpenFile(filepath.Join(logDir, "melody.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open main log file: %w", err)
	}
	fl.jsonFile, err = os.OpenFile(filepath.Join(logDir, "melody.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSON log file: %w", err)
	}

	if opts.Console {
		fl.plain = log.New(io.MultiWriter(os.Stdout, fl.logFile), "", 0)
	} else {
		fl.plain = log.New(fl.logFile, "", 0)
	}

	fl.pruneOldRuns()

	return fl, nil
}

// pruneOldRuns deletes the oldest timestamped run directories beyond the
// retention count. Best effort.
func (l *FileLogger) pruneOldRuns() {
	if l.opts.Retention <= 0 {
		return
	}
	entries, err := os.ReadDir(l.opts.BaseDir)
	if err != nil {
		return
	}
	var runs []string
	for _, entry := range entries {
		// Run directories look like 2025-08-25-142015
		if entry.IsDir() && len(entry.Name()) == 17 && strings.Count(entry.Name(), "-") == 3 {
			runs = append(runs, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(runs)))
	for i := l.opts.Retention; i < len(runs); i++ {
		os.RemoveAll(filepath.Join(l.opts.BaseDir, runs[i]))
	}
}

func (l *FileLogger) logMessage(level LogLevel, message string, keyValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.plain == nil || level > l.opts.Level {
		return
	}

	properties := make(map[string]interface{})
	for i := 0; i+1 < len(keyValues); i += 2 {
		properties[fmt.Sprintf("%v", keyValues[i])] = keyValues[i+1]
	}

	now := time.Now()
	entry := Entry{
		Time:       now.Unix(),
		Timestamp:  now.Format(time.RFC3339),
		Level:      level.String(),
		Message:    message,
		Component:  l.opts.Component,
		PID:        int64(os.Getpid()),
		Hostname:   l.hostname,
		SessionID:  l.sessionID,
		Properties: properties,
	}

	l.writePlain(entry, keyValues)
	l.writeJSON(entry)

	l.logFile.Sync()
	l.jsonFile.Sync()
}

func (l *FileLogger) writePlain(entry Entry, keyValues []interface{}) {
	ts := time.Unix(entry.Time, 0).Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] %-5s %s", ts, entry.Level, entry.Message)
	for i := 0; i+1 < len(keyValues); i += 2 {
		line += fmt.Sprintf(" %v=%v", keyValues[i], keyValues[i+1])
	}
	l.plain.Println(line)
}

func (l *FileLogger) writeJSON(entry Entry) {
	if data, err := json.Marshal(entry); err == nil {
		l.jsonFile.WriteString(string(data) + "\n")
	}
}

// Info logs informational messages.
func Info(message string, keyValues ...interface{}) {
	if instance == nil {
		fmt.Printf("LOGGING NOT INITIALIZED: INFO %s %v\n", message, keyValues)
		return
	}
	instance.logMessage(LevelInfo, message, keyValues...)
}

// Debug logs debug messages.
func Debug(message string, keyValues ...interface{}) {
	if instance == nil {
		return
	}
	instance.logMessage(LevelDebug, message, keyValues...)
}

// Warn logs warning messages.
func Warn(message string, keyValues ...interface{}) {
	if instance == nil {
		fmt.Printf("LOGGING NOT INITIALIZED: WARN %s %v\n", message, keyValues)
		return
	}
	instance.logMessage(LevelWarn, message, keyValues...)
}

// Error logs error messages.
func Error(message string, keyValues ...interface{}) {
	if instance == nil {
		fmt.Printf("LOGGING NOT INITIALIZED: ERROR %s %v\n", message, keyValues)
		return
	}
	instance.logMessage(LevelError, message, keyValues...)
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGreen  = "\033[32m"
)

// enableColors enables ANSI colors for the Windows console.
func enableColors() {
	if runtime.GOOS == "windows" {
		handle := windows.Handle(windows.STD_OUTPUT_HANDLE)
		var mode uint32
		if err := windows.GetConsoleMode(handle, &mode); err == nil {
			mode |= windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING
			_ = windows.SetConsoleMode(handle, mode)
		}
	}
}

// Logger is the console logger used by the CLIs.
type Logger struct {
	mu      sync.Mutex
	out     *log.Logger
	debugOn bool
}

// New creates a console Logger. With verbose true, debug output is shown
// and messages go to stdout instead of stderr.
func New(verbose bool) *Logger {
	enableColors()
	output := os.Stderr
	if verbose {
		output = os.Stdout
	}
	return &Logger{
		out:     log.New(output, "", 0),
		debugOn: verbose,
	}
}

func (l *Logger) colorPrintf(color, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := time.Now().Format("2006-01-02 15:04:05")
	l.out.Printf("%s[%s] %s%s", color, ts, fmt.Sprintf(format, v...), colorReset)
}

// Printf prints a regular timestamped message.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := time.Now().Format("2006-01-02 15:04:05")
	l.out.Printf("[%s] %s", ts, fmt.Sprintf(format, v...))
}

// Info prints an informational message.
func (l *Logger) Info(format string, v ...interface{}) {
	l.Printf(format, v...)
}

// Success prints a success message in green.
func (l *Logger) Success(format string, v ...interface{}) {
	l.colorPrintf(colorGreen, format, v...)
}

// Error prints an error message in red.
func (l *Logger) Error(format string, v ...interface{}) {
	l.colorPrintf(colorRed, format, v...)
}

// Warning prints a warning message in yellow.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.colorPrintf(colorYellow, format, v...)
}

// Debug prints a debug message in blue when verbose output is enabled.
func (l *Logger) Debug(format string, v ...interface{}) {
	if !l.debugOn {
		return
	}
	l.colorPrintf(colorBlue, format, v...)
}

// Fatal prints an error message in red and exits.
func (l *Logger) Fatal(format string, v ...interface{}) {
	l.Error(format, v...)
	os.Exit(1)
}
