package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/killallgit/compass/pkg/config"
)

type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[LogLevel]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel maps a config value to a level. Unknown values mean info.
func ParseLevel(levelStr string) LogLevel {
	name := strings.ToUpper(strings.TrimSpace(levelStr))
	if name == "WARNING" {
		return LevelWarn
	}
	for level, n := range levelNames {
		if n == name {
			return level
		}
	}
	return LevelInfo
}

// Logger writes leveled lines to a file. Errors are also echoed to a console
// writer unless the console is muted, which the full-screen UI does while it
// owns the terminal.
type Logger struct {
	mu      sync.Mutex
	level   LogLevel
	out     *log.Logger
	file    *os.File
	console io.Writer
	muted   atomic.Bool
}

var defaultLogger atomic.Pointer[Logger]

// Init opens the log file named in the loaded config and makes it the
// package default. Calling it again is a no-op until Close.
func Init() error {
	if defaultLogger.Load() != nil {
		return nil
	}

	settings := config.Get()
	l, err := New(ParseLevel(settings.Logging.Level), settings.Logging.LogFile, settings.Logging.Preserve)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defaultLogger.Store(l)
	return nil
}

// New opens logFile, truncating it unless preserve is set. A relative path
// lands in the settings directory.
func New(level LogLevel, logFile string, preserve bool) (*Logger, error) {
	path := logFile
	if !filepath.IsAbs(path) {
		path = config.BuildSettingsPath(filepath.Base(path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	mode := os.O_TRUNC
	if preserve {
		mode = os.O_APPEND
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|mode, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &Logger{
		level:   level,
		out:     log.New(file, "", log.LstdFlags|log.Lmicroseconds),
		file:    file,
		console: os.Stderr,
	}, nil
}

// NewWithWriter returns a logger writing to w with no console echo.
func NewWithWriter(level LogLevel, w io.Writer) *Logger {
	return &Logger{
		level:   level,
		out:     log.New(w, "", 0),
		console: io.Discard,
	}
}

// SetDefault replaces the package-level logger. nil disables logging.
func SetDefault(l *Logger) {
	defaultLogger.Store(l)
}

// SetConsole redirects the error echo.
func (l *Logger) SetConsole(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console = w
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) write(level LogLevel, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	message := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Printf("[%s] %s", level, message)
	if level >= LevelError && !l.muted.Load() {
		fmt.Fprintf(l.console, "[%s] %s\n", level, message)
	}
}

func (l *Logger) Debug(format string, args ...interface{}) { l.write(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.write(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.write(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.write(LevelError, format, args...) }

// Fatal logs and exits.
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.write(LevelFatal, format, args...)
	os.Exit(1)
}

func Debug(format string, args ...interface{}) {
	if l := defaultLogger.Load(); l != nil {
		l.Debug(format, args...)
	}
}

func Info(format string, args ...interface{}) {
	if l := defaultLogger.Load(); l != nil {
		l.Info(format, args...)
	}
}

func Warn(format string, args ...interface{}) {
	if l := defaultLogger.Load(); l != nil {
		l.Warn(format, args...)
	}
}

func Error(format string, args ...interface{}) {
	if l := defaultLogger.Load(); l != nil {
		l.Error(format, args...)
	}
}

func Fatal(format string, args ...interface{}) {
	if l := defaultLogger.Load(); l != nil {
		l.Fatal(format, args...)
	}
	fmt.Fprintf(os.Stderr, "[FATAL] "+format+"\n", args...)
	os.Exit(1)
}

// MuteConsole stops the default logger from echoing errors to the terminal
// and returns a func that restores it.
func MuteConsole() (restore func()) {
	l := defaultLogger.Load()
	if l == nil {
		return func() {}
	}
	was := l.muted.Swap(true)
	return func() { l.muted.Store(was) }
}

// Close closes the default logger's file and disables logging.
func Close() error {
	if l := defaultLogger.Swap(nil); l != nil {
		return l.Close()
	}
	return nil
}
