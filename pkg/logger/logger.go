// Package logger provides the process-wide leveled logger used by every
// shop-e2e package. Output goes to a rotating log file and, optionally, to the
// console.
package logger

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.Mutex
	sugar   = zap.NewNop().Sugar()
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logFile *lumberjack.Logger
	console zapcore.WriteSyncer
)

// Init initializes the global logger with the specified log file path.
// The file is rotated by size; a console sink is added when EnableConsole was
// called before Init.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	// Close previous log file if exists
	if logFile != nil {
		_ = sugar.Sync()
		logFile.Close()
		logFile = nil
	}

	if logPath == "" {
		return fmt.Errorf("failed to create log file: empty path")
	}

	logFile = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    20, // megabytes
		MaxBackups: 3,
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(logFile), level),
	}
	if console != nil {
		consoleCfg := encCfg
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), console, level))
	}

	sugar = zap.New(zapcore.NewTee(cores...)).Sugar()
	return nil
}

// EnableConsole mirrors log output to w on the next Init.
func EnableConsole(w zapcore.WriteSyncer) {
	mu.Lock()
	defer mu.Unlock()
	console = w
}

// Use replaces the global logger. Tests use it with zaptest or observer loggers.
func Use(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	sugar = l.Sugar()
}

// L returns the underlying structured logger.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return sugar.Desugar()
}

// SetLevel sets the minimum level. Accepts names (debug, info, warn, error)
// or the numeric form 0..3 used by LOG_LEVEL.
func SetLevel(s string) error {
	lvl, err := ParseLevel(s)
	if err != nil {
		return err
	}
	level.SetLevel(lvl)
	return nil
}

// ParseLevel converts a level name or number to a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if n, err := strconv.Atoi(s); err == nil {
		switch n {
		case 0:
			return zapcore.DebugLevel, nil
		case 1:
			return zapcore.InfoLevel, nil
		case 2:
			return zapcore.WarnLevel, nil
		case 3:
			return zapcore.ErrorLevel, nil
		}
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %d: expected 0-3", n)
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	_ = sugar.Sync()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	sugar = zap.NewNop().Sugar()
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	current().Infof(format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	current().Debugf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	current().Errorf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	current().Warnf(format, v...)
}

// GetWriter returns the log file writer, or io.Discard before Init.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}

func current() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return sugar
}
