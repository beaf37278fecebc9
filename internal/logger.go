package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	loggerMu sync.RWMutex
	logger   = newLogger(os.Stderr)
	logFile  *os.File
)

func newLogger(w io.Writer) *zap.SugaredLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), logLevel)
	return zap.New(core).Sugar()
}

// SetLogLevel sets the global log level
func SetLogLevel(level zapcore.Level) {
	logLevel.SetLevel(level)
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(zapcore.DebugLevel)
	} else {
		SetLogLevel(zapcore.InfoLevel)
	}
}

// SetLogOutput sends log output to w
func SetLogOutput(w io.Writer) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	_ = logger.Sync()
	logger = newLogger(w)
}

// SetLogFile sends log output to the file at path, creating it if needed.
// The interactive UI uses this so log lines never land on the screen.
func SetLogFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	SetLogOutput(f)

	loggerMu.Lock()
	prev := logFile
	logFile = f
	loggerMu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// CloseLog flushes the logger and closes any log file
func CloseLog() {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	_ = logger.Sync()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
		logger = newLogger(os.Stderr)
	}
}

func current() *zap.SugaredLogger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	current().Errorf(format, args...)
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	current().Warnf(format, args...)
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	current().Infof(format, args...)
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	current().Debugf(format, args...)
}
