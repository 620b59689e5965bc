// Package logging provides categorized file-based logging for paperchat.
// The interactive UI owns the terminal, so log output goes to a rotating
// file only; stdout stays clean. Until Initialize is called every logging
// call is a silent no-op, which keeps unit tests free of setup.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"paperchat/internal/config"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot      Category = "boot"      // startup, shutdown
	CategorySession   Category = "session"   // chat turns, history
	CategoryUpload    Category = "upload"    // upload batches and outcomes
	CategoryDocuments Category = "documents" // document list, deletes
	CategoryAPI       Category = "api"       // backend HTTP calls
	CategoryUI        Category = "ui"        // view/layout events, render panics
	CategoryWatch     Category = "watch"     // inbox watcher
)

var (
	mu      sync.RWMutex
	root    *zap.SugaredLogger
	byCat   = make(map[Category]*zap.SugaredLogger)
	nop     = zap.NewNop().Sugar()
)

// Options tunes Initialize beyond what the config file carries.
type Options struct {
	// Console mirrors log output to stderr. Only safe for non-TUI
	// subcommands; the interactive program must leave it false.
	Console bool
}

// Initialize builds the zap core over a rotating file sink. dir is the
// directory log files live in (typically ~/.paperchat/logs); a relative
// cfg.File lands there, an absolute one is used as-is.
func Initialize(cfg config.LoggingConfig, dir string, opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	file := cfg.File
	if file == "" {
		file = "paperchat.log"
	}
	if !filepath.IsAbs(file) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		file = filepath.Join(dir, file)
	}

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	})

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.TimeKey = "ts"
	encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder

	level := ParseLevel(cfg.Level)
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, level),
	}
	if opts.Console {
		consoleCfg := zap.NewDevelopmentEncoderConfig()
		consoleCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.AddSync(os.Stderr),
			level,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	root = logger.Sugar()
	byCat = make(map[Category]*zap.SugaredLogger)

	root.Named(string(CategoryBoot)).Infow("logging initialized",
		"file", file, "level", level.String())
	return nil
}

// ParseLevel maps a config level string to a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Initialized reports whether Initialize has run.
func Initialized() bool {
	mu.RLock()
	defer mu.RUnlock()
	return root != nil
}

// Get returns the logger for the given category. Before Initialize it
// returns a no-op logger.
func Get(category Category) *zap.SugaredLogger {
	mu.RLock()
	if root == nil {
		mu.RUnlock()
		return nop
	}
	if l, ok := byCat[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		return nop
	}
	if l, ok := byCat[category]; ok {
		return l
	}
	l := root.Named(string(category))
	byCat[category] = l
	return l
}

// L returns the uncategorized root logger.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	if root == nil {
		return nop
	}
	return root
}

// Sync flushes buffered log entries. Safe to call before Initialize.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if root != nil {
		_ = root.Sync()
	}
}

// =============================================================================
// CONVENIENCE FUNCTIONS - quick logging without getting a logger first
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Infof(format, args...)
}

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...interface{}) {
	Get(CategoryBoot).Debugf(format, args...)
}

// Session logs to the session category
func Session(format string, args ...interface{}) {
	Get(CategorySession).Infof(format, args...)
}

// SessionDebug logs debug to the session category
func SessionDebug(format string, args ...interface{}) {
	Get(CategorySession).Debugf(format, args...)
}

// Upload logs to the upload category
func Upload(format string, args ...interface{}) {
	Get(CategoryUpload).Infof(format, args...)
}

// UploadDebug logs debug to the upload category
func UploadDebug(format string, args ...interface{}) {
	Get(CategoryUpload).Debugf(format, args...)
}

// Documents logs to the documents category
func Documents(format string, args ...interface{}) {
	Get(CategoryDocuments).Infof(format, args...)
}

// API logs to the api category
func API(format string, args ...interface{}) {
	Get(CategoryAPI).Infof(format, args...)
}

// APIDebug logs debug to the api category
func APIDebug(format string, args ...interface{}) {
	Get(CategoryAPI).Debugf(format, args...)
}

// UI logs to the ui category
func UI(format string, args ...interface{}) {
	Get(CategoryUI).Infof(format, args...)
}

// Watch logs to the watch category
func Watch(format string, args ...interface{}) {
	Get(CategoryWatch).Infof(format, args...)
}
