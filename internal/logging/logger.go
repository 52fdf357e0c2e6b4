// Package logging provides config-driven categorized logging for lessonpanel.
// Each category gets a named zap logger; categories can be switched off and
// optionally mirrored into one file per category per day.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup, config loading
	CategoryCharts  Category = "charts"  // Chart data resolution and rendering
	CategoryNotify  Category = "notify"  // Mark-read requests and view updates
	CategoryBrowser Category = "browser" // Browser sessions, DevTools events
	CategoryPage    Category = "page"    // Page console output
	CategoryFixture Category = "fixture" // Demo server requests
)

// Config controls the logging system.
type Config struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`
	// Format is json or console. Defaults to console.
	Format string `yaml:"format"`
	// Dir, when set, receives one <date>_<category>.log file per category.
	Dir string `yaml:"dir"`
	// Categories disables individual categories when set to false.
	Categories map[string]bool `yaml:"categories"`
}

var (
	mu      sync.RWMutex
	cfg     Config
	base    = zap.NewNop()
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	loggers = make(map[Category]*zap.Logger)
	files   = make(map[Category]*os.File)
)

// ParseLevel maps a level name to a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// Initialize builds the root logger writing to stderr from c.
func Initialize(c Config) error {
	lvl, err := ParseLevel(c.Level)
	if err != nil {
		return err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.Encoding = encoding(c.Format)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if zc.Encoding == "console" {
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	root, err := zc.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	return InitializeWith(root, c)
}

// InitializeWith installs root as the parent of every category logger.
// The CLI and tests use it to supply their own logger.
func InitializeWith(root *zap.Logger, c Config) error {
	lvl, err := ParseLevel(c.Level)
	if err != nil {
		return err
	}
	if c.Dir != "" {
		if err := os.MkdirAll(c.Dir, 0o755); err != nil {
			return fmt.Errorf("failed to create logs directory: %w", err)
		}
	}

	Reset()
	mu.Lock()
	if root == nil {
		root = zap.NewNop()
	}
	base = root
	cfg = c
	level.SetLevel(lvl)
	mu.Unlock()

	boot := Get(CategoryBoot)
	boot.Debug("logging initialized",
		zap.String("level", lvl.String()),
		zap.String("format", encoding(c.Format)),
		zap.String("dir", c.Dir),
	)
	for name, enabled := range c.Categories {
		boot.Debug("category filter", zap.String("category", name), zap.Bool("enabled", enabled))
	}
	return nil
}

func encoding(format string) string {
	if strings.EqualFold(format, "json") {
		return "json"
	}
	return "console"
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	if cfg.Categories == nil {
		return true
	}
	enabled, exists := cfg.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) the logger for a category. Disabled categories
// get a no-op logger.
func Get(category Category) *zap.Logger {
	if !IsCategoryEnabled(category) {
		return zap.NewNop()
	}

	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	l := base
	if cfg.Dir != "" {
		if core, err := fileCore(category); err != nil {
			fmt.Fprintf(os.Stderr, "[logging] Warning: %v\n", err)
		} else {
			l = base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
				return zapcore.NewTee(c, core)
			}))
		}
	}
	l = l.Named(string(category))
	loggers[category] = l
	return l
}

// fileCore opens the category's log file for today. Caller holds mu.
func fileCore(category Category) (zapcore.Core, error) {
	date := time.Now().Format(time.DateOnly)
	path := filepath.Join(cfg.Dir, fmt.Sprintf("%s_%s.log", date, category))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("could not open log file %s: %w", path, err)
	}
	files[category] = f

	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if encoding(cfg.Format) == "json" {
		enc = zapcore.NewJSONEncoder(ec)
	} else {
		enc = zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewCore(enc, zapcore.AddSync(f), level), nil
}

// Sync flushes the root logger and every category file.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	var firstErr error
	for _, f := range files {
		if err := f.Sync(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	// stderr sync errors are ignored.
	_ = base.Sync()
	return firstErr
}

// Reset closes category files and returns to a no-op root logger.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	for _, f := range files {
		f.Close()
	}
	files = make(map[Category]*os.File)
	loggers = make(map[Category]*zap.Logger)
	base = zap.NewNop()
	cfg = Config{}
	level.SetLevel(zapcore.InfoLevel)
}

// Boot logs to the boot category
func Boot(msg string, fields ...zap.Field) {
	Get(CategoryBoot).Info(msg, fields...)
}

// BootDebug logs debug to the boot category
func BootDebug(msg string, fields ...zap.Field) {
	Get(CategoryBoot).Debug(msg, fields...)
}

// BootWarn logs a warning to the boot category
func BootWarn(msg string, fields ...zap.Field) {
	Get(CategoryBoot).Warn(msg, fields...)
}

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug(t.op+" completed", zap.Duration("elapsed", elapsed))
	return elapsed
}

// StopWithThreshold logs a warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn(t.op+" slow", zap.Duration("elapsed", elapsed), zap.Duration("threshold", threshold))
	} else {
		Get(t.category).Debug(t.op+" completed", zap.Duration("elapsed", elapsed))
	}
	return elapsed
}
