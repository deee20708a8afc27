// Package logging provides categorized structured logging for qrprompt.
// Every category gets a named child of one shared zap core, so a single
// configuration decides level, format and destination for the whole process.
// Until Initialize is called every category logs to a no-op logger.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot    Category = "boot"    // Boot/initialization
	CategoryConfig  Category = "config"  // Configuration reloads
	CategoryScan    Category = "scan"    // Payload normalization
	CategoryFields  Category = "fields"  // Field schema resolution
	CategoryCompile Category = "compile" // Prompt compilation
	CategoryTargets Category = "targets" // AI target resolution and activation
	CategorySession Category = "session" // Session controller state changes
	CategoryServer  Category = "server"  // HTTP and websocket surface
	CategoryBundle  Category = "bundle"  // Bundle export
	CategoryBrowser Category = "browser" // External URL opening
)

// Options mirrors the relevant parts of config.LoggingConfig
// to avoid circular imports
type Options struct {
	Level      string          // debug, info, warn, error
	Format     string          // json, console
	File       string          // empty = stderr
	Categories map[string]bool // nil = all enabled
	Disabled   bool
}

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	opts    Options
	loggers = make(map[Category]*zap.SugaredLogger)
)

// Initialize builds the shared zap logger. It may be called again to
// reconfigure; previously handed out loggers keep their old core.
func Initialize(o Options) error {
	if o.Disabled {
		replaceRoot(zap.NewNop(), o)
		return nil
	}

	level, err := parseLevel(o.Level)
	if err != nil {
		return err
	}

	var cfg zap.Config
	switch strings.ToLower(o.Format) {
	case "", "console", "text":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return fmt.Errorf("unknown log format %q (valid: json, console)", o.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	if o.File != "" {
		cfg.OutputPaths = []string{o.File}
		cfg.ErrorOutputPaths = []string{o.File}
	} else {
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	replaceRoot(logger, o)

	Get(CategoryBoot).Debugw("logging initialized", "level", level.String(), "format", cfg.Encoding, "file", o.File)
	return nil
}

// InitializeWith installs an existing zap logger, mainly for tests.
func InitializeWith(logger *zap.Logger) {
	replaceRoot(logger, Options{})
}

func replaceRoot(logger *zap.Logger, o Options) {
	mu.Lock()
	defer mu.Unlock()
	_ = root.Sync()
	root = logger
	opts = o
	loggers = make(map[Category]*zap.SugaredLogger)
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// IsCategoryEnabled reports whether a category writes anything.
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabledLocked(category)
}

func categoryEnabledLocked(category Category) bool {
	if opts.Categories == nil {
		return true
	}
	enabled, exists := opts.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns the logger for a category.
func Get(category Category) *zap.SugaredLogger {
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
	var l *zap.SugaredLogger
	if categoryEnabledLocked(category) {
		l = root.Named(string(category)).Sugar()
	} else {
		l = zap.NewNop().Sugar()
	}
	loggers[category] = l
	return l
}

// Sync flushes buffered entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}

// Timer measures an operation and logs its duration on Stop.
type Timer struct {
	category  Category
	operation string
	start     time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, operation: operation, start: time.Now()}
}

// SlowThreshold is the duration above which a timed operation logs at warn.
const SlowThreshold = 100 * time.Millisecond

// Stop logs the elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	l := Get(t.category)
	if elapsed > SlowThreshold {
		l.Warnw("slow operation", "op", t.operation, "elapsed", elapsed)
	} else {
		l.Debugw("operation complete", "op", t.operation, "elapsed", elapsed)
	}
	return elapsed
}
