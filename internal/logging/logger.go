// Package logging builds the process-wide zap logger.
package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sanspareilsmyn/momentlens/internal/config"
)

// ErrNoOutputs is returned when neither console nor file output is enabled.
var ErrNoOutputs = errors.New("no logging outputs configured (neither console nor file enabled)")

// NewLogger initializes a zap logger based on the provided configuration,
// supporting both console and rotating file output.
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARN: %v, defaulting to INFO level\n", err)
		level = zapcore.InfoLevel
	}

	isConsole := strings.ToLower(cfg.Format) == "console"
	isDevelopment := (level == zapcore.DebugLevel) || isConsole

	// Configure Console Output
	cores := consoleCores(isConsole, level)

	// Configure File Output
	if cfg.FileLoggingEnabled {
		core, err := fileCore(cfg, level)
		if err != nil {
			return nil, err
		}
		cores = append(cores, core)
	}

	// Combine cores if multiple outputs are configured
	var combinedCore zapcore.Core
	switch len(cores) {
	case 0:
		return nil, ErrNoOutputs
	case 1:
		combinedCore = cores[0]
	default:
		combinedCore = zapcore.NewTee(cores...)
	}

	// --- Build Logger Options ---
	loggerOptions := []zap.Option{zap.AddCaller()}
	if isDevelopment {
		loggerOptions = append(loggerOptions, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	} else {
		loggerOptions = append(loggerOptions, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	logger := zap.New(combinedCore, loggerOptions...).Named("momentlens")

	logger.Debug("Zap logger constructed",
		zap.String("final_level", level.String()),
		zap.String("console_format", cfg.Format),
		zap.Bool("file_logging_enabled", cfg.FileLoggingEnabled),
		zap.String("file_path", filepath.Join(cfg.Directory, cfg.Filename)),
		zap.Bool("development_mode", isDevelopment),
	)

	return logger, nil
}

// consoleCores splits console output: below Error to stdout, Error and above
// to stderr.
func consoleCores(enabled bool, level zapcore.Level) []zapcore.Core {
	if !enabled {
		return nil
	}
	encoder := buildEncoder(true)
	stdout := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= level && lvl < zapcore.ErrorLevel // configured level up to Warn
	}))
	stderr := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= level && lvl >= zapcore.ErrorLevel // Error and above
	}))
	return []zapcore.Core{stdout, stderr}
}

func fileCore(cfg config.LogConfig, level zapcore.Level) (zapcore.Core, error) {
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory '%s': %w", cfg.Directory, err)
	}

	// Configure lumberjack
	ljack := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Directory, cfg.Filename),
		MaxSize:    cfg.MaxSize,    // megabytes
		MaxBackups: cfg.MaxBackups, // files
		MaxAge:     cfg.MaxAge,     // days
		Compress:   cfg.Compress,   // disabled by default
	}
	return zapcore.NewCore(buildEncoder(false), zapcore.AddSync(ljack), level), nil
}

func parseLevel(levelStr string) (zapcore.Level, error) {
	var level zapcore.Level
	err := level.UnmarshalText([]byte(strings.ToLower(levelStr)))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level '%s'", levelStr)
	}
	return level, nil
}

func buildEncoder(useConsoleStyle bool) zapcore.Encoder {
	if useConsoleStyle {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder // Color for console
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	// JSON for file output
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}
