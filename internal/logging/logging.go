// Package logging builds the zap logger used across migbridge.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/config"
	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/paths"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultFileToken selects paths.LogFile as the log destination.
const DefaultFileToken = "default"

const (
	maxSizeMB  = 20
	maxBackups = 3
	maxAgeDays = 14
)

// New builds a logger from cfg. Output goes to stderr unless cfg.File is
// set, in which case it goes to a size-rotated file.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.File == "" {
		return NewWithOutput(cfg, os.Stderr)
	}

	file := cfg.File
	if file == DefaultFileToken {
		file = paths.LogFile()
	}
	writer := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	return NewWithOutput(cfg, writer)
}

// NewWithOutput builds a logger from cfg that writes to w, ignoring cfg.File.
func NewWithOutput(cfg config.LogConfig, w io.Writer) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = parsed
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "", "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("log format %q: want console or json", cfg.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(core).Named("migbridge"), nil
}
