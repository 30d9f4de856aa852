/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel string

type LogFormat string

const (
	DebugLevel LogLevel = "DEBUG"
	InfoLevel  LogLevel = "INFO"
	WarnLevel  LogLevel = "WARN"
	ErrorLevel LogLevel = "ERROR"

	// FormatConsole is the human-readable single line format.
	FormatConsole LogFormat = "CONSOLE"
	// FormatJSON is structured JSON, one object per line.
	FormatJSON LogFormat = "JSON"
	// FormatPretty is the console format with padded component names.
	FormatPretty LogFormat = "PRETTY"
)

// Environment variables read by FromEnv.
const (
	EnvLevel  = "LOGGING_LEVEL"
	EnvFormat = "LOGGING_FORMAT"
)

// ParseLevel maps a level name to a zap level. Unknown names map to INFO.
func ParseLevel(level string) zapcore.Level {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(level))) {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseFormat maps a format name to a LogFormat, falling back to def.
func ParseFormat(format string, def LogFormat) LogFormat {
	switch f := LogFormat(strings.ToUpper(strings.TrimSpace(format))); f {
	case FormatConsole, FormatJSON, FormatPretty:
		return f
	default:
		return def
	}
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05 MST"))
}

func prettyNameEncoder(name string, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + padRight(name, 12) + "]")
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

// New creates a logger writing to stdout.
func New(level string, format LogFormat) *zap.Logger {
	return NewWithWriter(level, format, os.Stdout)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(level string, format LogFormat, w io.Writer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	switch format {
	case FormatConsole, FormatPretty:
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = timeEncoder
		encoderConfig.ConsoleSeparator = " | "
		if format == FormatPretty {
			encoderConfig.EncodeName = prettyNameEncoder
		}
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(ParseLevel(level)))
	return zap.New(core, zap.AddCaller())
}

// FromEnv creates a logger configured by LOGGING_LEVEL and LOGGING_FORMAT,
// defaulting to INFO and the given format.
func FromEnv(def LogFormat) *zap.Logger {
	return New(os.Getenv(EnvLevel), ParseFormat(os.Getenv(EnvFormat), def))
}

// For returns the named sub-logger of a component, or a no-op logger when
// base is nil.
func For(base *zap.Logger, component string) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base.Named(component)
}
