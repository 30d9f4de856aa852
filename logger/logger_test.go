/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/statstore/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, logger.ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, logger.ParseLevel(" WARN "))
	assert.Equal(t, zapcore.ErrorLevel, logger.ParseLevel("ERROR"))
	assert.Equal(t, zapcore.InfoLevel, logger.ParseLevel("verbose"))
	assert.Equal(t, zapcore.InfoLevel, logger.ParseLevel(""))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, logger.FormatJSON, logger.ParseFormat("json", logger.FormatConsole))
	assert.Equal(t, logger.FormatPretty, logger.ParseFormat("PRETTY", logger.FormatConsole))
	assert.Equal(t, logger.FormatConsole, logger.ParseFormat("xml", logger.FormatConsole))
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("INFO", logger.FormatJSON, &buf)

	logger.For(log, logger.ComponentStorage).Debug("hidden")
	logger.For(log, logger.ComponentStorage).Info("registered", zap.String("category", "cpu-stats"))
	require.NoError(t, log.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "storage", entry["component"])
	assert.Equal(t, "registered", entry["msg"])
	assert.Equal(t, "cpu-stats", entry["category"])
}

func TestForNil(t *testing.T) {
	assert.NotNil(t, logger.For(nil, logger.ComponentSetup))
}
