/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/statstore"
	"gopkg.in/yaml.v3"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "StatStore version "+statstore.Version)

	code, out, _ = runCLI(t, "version", "-o", "yaml")
	require.Equal(t, exitOK, code)
	var info statstore.VersionInfo
	require.NoError(t, yaml.Unmarshal([]byte(out), &info))
	assert.Equal(t, statstore.GetVersionInfo(), info)

	code, _, errOut := runCLI(t, "version", "-o", "xml")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "xml")
}

func TestUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"migrate"}},
		{"unknown global flag", []string{"-verbose", "ping"}},
		{"unknown command flag", []string{"ping", "-x"}},
		{"bad schema format", []string{"schema", "-o", "csv"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.NotEmpty(t, errOut)
		})
	}
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv("STATSTORE_STORAGE_URL", "http://127.0.0.1:27518")
	env := filepath.Join(t.TempDir(), "missing.env")

	for _, cmd := range []string{"ping", "schema", "setup-user"} {
		code, _, errOut := runCLI(t, "-env", env, cmd)
		assert.Equal(t, exitFail, code, cmd)
		assert.Contains(t, errOut, "storage.url", cmd)
	}
}

func TestPingUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a closed port")
	}
	t.Setenv("STATSTORE_STORAGE_URL", "mongodb://127.0.0.1:1")
	t.Setenv("STATSTORE_STORAGE_SERVER_SELECTION_TIMEOUT", "200ms")
	t.Setenv("STATSTORE_STORAGE_CONNECT_TIMEOUT", "200ms")
	t.Setenv("STATSTORE_USERNAME", "")

	code, out, _ := runCLI(t, "-env", filepath.Join(t.TempDir(), "missing.env"), "ping")
	assert.Equal(t, exitFail, code)
	assert.Equal(t, "FAILED_TO_CONNECT\n", out)
}

func TestNamedCredentials(t *testing.T) {
	t.Setenv("STATSTORE_PASSWORD", "s3cret")
	c := namedCredentials{user: "thermostat"}
	assert.Equal(t, "thermostat", c.Username())
	assert.Equal(t, []byte("s3cret"), c.Password())
}
