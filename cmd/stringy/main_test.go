//go:build test

package main

import (
	"bytes"
	"debug/elf"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmori/go-binstrings/internal/container/containertesting"
)

func writeSampleELF(t *testing.T) string {
	t.Helper()
	data := containertesting.BuildELF(t, []containertesting.ELFSection{
		{Name: ".text", Type: uint32(elf.SHT_PROGBITS), Flags: uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR), Addr: 0x1000, Data: make([]byte, 16)},
		{Name: ".rodata", Type: uint32(elf.SHT_PROGBITS), Flags: uint64(elf.SHF_ALLOC), Addr: 0x2000,
			Data: []byte("https://example.com/update\x00plain text value\x00")},
	})

	path := filepath.Join(t.TempDir(), "sample.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunNoArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Usage:")
	assert.Contains(t, stderr.String(), errNoFilesProvided.Error())
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-h"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
}

func TestRunTextReport(t *testing.T) {
	path := writeSampleELF(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-color", "never", path}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	text := stdout.String()
	assert.Contains(t, text, path)
	assert.Contains(t, text, "elf")
	assert.Contains(t, text, "https://example.com/update")
	assert.Contains(t, text, "plain text value")
}

func TestRunJSONReport(t *testing.T) {
	path := writeSampleELF(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-json", path}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	var report map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Equal(t, "elf", report["format"])
	assert.NotEmpty(t, report["id"])
}

func TestRunMinLengthOverride(t *testing.T) {
	path := writeSampleELF(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-color", "never", "-min-length", "20", path}, &stdout, &stderr)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "https://example.com/update")
	assert.NotContains(t, stdout.String(), "plain text value")
}

func TestRunConfigFile(t *testing.T) {
	path := writeSampleELF(t)
	configPath := filepath.Join(t.TempDir(), "stringy.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`output = "json"`), 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", configPath, path}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	var report map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Equal(t, "elf", report["format"])
}

func TestRunMissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{filepath.Join(t.TempDir(), "missing.bin")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error analyzing")
}

func TestRunUnrecognizedBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.bin")
	require.NoError(t, os.WriteFile(path, []byte("not a binary at all"), 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error analyzing")
}

func TestRunInvalidColorMode(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-color", "rainbow", "whatever.bin"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "invalid color mode")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		value   string
		want    slog.Level
		wantErr bool
	}{
		{value: "debug", want: slog.LevelDebug},
		{value: "info", want: slog.LevelInfo},
		{value: "warn", want: slog.LevelWarn},
		{value: "error", want: slog.LevelError},
		{value: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			level, err := parseLogLevel(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, errInvalidLogLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}
