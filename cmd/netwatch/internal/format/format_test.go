// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/config"
	"github.com/netwatch/netwatch/pkg/server"
)

func TestPrintJSON(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		expected string
	}{
		{
			name:     "simple object",
			data:     map[string]int{"port": 6379},
			expected: "{\n  \"port\": 6379\n}\n",
		},
		{
			name:     "array",
			data:     []string{"ssh", "redis"},
			expected: "[\n  \"ssh\",\n  \"redis\"\n]\n",
		},
		{
			name:     "nil",
			data:     nil,
			expected: "null\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			f := New(&stdout, &stderr, ModeJSON, false, false)
			require.NoError(t, f.PrintJSON(tt.data))
			assert.Equal(t, tt.expected, stdout.String())
			assert.Empty(t, stderr.String())
		})
	}
}

func TestPrintData_YAML(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeYAML, false, false)
	require.NoError(t, f.PrintData(map[string]int{"port": 22}))
	assert.Equal(t, "port: 22\n", stdout.String())
}

func TestPrintTable_Text(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeText, false, false)
	require.NoError(t, f.PrintTable(
		[]string{"Port", "Service"},
		[][]string{{"22", "SSH"}, {"6379", "Redis"}},
	))

	assert.Equal(t, "PORT  SERVICE\n22    SSH\n6379  Redis\n", stdout.String())
}

func TestPrintTable_Structured(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeJSON, false, false)
	require.NoError(t, f.PrintTable(
		[]string{"Port", "Service"},
		[][]string{{"22", "SSH"}, {"6379"}},
	))

	var items []map[string]string
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "SSH", items[0]["service"])
	assert.NotContains(t, items[1], "service")
}

func TestPrintSummary(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.NoError(t, New(&stdout, &stderr, ModeText, false, false).PrintSummary("done"))
		assert.Equal(t, "done\n", stdout.String())
	})
	t.Run("json goes to stderr", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.NoError(t, New(&stdout, &stderr, ModeJSON, false, false).PrintSummary("done"))
		assert.Empty(t, stdout.String())
		assert.Equal(t, "done\n", stderr.String())
	})
	t.Run("quiet", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.NoError(t, New(&stdout, &stderr, ModeText, true, false).PrintSummary("done"))
		assert.Empty(t, stdout.String()+stderr.String())
	})
}

func TestPrintError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, New(&stdout, &stderr, ModeText, false, false).PrintError(errors.New("boom")))
	assert.Equal(t, "Error: boom\n", stderr.String())

	stdout.Reset()
	require.NoError(t, New(&stdout, &stderr, ModeJSON, false, false).PrintError(errors.New("boom")))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, "boom", decoded["error"])

	assert.NoError(t, New(&stdout, &stderr, ModeText, false, false).PrintError(nil))
}

func TestPrintSuccessSummary(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(&stdout, &stderr, ModeText, false, false)
	require.NoError(t, f.PrintSuccessSummary("export", "Exported report to out.json"))
	require.NoError(t, f.PrintSuccessSummary("validate", ""))
	assert.Equal(t, "✓ Exported report to out.json\n✓ Validate completed successfully\n", stdout.String())

	stdout.Reset()
	require.NoError(t, New(&stdout, &stderr, ModeYAML, false, false).PrintSuccessSummary("validate", "ok"))
	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, "validate", decoded["operation"])
}

func TestPrintTotalFailureSummary(t *testing.T) {
	err := fmt.Errorf("collect from lsof: %w", analysis.ErrPermissionDenied)

	t.Run("text", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		got := New(&stdout, &stderr, ModeText, false, false).PrintTotalFailureSummary("analyze", err)

		require.Error(t, got)
		assert.True(t, IsReported(got))
		assert.ErrorIs(t, got, analysis.ErrPermissionDenied)
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "✗ Failed to analyze: collect from lsof")
		assert.Contains(t, stderr.String(), "Suggestions:")
		assert.Contains(t, stderr.String(), "sudo netwatch analyze")
	})

	t.Run("json", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		got := New(&stdout, &stderr, ModeJSON, false, false).PrintTotalFailureSummary("analyze", err)
		assert.True(t, IsReported(got))

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
		assert.Equal(t, analysis.ErrorCodePermissionDenied, decoded["error_code"])
	})

	t.Run("quiet", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		got := New(&stdout, &stderr, ModeText, true, false).PrintTotalFailureSummary("analyze", err)
		assert.True(t, IsReported(got))
		assert.NotContains(t, stderr.String(), "Suggestions")
		assert.Contains(t, stderr.String(), "Error:")
	})

	t.Run("nil", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		assert.NoError(t, New(&stdout, &stderr, ModeText, false, false).PrintTotalFailureSummary("analyze", nil))
	})
}

func TestErrorCodeAndSuggestions(t *testing.T) {
	portErr := server.NewInvalidPortError(0)
	assert.Equal(t, "SERVER_INVALID_PORT", ErrorCode(portErr))
	assert.Equal(t, server.Suggestions(portErr), Suggestions(portErr))

	cfgErr := fmt.Errorf("%w: log.level", config.ErrInvalidConfig)
	assert.Equal(t, errorCodeInvalidConfig, ErrorCode(cfgErr))
	assert.NotEmpty(t, Suggestions(cfgErr))

	assert.Equal(t, analysis.ErrorCodeInvalidRules, ErrorCode(analysis.ErrInvalidRules))
	assert.Equal(t, analysis.Suggestions(analysis.ErrInvalidRules), Suggestions(analysis.ErrInvalidRules))

	assert.Empty(t, ErrorCode(nil))
	assert.Nil(t, Suggestions(nil))
}

func TestParseAndValidateMode(t *testing.T) {
	assert.Equal(t, ModeJSON, ParseMode("JSON"))
	assert.Equal(t, ModeYAML, ParseMode("yml"))
	assert.Equal(t, ModeText, ParseMode(""))
	assert.Equal(t, ModeText, ParseMode("bogus"))

	assert.NoError(t, ValidateMode("yaml"))
	assert.NoError(t, ValidateMode("text"))
	assert.Error(t, ValidateMode("xml"))
}

func TestFromCommand(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("output", "text", "")
	cmd.Flags().Bool("quiet", false, "")
	cmd.Flags().Bool("no-color", false, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--output", "json", "--quiet", "--no-color"}))

	var out bytes.Buffer
	cmd.SetOut(&out)
	f := FromCommand(cmd)

	assert.Equal(t, ModeJSON, f.Mode())
	assert.True(t, f.Quiet())
	assert.False(t, f.Color())
	assert.Same(t, &out, f.Stdout())
}

func TestFromCommand_Defaults(t *testing.T) {
	f := FromCommand(&cobra.Command{Use: "test"})
	assert.Equal(t, ModeText, f.Mode())
	assert.False(t, f.Quiet())
	assert.NotNil(t, f.Stdout())
}
