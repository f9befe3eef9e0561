// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netwatch/netwatch/pkg/workspace"
)

const redisListing = `COMMAND     PID   USER   FD   TYPE             DEVICE SIZE/OFF NODE NAME
redis-ser   812   root    6u  IPv4 0x2d2c3b4a5e6f7a8b      0t0  TCP *:6379 (LISTEN)
`

// testEnv isolates the workspace and config directory of a test.
func testEnv(t *testing.T) string {
	t.Helper()
	ws := filepath.Join(t.TempDir(), "workspace")
	t.Setenv(workspace.EnvWorkspace, ws)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return ws
}

func writeListing(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listing.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, ctx context.Context, stdin string, args ...string) cliResult {
	t.Helper()
	cmd := NewCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)

	if ctx == nil {
		ctx = context.Background()
	}
	err := cmd.ExecuteContext(ctx)
	return cliResult{stdout: out.String(), stderr: errOut.String(), err: err}
}
