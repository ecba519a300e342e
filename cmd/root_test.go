// File: cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/steadyaim/internal/config"
	"github.com/xkilldash9x/steadyaim/internal/observability"
)

// executeRoot runs a fresh command tree with args and returns its output.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// writeConfig writes a config file pointing the profile directory at dir.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "logger:\n  level: error\nprofiles:\n  dir: " + dir + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := executeRoot(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "steadyaim version "+Version)
}

func TestRootCmd_NoArgs(t *testing.T) {
	out, err := executeRoot(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Steadyaim counters recoil patterns")
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "profile")
}

func TestRootCmd_BadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("loop:\n  idle_poll: -1s\n"), 0o600))

	_, err := executeRoot(t, "--config", path, "profile", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "idle_poll")
}

func TestConfigFromContext_FallsBackToDefaults(t *testing.T) {
	cfg := configFromContext(context.Background())
	assert.Equal(t, config.NewDefaultConfig(), cfg)
}
