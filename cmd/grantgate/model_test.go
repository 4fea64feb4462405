package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	monetizationdomain "github.com/smallbiznis/grantgate/internal/monetization/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand("test", "none", "unknown")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestModelGetDefaultsToFree(t *testing.T) {
	out, err := execute(t, "model", "get", "--config-dir", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "Free", strings.TrimSpace(out))
}

func TestModelSetPersists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "monetization.yml"), []byte("monetization:\n  model: Free\n"), 0o600))

	out, err := execute(t, "model", "set", "pay_per_feature", "--config-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "PayPerFeature")

	out, err = execute(t, "model", "get", "--config-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "PayPerFeature", strings.TrimSpace(out))
}

func TestModelSetRejectsUnknown(t *testing.T) {
	_, err := execute(t, "model", "set", "Lifetime", "--config-dir", t.TempDir())
	assert.ErrorIs(t, err, monetizationdomain.ErrUnknownModel)
}

func TestModelSetNeedsFile(t *testing.T) {
	_, err := execute(t, "model", "set", "Free", "--config-dir", t.TempDir())
	assert.ErrorContains(t, err, "no monetization.yml")
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "test (commit: none")
}
