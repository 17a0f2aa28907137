package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reset clears the package-level cache so each test observes a fresh load.
func reset() {
	hostConfig = nil
	hostLoaded = false
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

func TestLoadHostConfigDefaults(t *testing.T) {
	reset()
	chdir(t, t.TempDir())

	cfg, err := LoadHostConfig()
	require.NoError(t, err)
	assert.Equal(t, uint16(defaultVendorID), cfg.VendorID)
	assert.Equal(t, uint16(defaultProductID), cfg.ProductID)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, "tui", cfg.ProgressMode)
}

func TestLoadHostConfigReadsDotEnv(t *testing.T) {
	reset()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module fixture\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"NXDT_VENDOR_ID=0x1234\nNXDT_OUTPUT_DIR=/tmp/dumps\nNXDT_PROGRESS_MODE=bar\n",
	), 0o644))
	chdir(t, dir)

	cfg, err := LoadHostConfig()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), cfg.VendorID)
	assert.Equal(t, "/tmp/dumps", cfg.OutputDir)
	assert.Equal(t, "bar", cfg.ProgressMode)
}

func TestLoadHostConfigEnvOverridesDotEnv(t *testing.T) {
	reset()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NXDT_OUTPUT_DIR=/from/dotenv\n"), 0o644))
	chdir(t, dir)

	t.Setenv("NXDT_OUTPUT_DIR", "/from/process/env")

	cfg, err := LoadHostConfig()
	require.NoError(t, err)
	assert.Equal(t, "/from/process/env", cfg.OutputDir)
}

func TestLoadHostConfigCachesResult(t *testing.T) {
	reset()
	chdir(t, t.TempDir())

	first, err := LoadHostConfig()
	require.NoError(t, err)

	t.Setenv("NXDT_OUTPUT_DIR", "/should/not/apply")
	second, err := LoadHostConfig()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, ".", second.OutputDir)
}
