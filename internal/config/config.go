// Package config loads the host companion's runtime configuration: which
// USB device to open, where to write dumped files, and how progress should
// be reported. Project-root discovery and the load-then-override idiom are
// kept from the hand-rolled parser this package replaces; the parsing
// itself is now godotenv's.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// HostConfig configures cmd/nxdt-host.
type HostConfig struct {
	VendorID  uint16
	ProductID uint16
	OutputDir string
	// ProgressMode selects the pkg/progress.Reporter implementation:
	// "tui" (bubbletea), "bar" (mpb) or "none" (no output). Defaults to
	// "tui"; cmd/nxdt-host treats any other value as "tui".
	ProgressMode string
}

var (
	hostConfig *HostConfig
	hostLoaded bool
)

const (
	defaultVendorID  = 0x057e
	defaultProductID = 0x3000
)

// LoadHostConfig loads .env from the project root (if present) and layers
// environment variables on top, caching the result for later calls.
func LoadHostConfig() (*HostConfig, error) {
	if hostConfig != nil && hostLoaded {
		return hostConfig, nil
	}

	cfg := &HostConfig{
		VendorID:     defaultVendorID,
		ProductID:    defaultProductID,
		OutputDir:    ".",
		ProgressMode: "tui",
	}

	envPath := filepath.Join(findProjectRoot(), ".env")
	if vars, err := godotenv.Read(envPath); err == nil {
		applyEnv(cfg, func(key string) (string, bool) {
			v, ok := vars[key]
			return v, ok
		})
	}

	// Override with actual process environment variables, same precedence
	// the prior hand-rolled loader gave os.Getenv over the .env file.
	applyEnv(cfg, func(key string) (string, bool) {
		v := os.Getenv(key)
		return v, v != ""
	})

	hostConfig = cfg
	hostLoaded = true
	return cfg, nil
}

func applyEnv(cfg *HostConfig, lookup func(string) (string, bool)) {
	if v, ok := lookup("NXDT_VENDOR_ID"); ok {
		if id, err := strconv.ParseUint(v, 0, 16); err == nil {
			cfg.VendorID = uint16(id)
		}
	}
	if v, ok := lookup("NXDT_PRODUCT_ID"); ok {
		if id, err := strconv.ParseUint(v, 0, 16); err == nil {
			cfg.ProductID = uint16(id)
		}
	}
	if v, ok := lookup("NXDT_OUTPUT_DIR"); ok {
		cfg.OutputDir = v
	}
	if v, ok := lookup("NXDT_PROGRESS_MODE"); ok {
		cfg.ProgressMode = v
	}
}

// findProjectRoot locates the directory godotenv should load .env from: the
// working directory itself if it already has one, otherwise the nearest
// ancestor carrying a go.mod, otherwise the working directory unchanged.
func findProjectRoot() string {
	dir, _ := os.Getwd()
	if hasFile(dir, ".env") {
		return dir
	}
	for {
		if hasFile(dir, "go.mod") {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
