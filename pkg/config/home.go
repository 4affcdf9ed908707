package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"
)

const envHome = "SHOP_E2E_HOME"

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the shop-e2e workspace directory.
//
// Resolution order:
//  1. $SHOP_E2E_HOME environment variable (~ is expanded)
//  2. Parent of the binary's directory (if binary is in <home>/bin/)
//  3. Current working directory (development fallback)
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

// GetAppsDir returns <home>/apps, where simulator app bundles live.
func GetAppsDir() string {
	return filepath.Join(GetHome(), "apps")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) string {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return p
	}
	return expanded
}

func resolveHome() string {
	// 1. Environment variable
	if env := os.Getenv(envHome); env != "" {
		return ExpandPath(env)
	}

	// 2. Binary-relative: if binary is at <home>/bin/shop-e2e, use <home>
	if execPath, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
			execPath = resolved
		}
		binDir := filepath.Dir(execPath)
		if filepath.Base(binDir) == "bin" {
			return filepath.Dir(binDir)
		}
	}

	// 3. Current working directory
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}

	return "."
}

// ResetHome resets the cached home directory (for testing).
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
