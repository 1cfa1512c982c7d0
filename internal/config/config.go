// Package config resolves the settings shared by every codebase from the
// environment, optionally seeded from .env files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	EnvTempDir     = "CODEBASE_TEMP_DIR"
	EnvMaxInMemory = "CODEBASE_MAX_IN_MEMORY"

	appName = "codebase"
)

var dotEnvKeys = []string{ //nolint:gochecknoglobals
	EnvTempDir,
	EnvMaxInMemory,
}

// LoadDotEnv sets our environment variables from .env and then .env.local in
// the current directory, never overriding variables that were already set
// before it was called.
func LoadDotEnv() {
	orig := originalEnvKeys(dotEnvKeys)

	loadDotEnvFile(".env", orig)
	loadDotEnvFile(".env.local", orig)
}

func originalEnvKeys(keys []string) map[string]struct{} {
	orig := map[string]struct{}{}

	for _, key := range keys {
		if _, ok := os.LookupEnv(key); ok {
			orig[key] = struct{}{}
		}
	}

	return orig
}

func loadDotEnvFile(path string, orig map[string]struct{}) {
	env, err := godotenv.Read(path)
	if err != nil {
		return
	}

	for _, key := range dotEnvKeys {
		val, ok := env[key]
		if !ok {
			continue
		}

		if _, ok := orig[key]; ok {
			continue
		}

		_ = os.Setenv(key, val)
	}
}

// TempDir returns the directory under which codebases create their cache
// directories: $CODEBASE_TEMP_DIR if set, else a codebase directory in the XDG
// cache home, else one in the OS temp directory.
func TempDir() string {
	if explicit := strings.TrimSpace(os.Getenv(EnvTempDir)); explicit != "" {
		return explicit
	}

	xdg.Reload()

	if xdg.CacheHome != "" {
		return filepath.Join(xdg.CacheHome, appName)
	}

	return filepath.Join(os.TempDir(), appName)
}

// MaxInMemory returns $CODEBASE_MAX_IN_MEMORY, or defaultValue if it is unset.
func MaxInMemory(defaultValue int) (int, error) {
	v := strings.TrimSpace(os.Getenv(EnvMaxInMemory))
	if v == "" {
		return defaultValue, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < -1 {
		return 0, fmt.Errorf("invalid value in %s: %q", EnvMaxInMemory, v)
	}

	return n, nil
}
