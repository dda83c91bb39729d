// Package config builds the process-wide, read-once configuration record
// the engine is constructed with, following the env-var-driven
// LoadConfig shape of the teacher's own config.go.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// defaultEnvAllowlist is copied into every execution child instead of the
// full host environment, per spec.md §9's design note ("replace 'copy the
// host environment' with 'copy an allowlist'").
var defaultEnvAllowlist = []string{"PATH", "HOME", "LANG", "TZ"}

// Config is the immutable, process-wide configuration the engine is
// constructed with. It is read once at startup and passed by reference into
// every job — never held as global mutable state.
type Config struct {
	// SandboxDir is the absolute path to the workspace root.
	SandboxDir string
	// SandboxUserUID is the unprivileged numeric UID/GID execution children
	// drop to before running the compiled binary.
	SandboxUserUID int
	// Timeout is applied independently to compilation and to each
	// execution.
	Timeout time.Duration

	// BuildDriver is the external build driver binary name or path.
	BuildDriver string
	// BuildArgs are passed to BuildDriver, e.g. ["build", "--release", "--quiet"].
	BuildArgs []string
	// EnvAllowlist names the host environment variables copied into
	// execution children (RUST_BACKTRACE is always forced to "0" on top of
	// this list).
	EnvAllowlist []string

	Logger *zap.Logger
}

// LoadConfig reads SANDBOX_DIR, SANDBOX_USER_UID, TIMEOUT, JUDGE_BUILD_DRIVER,
// JUDGE_ENV_ALLOWLIST, and JUDGE_DEBUG from the environment and returns a
// ready-to-use Config.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		SandboxDir:     envOr("SANDBOX_DIR", "/tmp/judge-sandbox"),
		SandboxUserUID: 0,
		Timeout:        5 * time.Second,
		BuildDriver:    envOr("JUDGE_BUILD_DRIVER", "cargo"),
		BuildArgs:      []string{"build", "--release", "--quiet"},
		EnvAllowlist:   defaultEnvAllowlist,
	}

	if v := os.Getenv("SANDBOX_USER_UID"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.SandboxUserUID = n
		}
	}

	if v := os.Getenv("TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Timeout = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("JUDGE_ENV_ALLOWLIST"); v != "" {
		cfg.EnvAllowlist = strings.Split(v, ",")
	}

	logger, err := newLogger(os.Getenv("JUDGE_DEBUG") == "1")
	if err != nil {
		return nil, err
	}
	cfg.Logger = logger

	return cfg, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if debug {
		zc = zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
