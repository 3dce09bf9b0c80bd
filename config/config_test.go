package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/weave/errs"
	"xdao.co/weave/storage/grpcstore"
	"xdao.co/weave/storage/localfs"
	"xdao.co/weave/storage/registry"
)

var weaveVars = []string{
	"WEAVE_KEYFILE", "WEAVE_BACKEND", "WEAVE_LOCALFS_DIR", "WEAVE_GRPC_TARGET",
	"WEAVE_GRPC_TIMEOUT", "WEAVE_LISTEN", "WEAVE_LOG_LEVEL",
}

// clearEnv unsets every WEAVE_* variable for the test and restores them after.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range weaveVars {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Config{
		Backend:     "localfs",
		GRPCTimeout: 10 * time.Second,
		Listen:      "127.0.0.1:7777",
		LogLevel:    "warn",
	}, cfg)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEAVE_KEYFILE", "/keys/wallet.json")
	t.Setenv("WEAVE_BACKEND", "grpc")
	t.Setenv("WEAVE_GRPC_TARGET", "store:7777")
	t.Setenv("WEAVE_GRPC_TIMEOUT", "3s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/keys/wallet.json", cfg.Keyfile)
	assert.Equal(t, "grpc", cfg.Backend)
	assert.Equal(t, 3*time.Second, cfg.GRPCTimeout)
	assert.NoError(t, cfg.Validate(registry.UsageCLI))
}

func TestLoad_BadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEAVE_GRPC_TIMEOUT", "soon")
	_, err := Load("")
	require.Error(t, err)
	assert.Equal(t, errs.CodeConfig, errs.Code(err))
}

func TestLoad_Dotenv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("WEAVE_LOCALFS_DIR=/from/file\nWEAVE_LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("WEAVE_LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/file", cfg.LocalDir)
	assert.Equal(t, "error", cfg.LogLevel, "environment wins over dotenv")

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.True(t, errs.IsKind(err, errs.KindConfiguration))
}

func TestValidate(t *testing.T) {
	ok := Config{Backend: "localfs", LocalDir: "/tmp/x", LogLevel: "info"}
	require.NoError(t, ok.Validate(registry.UsageDaemon))

	cases := map[string]struct {
		cfg   Config
		usage registry.Usage
	}{
		"unknown backend":     {Config{Backend: "s3", LogLevel: "info"}, registry.UsageCLI},
		"grpc in daemon":      {Config{Backend: "grpc", GRPCTarget: "x:1", LogLevel: "info"}, registry.UsageDaemon},
		"localfs without dir": {Config{Backend: "localfs", LogLevel: "info"}, registry.UsageCLI},
		"grpc without target": {Config{Backend: "grpc", LogLevel: "info"}, registry.UsageCLI},
		"negative timeout":    {Config{Backend: "localfs", LocalDir: "/x", GRPCTimeout: -time.Second, LogLevel: "info"}, registry.UsageCLI},
		"bad log level":       {Config{Backend: "localfs", LocalDir: "/x", LogLevel: "chatty"}, registry.UsageCLI},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.cfg.Validate(tc.usage)
			require.Error(t, err)
			assert.Equal(t, errs.CodeConfig, errs.Code(err))
		})
	}
}

func TestStoreOptions(t *testing.T) {
	cfg := Config{LocalDir: "/data", GRPCTarget: "h:1", GRPCTimeout: 2 * time.Second}
	opts := cfg.StoreOptions()
	assert.Equal(t, "/data", opts[localfs.OptionDir])
	assert.Equal(t, "h:1", opts[grpcstore.OptionTarget])
	assert.Equal(t, "2s", opts[grpcstore.OptionTimeout])
}

func TestApplyLogLevel(t *testing.T) {
	assert.NoError(t, Config{LogLevel: "warn"}.ApplyLogLevel())
	assert.Error(t, Config{LogLevel: "loud"}.ApplyLogLevel())
}
