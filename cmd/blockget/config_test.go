package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blockgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendS3, cfg.Backend)
	assert.Equal(t, 5, cfg.MaxAttempts)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
table: blocks
index_region: us-east-2
regions: [us-west-2, us-east-2]
preferred_region: us-east-2
batch_window: 5ms
max_attempts: 0
log_format: json
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "blocks", cfg.Table)
	assert.Equal(t, "us-east-2", cfg.IndexRegion)
	assert.Equal(t, []string{"us-west-2", "us-east-2"}, cfg.Regions)
	assert.Equal(t, 5*time.Millisecond, cfg.BatchWindow)
	assert.Equal(t, 0, cfg.MaxAttempts)
	assert.Equal(t, 4, cfg.GroupConcurrency)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadFile(writeConfig(t, "regions: {"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BLOCKGATE_CONFIG", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	t.Setenv("BLOCKGATE_CONFIG", writeConfig(t, "table: from-env\n"))
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Table)
}

func TestApplyFlags(t *testing.T) {
	cfg := Default()
	cfg.Table = "from-file"
	cfg.PreferredRegion = "us-west-2"

	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flagSet)
	require.NoError(t, flagSet.Parse([]string{
		"--preferred-region", "us-east-2",
		"--regions", "us-west-2,us-east-2",
		"--backend", "local",
		"--local-root", "/data",
		"--batch-window", "10ms",
	}))

	cfg.ApplyFlags(flagSet)

	assert.Equal(t, "from-file", cfg.Table)
	assert.Equal(t, "us-east-2", cfg.PreferredRegion)
	assert.Equal(t, []string{"us-west-2", "us-east-2"}, cfg.Regions)
	assert.Equal(t, BackendLocal, cfg.Backend)
	assert.Equal(t, 10*time.Millisecond, cfg.BatchWindow)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"NoTable", func(c *Config) { c.Table = "" }},
		{"NoRegions", func(c *Config) { c.Regions = nil }},
		{"BadBackend", func(c *Config) { c.Backend = "ftp" }},
		{"MinIONoEndpoint", func(c *Config) { c.Backend = BackendMinIO }},
		{"LocalNoRoot", func(c *Config) { c.Backend = BackendLocal }},
		{"NegativeWindow", func(c *Config) { c.BatchWindow = -time.Second }},
		{"ZeroConcurrency", func(c *Config) { c.GroupConcurrency = 0 }},
		{"BadLogLevel", func(c *Config) { c.LogLevel = "loud" }},
		{"BadLogFormat", func(c *Config) { c.LogFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseCIDs(t *testing.T) {
	_, err := parseCIDs(nil)
	assert.Error(t, err)

	_, err = parseCIDs([]string{"not-a-cid"})
	assert.Error(t, err)

	cids, err := parseCIDs([]string{"bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy"})
	require.NoError(t, err)
	require.Len(t, cids, 1)
}
