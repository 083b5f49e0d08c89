package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "daedalus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
root: local:/var/lib/daedalus
locations:
  out.result:
    - local:/tmp/r.json
    - cache://results/r.json
stores:
  cache:
    kind: local
    path: /tmp/cache
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "local:/var/lib/daedalus", cfg.Root)
	assert.Equal(t, []string{"local:/tmp/r.json", "cache://results/r.json"}, cfg.Locations["out.result"])
	assert.Equal(t, StoreKindLocal, cfg.Stores["cache"].Kind)
}

func TestLoadDefaultsRoot(t *testing.T) {
	path := writeConfig(t, `stores: {}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "local:data", cfg.Root)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestBuildMapping(t *testing.T) {
	cfg := &Config{
		Root: "local:data",
		Locations: map[string][]string{
			"out.result": {"local:/tmp/r-{i}.json"},
		},
	}
	m, err := cfg.BuildMapping()
	require.NoError(t, err)
	assert.True(t, m.Explicit("out.result"))
}

func TestBuildMappingMalformed(t *testing.T) {
	cfg := &Config{
		Root: "local:data",
		Locations: map[string][]string{
			"out.result": {"local:/tmp/{broken"},
		},
	}
	_, err := cfg.BuildMapping()
	require.Error(t, err)
}

func TestBuildMounts(t *testing.T) {
	cfg := &Config{
		Stores: map[string]StoreConfig{
			"cache": {Kind: StoreKindLocal, Path: t.TempDir()},
		},
	}
	mounts, err := cfg.BuildMounts(nil)
	require.NoError(t, err)
	assert.True(t, mounts.Mounted("cache"))
}

func TestBuildMountsUnknownKind(t *testing.T) {
	cfg := &Config{
		Stores: map[string]StoreConfig{
			"weird": {Kind: "ftp"},
		},
	}
	_, err := cfg.BuildMounts(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}
