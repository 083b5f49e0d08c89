// Package config loads the pipeline configuration consumed by the engine:
// the default root location, the logical-path-to-location mapping, and the
// object stores to mount. File format is whatever viper accepts (YAML,
// JSON, TOML); environment variables prefixed DAEDALUS_ override file
// values.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wehubfusion/Daedalus/pkg/mapping"
	"github.com/wehubfusion/Daedalus/pkg/storage"
)

// Store kinds accepted in configuration.
const (
	StoreKindLocal = "local"
	StoreKindAzure = "azure"
)

// StoreConfig describes one object store to mount.
type StoreConfig struct {
	// Kind is "local" or "azure"
	Kind string `mapstructure:"kind"`

	// Path is the base directory for local stores
	Path string `mapstructure:"path"`

	// ConnectionString is the Azure storage connection string
	ConnectionString string `mapstructure:"connectionString"`

	// Container is the Azure blob container name
	Container string `mapstructure:"container"`
}

// Config is the full pipeline configuration shape.
type Config struct {
	// Root is the default root location template, e.g. "local:data"
	Root string `mapstructure:"root"`

	// Locations maps dotted tree paths to ordered location template strings
	Locations map[string][]string `mapstructure:"locations"`

	// Stores maps store identifiers to their backends
	Stores map[string]StoreConfig `mapstructure:"stores"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("DAEDALUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("root", "local:data")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// BuildMapping turns the configured root and location entries into an
// immutable location mapping. Malformed templates fail here, before any
// binding.
func (c *Config) BuildMapping() (*mapping.Mapping, error) {
	return mapping.FromConfig(c.Root, c.Locations)
}

// BuildMounts constructs and mounts the configured stores.
func (c *Config) BuildMounts(logger *zap.Logger) (*storage.Mounts, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mounts := storage.NewMounts(nil)
	for id, sc := range c.Stores {
		switch sc.Kind {
		case StoreKindLocal:
			mounts.Mount(id, storage.NewLocalStore(sc.Path))
		case StoreKindAzure:
			store, err := storage.NewAzureBlobStore(sc.ConnectionString, sc.Container, logger)
			if err != nil {
				return nil, fmt.Errorf("store %q: %w", id, err)
			}
			mounts.Mount(id, store)
		default:
			return nil, fmt.Errorf("store %q: unknown kind %q", id, sc.Kind)
		}
	}
	return mounts, nil
}
