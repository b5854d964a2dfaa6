package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rummage/items/internal/tracing"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	DriverRedis  = "redis"
	DriverMemory = "memory"
	DriverJSON   = "json"
)

// DefaultConfigFile is read from the working directory when no file is given.
const DefaultConfigFile = "items.yaml"

type Config struct {
	ServerAddress   string         `mapstructure:"server_address" yaml:"server_address"`
	ShutdownTimeout time.Duration  `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	AllowedOrigins  []string       `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	Storage         StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Cache           CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Tracing         tracing.Config `mapstructure:"tracing" yaml:"tracing"`
}

type StorageConfig struct {
	Driver  string        `mapstructure:"driver" yaml:"driver"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	DataDir string        `mapstructure:"data_dir" yaml:"data_dir"`
	SQLite  SQLiteConfig  `mapstructure:"sqlite" yaml:"sqlite"`
	Mongo   MongoConfig   `mapstructure:"mongo" yaml:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis" yaml:"redis"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri" yaml:"uri"`
	Database   string `mapstructure:"database" yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
	ForceTLS12 bool   `mapstructure:"force_tls12" yaml:"force_tls12"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	Password  string `mapstructure:"password" yaml:"password"`
	DB        int    `mapstructure:"db" yaml:"db"`
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// CacheConfig controls the in-process FindByID cache. The cache lives in one
// server process: `items-server reset` run from another process empties the
// store but not a running server's cache, which keeps serving deleted items
// by id until TTL expires or the server restarts.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

func Defaults() Config {
	return Config{
		ServerAddress:   ":8080",
		ShutdownTimeout: 5 * time.Second,
		AllowedOrigins:  []string{"*"},
		Storage: StorageConfig{
			Driver:  DriverSQLite,
			Timeout: 10 * time.Second,
			DataDir: "./data",
			SQLite:  SQLiteConfig{Path: "./data/items.db"},
			Mongo:   MongoConfig{Database: "items", Collection: "items"},
			Redis:   RedisConfig{Addr: "localhost:6379", KeyPrefix: "items:"},
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     10 * time.Minute,
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// envBindings keeps the flat variable names deployments already use.
var envBindings = map[string]string{
	"server_address":         "SERVER_ADDRESS",
	"storage.driver":         "STORAGE_DRIVER",
	"storage.data_dir":       "DATA_DIR",
	"storage.sqlite.path":    "SQLITE_PATH",
	"storage.mongo.uri":      "MONGO_URI",
	"storage.mongo.database": "MONGO_DATABASE",
	"storage.redis.addr":     "REDIS_ADDR",
	"storage.redis.password": "REDIS_PASSWORD",
}

// Load reads configuration from defaults, then the config file, then the
// environment. An empty path falls back to DefaultConfigFile when it exists.
func Load(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v, Defaults())

	v.SetEnvPrefix("ITEMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		_ = v.BindEnv(key, "ITEMS_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server_address", d.ServerAddress)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout)
	v.SetDefault("allowed_origins", d.AllowedOrigins)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.timeout", d.Storage.Timeout)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.sqlite.path", d.Storage.SQLite.Path)
	v.SetDefault("storage.mongo.uri", d.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", d.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", d.Storage.Mongo.Collection)
	v.SetDefault("storage.mongo.force_tls12", d.Storage.Mongo.ForceTLS12)
	v.SetDefault("storage.redis.addr", d.Storage.Redis.Addr)
	v.SetDefault("storage.redis.password", d.Storage.Redis.Password)
	v.SetDefault("storage.redis.db", d.Storage.Redis.DB)
	v.SetDefault("storage.redis.key_prefix", d.Storage.Redis.KeyPrefix)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

// Validate reports the first setting the server cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ServerAddress) == "" {
		return errors.New("server_address is required")
	}
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLite.Path == "" {
			return errors.New("storage.sqlite.path is required for the sqlite driver")
		}
	case DriverMongo:
		if c.Storage.Mongo.URI == "" || c.Storage.Mongo.Database == "" {
			return errors.New("storage.mongo.uri and storage.mongo.database are required for the mongo driver")
		}
	case DriverRedis:
		if c.Storage.Redis.Addr == "" {
			return errors.New("storage.redis.addr is required for the redis driver")
		}
	case DriverJSON:
		if c.Storage.DataDir == "" {
			return errors.New("storage.data_dir is required for the json driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// WriteDefault writes the default configuration as YAML to path.
func WriteDefault(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
