package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CODETREND_METRICS_WINDOW.
const EnvPrefix = "CODETREND"

// Config holds all configuration settings
type Config struct {
	Git     GitConfig     `yaml:"git" toml:"git" mapstructure:"git"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics" mapstructure:"metrics"`
	Output  OutputConfig  `yaml:"output" toml:"output" mapstructure:"output"`
	Cache   CacheConfig   `yaml:"cache" toml:"cache" mapstructure:"cache"`
	Storage StorageConfig `yaml:"storage" toml:"storage" mapstructure:"storage"`
	Log     LogConfig     `yaml:"log" toml:"log" mapstructure:"log"`

	// path of the file the values were read from, if any
	source string
}

// GitConfig selects the history to walk.
type GitConfig struct {
	Backend     string `yaml:"backend" toml:"backend" mapstructure:"backend"` // "gogit", "cli"
	Ref         string `yaml:"ref" toml:"ref" mapstructure:"ref"`
	Since       string `yaml:"since" toml:"since" mapstructure:"since"` // YYYY-MM-DD or RFC 3339
	Until       string `yaml:"until" toml:"until" mapstructure:"until"`
	MaxCommits  int    `yaml:"max_commits" toml:"max_commits" mapstructure:"max_commits"` // 0 = all
	FirstParent bool   `yaml:"first_parent" toml:"first_parent" mapstructure:"first_parent"`
}

type MetricsConfig struct {
	MaxBlobBytes int64 `yaml:"max_blob_bytes" toml:"max_blob_bytes" mapstructure:"max_blob_bytes"`
	Window       int   `yaml:"window" toml:"window" mapstructure:"window"`
	Workers      int   `yaml:"workers" toml:"workers" mapstructure:"workers"`
}

type OutputConfig struct {
	CSV   string `yaml:"csv" toml:"csv" mapstructure:"csv"`
	JSON  string `yaml:"json" toml:"json" mapstructure:"json"`
	HTML  string `yaml:"html" toml:"html" mapstructure:"html"`
	Title string `yaml:"title" toml:"title" mapstructure:"title"`
	Open  bool   `yaml:"open" toml:"open" mapstructure:"open"`
}

type CacheConfig struct {
	Path string `yaml:"path" toml:"path" mapstructure:"path"` // empty = in-memory only
}

type StorageConfig struct {
	Type        string `yaml:"type" toml:"type" mapstructure:"type"` // "none", "sqlite", "postgres"
	LocalPath   string `yaml:"local_path" toml:"local_path" mapstructure:"local_path"`
	PostgresDSN string `yaml:"postgres_dsn" toml:"postgres_dsn" mapstructure:"postgres_dsn"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level" mapstructure:"level"`
	File  string `yaml:"file" toml:"file" mapstructure:"file"`
	JSON  bool   `yaml:"json" toml:"json" mapstructure:"json"`
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Git: GitConfig{
			Backend:     "gogit",
			Ref:         "HEAD",
			FirstParent: true,
		},
		Metrics: MetricsConfig{
			MaxBlobBytes: 1 << 20,
			Window:       10,
			Workers:      runtime.NumCPU(),
		},
		Storage: StorageConfig{
			Type:      "none",
			LocalPath: filepath.Join(homeDir, ".codetrend", "runs.db"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path, or from the first config file found
// in .codetrend/, the working directory and ~/.codetrend/ when path is
// empty. A missing file is not an error. Environment variables override
// file values.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	cfg := Default()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".codetrend")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".codetrend"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.source = v.ConfigFileUsed()

	applyEnvOverrides(cfg)
	cfg.Storage.LocalPath = expandPath(cfg.Storage.LocalPath)
	cfg.Cache.Path = expandPath(cfg.Cache.Path)
	cfg.Log.File = expandPath(cfg.Log.File)

	return cfg, nil
}

// Source returns the config file the values came from, or "".
func (c *Config) Source() string {
	return c.source
}

// setDefaults registers every leaf key so that environment overrides apply
// to keys absent from the config file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("git.backend", cfg.Git.Backend)
	v.SetDefault("git.ref", cfg.Git.Ref)
	v.SetDefault("git.since", cfg.Git.Since)
	v.SetDefault("git.until", cfg.Git.Until)
	v.SetDefault("git.max_commits", cfg.Git.MaxCommits)
	v.SetDefault("git.first_parent", cfg.Git.FirstParent)

	v.SetDefault("metrics.max_blob_bytes", cfg.Metrics.MaxBlobBytes)
	v.SetDefault("metrics.window", cfg.Metrics.Window)
	v.SetDefault("metrics.workers", cfg.Metrics.Workers)

	v.SetDefault("output.csv", cfg.Output.CSV)
	v.SetDefault("output.json", cfg.Output.JSON)
	v.SetDefault("output.html", cfg.Output.HTML)
	v.SetDefault("output.title", cfg.Output.Title)
	v.SetDefault("output.open", cfg.Output.Open)

	v.SetDefault("cache.path", cfg.Cache.Path)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.local_path", cfg.Storage.LocalPath)
	v.SetDefault("storage.postgres_dsn", cfg.Storage.PostgresDSN)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.json", cfg.Log.JSON)
}

// applyEnvOverrides honours the unprefixed variables shared with other
// tooling.
func applyEnvOverrides(cfg *Config) {
	if storageType := os.Getenv("STORAGE_TYPE"); storageType != "" {
		cfg.Storage.Type = storageType
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.Storage.PostgresDSN = dsn
	}
	if path := os.Getenv("LOCAL_DB_PATH"); path != "" {
		cfg.Storage.LocalPath = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
