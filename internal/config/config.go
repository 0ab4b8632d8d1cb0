package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/asynkron/binpatch/internal/logging"
)

// Environment variables read by FromEnv.
const (
	EnvBackupSuffix = "BINPATCH_BACKUP_SUFFIX"
	EnvNoBackup     = "BINPATCH_NO_BACKUP"
	EnvReplaceAll   = "BINPATCH_REPLACE_ALL"
	EnvLogLevel     = "BINPATCH_LOG_LEVEL"
	EnvNoColor      = "NO_COLOR"
)

// DefaultBackupSuffix is appended to the target path when no explicit backup
// path is given.
const DefaultBackupSuffix = ".org"

// Config holds the caller side settings of a patch run. Flags override the
// environment, which overrides the config file, which overrides defaults.
type Config struct {
	BackupSuffix string
	NoBackup     bool
	ReplaceAll   bool
	LogLevel     string
	NoColor      bool
}

// fileConfig mirrors the config file layout. Pointers distinguish absent keys
// from explicit zero values.
type fileConfig struct {
	BackupSuffix *string `yaml:"backupSuffix"`
	Backup       *bool   `yaml:"backup"`
	ReplaceAll   *bool   `yaml:"replaceAll"`
	LogLevel     *string `yaml:"logLevel"`
	Color        *bool   `yaml:"color"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	cfg := Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills empty fields and reports whether anything changed.
func (c *Config) SetDefaults() bool {
	changed := false
	if strings.TrimSpace(c.BackupSuffix) == "" {
		c.BackupSuffix = DefaultBackupSuffix
		changed = true
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = string(logging.LevelWarn)
		changed = true
	}
	return changed
}

// Validate checks values that cannot be expressed through the schema or that
// came from the environment.
func (c *Config) Validate() error {
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if strings.ContainsAny(c.BackupSuffix, `/\`) {
		return fmt.Errorf("backup suffix %q must not contain path separators", c.BackupSuffix)
	}
	return nil
}

// Level returns the parsed log level, falling back to WARN.
func (c Config) Level() logging.Level {
	if level, ok := logging.ParseLevel(c.LogLevel); ok {
		return level
	}
	return logging.LevelWarn
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none are
// given) into the process environment. Missing files are not an error.
func LoadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return nil
		}
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load builds a Config from defaults, the optional config file at path and
// the environment exposed by getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	var cfg Config
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := cfg.applyFile(data); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := cfg.FromEnv(getenv); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Parse decodes a YAML or JSON config document into a Config after checking
// it against the embedded schema.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := cfg.applyFile(data); err != nil {
		return Config{}, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal error: %w", err)
	}
	if doc == nil {
		return nil
	}
	if err := validateDocument(doc); err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("unmarshal error: %w", err)
	}
	if fc.BackupSuffix != nil {
		c.BackupSuffix = *fc.BackupSuffix
	}
	if fc.Backup != nil {
		c.NoBackup = !*fc.Backup
	}
	if fc.ReplaceAll != nil {
		c.ReplaceAll = *fc.ReplaceAll
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	if fc.Color != nil {
		c.NoColor = !*fc.Color
	}
	return nil
}

// FromEnv overrides fields with the BINPATCH_* variables that are set.
func (c *Config) FromEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvBackupSuffix)); v != "" {
		c.BackupSuffix = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(getenv(EnvNoBackup)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvNoBackup, err)
		}
		c.NoBackup = b
	}
	if v := strings.TrimSpace(getenv(EnvReplaceAll)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvReplaceAll, err)
		}
		c.ReplaceAll = b
	}
	// https://no-color.org: any non-empty value disables color.
	if getenv(EnvNoColor) != "" {
		c.NoColor = true
	}
	return nil
}
