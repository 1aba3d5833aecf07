package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"optimage/internal/compressor"
	"optimage/internal/logger"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by optimage.
const EnvPrefix = "OPTIMAGE"

// Config represents the runtime configuration of a single invocation.
type Config struct {
	Replace  bool              `mapstructure:"replace"`
	Output   string            `mapstructure:"output"`
	Debug    bool              `mapstructure:"debug"`
	Parallel bool              `mapstructure:"parallel"`
	Timeout  time.Duration     `mapstructure:"timeout"`
	TempDir  string            `mapstructure:"temp_dir"`
	Binaries map[string]string `mapstructure:"binaries"`
	Logging  LoggingConfig     `mapstructure:"log"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	FilePath   string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	log := logger.DefaultConfig()
	return &Config{
		Binaries: compressor.DefaultBinaries(),
		Logging: LoggingConfig{
			Level:      log.Level,
			Format:     log.Format,
			FilePath:   log.FilePath,
			MaxSize:    log.MaxSize,
			MaxBackups: log.MaxBackups,
			MaxAge:     log.MaxAge,
			Compress:   log.Compress,
		},
	}
}

// NewViper returns a viper instance with every key defaulted and
// environment variables (OPTIMAGE_*) enabled. There is no config file.
func NewViper() *viper.Viper {
	v := viper.New()
	defaults := DefaultConfig()

	v.SetDefault("replace", defaults.Replace)
	v.SetDefault("output", defaults.Output)
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("parallel", defaults.Parallel)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("temp_dir", defaults.TempDir)
	for name, binary := range defaults.Binaries {
		v.SetDefault("binaries."+name, binary)
	}
	v.SetDefault("log.level", defaults.Logging.Level)
	v.SetDefault("log.format", defaults.Logging.Format)
	v.SetDefault("log.file", defaults.Logging.FilePath)
	v.SetDefault("log.max_size", defaults.Logging.MaxSize)
	v.SetDefault("log.max_backups", defaults.Logging.MaxBackups)
	v.SetDefault("log.max_age", defaults.Logging.MaxAge)
	v.SetDefault("log.compress", defaults.Logging.Compress)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	config := DefaultConfig()

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %s", c.Timeout)
	}

	if c.TempDir != "" {
		stat, err := os.Stat(c.TempDir)
		if err != nil || !stat.IsDir() {
			return fmt.Errorf("temp_dir does not exist or is not a directory: %s", c.TempDir)
		}
	}

	// Fill in binaries that were blanked out.
	defaults := compressor.DefaultBinaries()
	if c.Binaries == nil {
		c.Binaries = defaults
	}
	for name, binary := range defaults {
		if strings.TrimSpace(c.Binaries[name]) == "" {
			c.Binaries[name] = binary
		}
	}

	if c.Debug {
		c.Logging.Level = "debug"
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	c.Logging.Format = strings.ToLower(c.Logging.Format)
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}

	return nil
}

// Binary returns the executable configured for the named compressor.
func (c *Config) Binary(name string) string {
	if b, ok := c.Binaries[name]; ok && b != "" {
		return b
	}
	return name
}
