package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName = "talondoc"
	configType = "yaml"
	envPrefix  = "TALONDOC"
)

// Defaults.
const (
	DefaultWorkers     = 0
	DefaultMaxFileSize = "1MB"
	DefaultFormat      = FormatTOON
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = LogText
)

// Load reads configuration from file, env vars and defaults. If configPath is
// non-empty it is used as the config file; otherwise talondoc.yaml is searched
// for in the working directory and $HOME/.config/talondoc. A missing config
// file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "talondoc"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{Workers: DefaultWorkers, MaxFileSize: DefaultMaxFileSize},
		Output:   OutputConfig{Format: DefaultFormat},
		Log:      LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("analysis.workers", DefaultWorkers)
	v.SetDefault("analysis.max_file_size", DefaultMaxFileSize)
	v.SetDefault("output.format", DefaultFormat)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("store.path", "")
}
