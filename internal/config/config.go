// Package config loads the clidriver inventory: the set of hosts, their
// platforms, and the credentials used to reach them. Layering follows the
// same low-to-high precedence as the teacher gateway's application config:
// built-in defaults, then a global file under the user's home directory,
// then a local project file, then environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Host is one inventory entry: where to connect, which platform driver to
// use, and how to authenticate.
type Host struct {
	Name          string        `mapstructure:"name"`
	Address       string        `mapstructure:"address"`
	Port          int           `mapstructure:"port"`
	Platform      string        `mapstructure:"platform"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	KeyPath       string        `mapstructure:"key_path"`
	KeyPassphrase string        `mapstructure:"key_passphrase"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// LogConfig controls pkg/logging construction.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FanoutConfig controls the default concurrency of cmd/clidriver's fanout
// subcommand when not overridden on the command line.
type FanoutConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Config is the full inventory document.
type Config struct {
	Hosts   []Host       `mapstructure:"hosts"`
	Log     LogConfig    `mapstructure:"log"`
	Fanout  FanoutConfig `mapstructure:"fanout"`
}

// HostByName returns the inventory entry named name, if present.
func (c *Config) HostByName(name string) (Host, bool) {
	for _, h := range c.Hosts {
		if h.Name == name {
			return h, true
		}
	}
	return Host{}, false
}

// Load reads the layered inventory: defaults, then ~/.clidriver/config.yaml,
// then ./config/config.yaml or, if that is absent, ./config.yaml, then
// CLIDRIVER_-prefixed environment variables (nested keys use "_", e.g.
// CLIDRIVER_LOG_LEVEL for log.level).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	globalDir := filepath.Join(os.Getenv("HOME"), ".clidriver")
	v.AddConfigPath(globalDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read global config: %w", err)
		}
	}

	for _, localDir := range []string{"./config", "."} {
		localPath := filepath.Join(localDir, "config.yaml")
		if _, err := os.Stat(localPath); err == nil {
			lv := viper.New()
			lv.SetConfigFile(localPath)
			if err := lv.ReadInConfig(); err == nil {
				_ = v.MergeConfigMap(lv.AllSettings())
			}
			break
		}
	}

	v.SetEnvPrefix("CLIDRIVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("fanout.concurrency", 10)
}
