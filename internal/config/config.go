// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/guild/database/sops"
	"github.com/blinklabs-io/guild/governance"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "guild.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultHeightInterval  = "1s"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultTracingExporter = "otlp"
	envPrefix              = "guild"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

var ErrInvalidConfig = errors.New("invalid config")

// tempConfig holds the sections of a config file undecoded so that each one
// can be decoded over the defaults already in place
type tempConfig struct {
	Config  yaml.Node         `yaml:"config"`
	Genesis yaml.Node         `yaml:"genesis"`
	Ledger  map[string]uint64 `yaml:"ledger"`
}

type Config struct {
	Genesis         governance.Genesis `yaml:"genesis"`
	Ledger          map[string]uint64  `yaml:"ledger"          envconfig:"GUILD_LEDGER"`
	DatabasePath    string             `yaml:"databasePath"                                       split_words:"true"`
	BindAddr        string             `yaml:"bindAddr"                                           split_words:"true"`
	ShutdownTimeout string             `yaml:"shutdownTimeout"                                    split_words:"true"`
	HeightInterval  string             `yaml:"heightInterval"                                     split_words:"true"`
	GenesisTime     string             `yaml:"genesisTime"                                        split_words:"true"`
	LogLevel        string             `yaml:"logLevel"                                           split_words:"true"`
	LogFormat       string             `yaml:"logFormat"                                          split_words:"true"`
	TracingExporter string             `yaml:"tracingExporter"                                    split_words:"true"`
	TracingEndpoint string             `yaml:"tracingEndpoint" envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ApiPort         uint               `yaml:"apiPort"         envconfig:"port"`
	Tracing         bool               `yaml:"tracing"`
	DevMode         bool               `yaml:"devMode"                                            split_words:"true"`
}

func defaultConfig() *Config {
	return &Config{
		Genesis: governance.Genesis{
			Params: governance.DefaultParams(),
		},
		DatabasePath:    ".guild",
		BindAddr:        "0.0.0.0",
		ApiPort:         8080,
		ShutdownTimeout: DefaultShutdownTimeout,
		HeightInterval:  DefaultHeightInterval,
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
		TracingExporter: DefaultTracingExporter,
	}
}

var globalConfig = defaultConfig()

// LoadConfig builds the config from defaults, an optional YAML file, an
// optional .env file and the environment, in increasing order of
// precedence. The config file may be sops encrypted.
func LoadConfig(configFile string) (*Config, error) {
	cfg := defaultConfig()
	if configFile == "" {
		// Check for config file in this path: ~/.guild/guild.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".guild", "guild.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/guild/guild.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		buf, err := ReadConfigFile(configFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.apply(buf); err != nil {
			return nil, err
		}
	}
	// A missing .env file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	globalConfig = cfg
	return cfg, nil
}

// ReadConfigFile reads a config file, decrypting it first when it was
// written by sops
func ReadConfigFile(configFile string) ([]byte, error) {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if sops.IsEncrypted(buf) {
		buf, err = sops.Decrypt(buf)
		if err != nil {
			return nil, fmt.Errorf("error decrypting config file: %w", err)
		}
	}
	return buf, nil
}

// apply overlays YAML onto the config. A top-level config section is used
// when present, with genesis and ledger allowed alongside it.
func (c *Config) apply(buf []byte) error {
	var tempCfg tempConfig
	if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if tempCfg.Config.IsZero() {
		if err := yaml.Unmarshal(buf, c); err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
		return nil
	}
	if err := tempCfg.Config.Decode(c); err != nil {
		return fmt.Errorf("error parsing config section: %w", err)
	}
	if !tempCfg.Genesis.IsZero() {
		if err := tempCfg.Genesis.Decode(&c.Genesis); err != nil {
			return fmt.Errorf("error parsing genesis section: %w", err)
		}
	}
	if tempCfg.Ledger != nil {
		c.Ledger = tempCfg.Ledger
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		return fmt.Errorf("%w: shutdownTimeout: %w", ErrInvalidConfig, err)
	}
	interval, err := c.HeightIntervalDuration()
	if err != nil {
		return fmt.Errorf("%w: heightInterval: %w", ErrInvalidConfig, err)
	}
	if interval <= 0 {
		return fmt.Errorf("%w: heightInterval must be positive", ErrInvalidConfig)
	}
	if _, err := c.GenesisTimeValue(); err != nil {
		return fmt.Errorf("%w: genesisTime: %w", ErrInvalidConfig, err)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unknown logFormat %q", ErrInvalidConfig, c.LogFormat)
	}
	switch c.TracingExporter {
	case "otlp", "stdout":
	default:
		return fmt.Errorf("%w: unknown tracingExporter %q", ErrInvalidConfig, c.TracingExporter)
	}
	return nil
}

func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	return time.ParseDuration(c.ShutdownTimeout)
}

func (c *Config) HeightIntervalDuration() (time.Duration, error) {
	return time.ParseDuration(c.HeightInterval)
}

// GenesisTimeValue returns the start of height 0. A zero value means the
// node start time.
func (c *Config) GenesisTimeValue() (time.Time, error) {
	if c.GenesisTime == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, c.GenesisTime)
}

// ListenAddress returns the API listen address
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.ApiPort)
}

func GetConfig() *Config {
	return globalConfig
}
