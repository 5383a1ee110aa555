// Package config loads application configuration. Environment variables
// are the primary source; an optional YAML file fills in anything the
// environment leaves unset.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration lets YAML carry Go duration strings like "30s" or "24h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full application configuration.
type Config struct {
	App   AppConfig   `yaml:"app"`
	GenAI GenAIConfig `yaml:"genai"`
	HTTP  HTTPConfig  `yaml:"http"`
	Redis RedisConfig `yaml:"redis"`
}

type AppConfig struct {
	// Name tags sessions created by this deployment.
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
}

type GenAIConfig struct {
	APIKey      string   `yaml:"api_key"`
	BaseURL     string   `yaml:"base_url"`
	Model       string   `yaml:"model"`
	Temperature float32  `yaml:"temperature"`
	Timeout     Duration `yaml:"timeout"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type RedisConfig struct {
	// Addr empty means sessions stay in process memory.
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	TTL      Duration `yaml:"ttl"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		App: AppConfig{
			Name:     "agents",
			LogLevel: "info",
		},
		GenAI: GenAIConfig{
			Model:   "gemini-2.5-flash",
			Timeout: Duration(60 * time.Second),
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (if non-empty), then environment variables on top.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.App.Name, "DOCFLOW_APP_NAME")
	setString(&c.App.LogLevel, "DOCFLOW_LOG_LEVEL")

	setString(&c.GenAI.APIKey, "GEMINI_API_KEY")
	setString(&c.GenAI.BaseURL, "DOCFLOW_GENAI_BASE_URL")
	setString(&c.GenAI.Model, "DOCFLOW_GENAI_MODEL")
	setFloat32(&c.GenAI.Temperature, "DOCFLOW_GENAI_TEMPERATURE")
	setDuration(&c.GenAI.Timeout, "DOCFLOW_GENAI_TIMEOUT")

	setString(&c.HTTP.Addr, "DOCFLOW_HTTP_ADDR")

	setString(&c.Redis.Addr, "DOCFLOW_REDIS_ADDR")
	setString(&c.Redis.Password, "DOCFLOW_REDIS_PASSWORD")
	setInt(&c.Redis.DB, "DOCFLOW_REDIS_DB")
	setDuration(&c.Redis.TTL, "DOCFLOW_REDIS_TTL")
}

// Validate checks the invariants the rest of the system assumes.
func (c Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name must not be empty")
	}
	if c.GenAI.Temperature < 0 || c.GenAI.Temperature > 2 {
		return fmt.Errorf("genai temperature %v out of range [0, 2]", c.GenAI.Temperature)
	}
	if c.Redis.TTL < 0 {
		return fmt.Errorf("redis ttl must not be negative")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat32(dst *float32, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			*dst = float32(f)
		}
	}
}

func setDuration(dst *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}
