package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"example.com/notes-api/internal/stringsx"
)

const (
	Development = "development"
	Test        = "test"
	Production  = "production"
)

type Config struct {
	Environment string `yaml:"environment"`
	HTTPAddr    string `yaml:"http_addr"`
	Version     string `yaml:"version"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	CORSOrigins     []string      `yaml:"cors_origins"`
	RateLimitMax    int           `yaml:"rate_limit_max"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`
	TrustProxy      bool          `yaml:"trust_proxy"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	SeedDemo     bool   `yaml:"seed_demo"`
	SeedFile     string `yaml:"seed_file"`
	SanitizeHTML bool   `yaml:"sanitize_html"`
}

// Defaults returns the settings for env. Unknown environments get the
// development defaults with Environment kept as given, so Validate can
// report it.
func Defaults(env string) Config {
	cfg := Config{
		Environment:     env,
		HTTPAddr:        ":3000",
		Version:         "1.0.0",
		LogLevel:        "info",
		LogFormat:       "json",
		CORSOrigins:     []string{"http://localhost:3000", "http://localhost:3001"},
		RateLimitMax:    100,
		RateLimitWindow: 15 * time.Minute,
		MaxBodyBytes:    10 << 20,
		ShutdownTimeout: 10 * time.Second,
		SeedDemo:        true,
	}

	switch env {
	case Test:
		cfg.HTTPAddr = ":3001"
		cfg.CORSOrigins = []string{"http://localhost:3001"}
		cfg.RateLimitMax = 1000
	case Production:
		cfg.CORSOrigins = nil
		cfg.TrustProxy = true
	default:
		cfg.LogLevel = "debug"
		cfg.LogFormat = "console"
	}
	return cfg
}

// Load reads configuration from environment variables only.
func Load() Config {
	cfg := Defaults(getenv("APP_ENV", Development))
	applyEnv(&cfg)
	return cfg
}

// LoadFile layers defaults, then the YAML file at path, then environment
// variables.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var probe struct {
		Environment string `yaml:"environment"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	env := getenv("APP_ENV", probe.Environment)
	if env == "" {
		env = Development
	}

	cfg := Defaults(env)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Environment = env
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.Version = getenv("APP_VERSION", cfg.Version)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("LOG_FORMAT", cfg.LogFormat)
	cfg.CORSOrigins = getenvList("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.RateLimitMax = getenvInt("RATE_LIMIT_MAX", cfg.RateLimitMax)
	cfg.RateLimitWindow = getenvDuration("RATE_LIMIT_WINDOW", cfg.RateLimitWindow)
	cfg.TrustProxy = getenvBool("TRUST_PROXY", cfg.TrustProxy)
	cfg.MaxBodyBytes = getenvInt64("MAX_BODY_BYTES", cfg.MaxBodyBytes)
	cfg.ShutdownTimeout = getenvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.SeedDemo = getenvBool("SEED_DEMO", cfg.SeedDemo)
	cfg.SeedFile = getenv("SEED_FILE", cfg.SeedFile)
	cfg.SanitizeHTML = getenvBool("SANITIZE_HTML", cfg.SanitizeHTML)
}

// Validate reports every problem with cfg at once.
func (c Config) Validate() error {
	var problems []error

	switch c.Environment {
	case Development, Test, Production:
	default:
		problems = append(problems, fmt.Errorf("environment %q: must be development, test or production", c.Environment))
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		problems = append(problems, errors.New("http_addr: must not be empty"))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		problems = append(problems, fmt.Errorf("log_level %q: unknown level", c.LogLevel))
	}
	if f := strings.ToLower(c.LogFormat); f != "json" && f != "console" {
		problems = append(problems, fmt.Errorf("log_format %q: must be json or console", c.LogFormat))
	}
	for _, p := range c.CORSOrigins {
		if !doublestar.ValidatePattern(p) {
			problems = append(problems, fmt.Errorf("cors_origins: bad pattern %q", p))
		}
	}
	if c.RateLimitMax < 0 {
		problems = append(problems, errors.New("rate_limit_max: must not be negative"))
	}
	if c.RateLimitMax > 0 && c.RateLimitWindow <= 0 {
		problems = append(problems, errors.New("rate_limit_window: must be positive when rate limiting is on"))
	}
	if c.MaxBodyBytes < 0 {
		problems = append(problems, errors.New("max_body_bytes: must not be negative"))
	}
	if c.ShutdownTimeout <= 0 {
		problems = append(problems, errors.New("shutdown_timeout: must be positive"))
	}

	return errors.Join(problems...)
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// getenvList splits a comma separated value. A set but blank value yields
// an empty list.
func getenvList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return stringsx.SplitList(v)
}
