package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/ulule/limiter/v3"
)

type Configuration struct {
	Port              int           `env:"PORT" envDefault:"8081"`
	GenerationAPIBase string        `env:"GENERATION_API_BASE" envDefault:"http://localhost:5000"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"8s"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	MetricsPath       string        `env:"METRICS_PATH" envDefault:"/metrics"`
	// The generation service accepts uploads up to 16MB.
	MaxListBytes int64 `env:"MAX_LIST_BYTES" envDefault:"16777216"`
	// Websocket upgrades per client IP, in limiter's "<n>-<S|M|H|D>" form.
	// Empty disables the limit.
	WSRateLimit string `env:"WS_RATE_LIMIT" envDefault:"30-M"`
}

// LoadEnv loads the env files that exist, earlier files winning.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads .env files and then the process environment.
func Load(envFiles ...string) (*Configuration, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", ".env.local"}
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, errors.Wrap(err, "load env files")
	}
	c := &Configuration{}
	if err := env.Parse(c); err != nil {
		return nil, errors.Wrap(err, "parse env")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Configuration) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("PORT must be in 1..65535, got %d", c.Port)
	}
	if strings.TrimSpace(c.GenerationAPIBase) == "" {
		return errors.New("GENERATION_API_BASE is required")
	}
	if c.GenerationTimeout <= 0 {
		return errors.Errorf("GENERATION_TIMEOUT must be positive, got %s", c.GenerationTimeout)
	}
	if !strings.HasPrefix(c.MetricsPath, "/") {
		return errors.Errorf("METRICS_PATH must start with '/', got %q", c.MetricsPath)
	}
	if c.MaxListBytes <= 0 {
		return errors.Errorf("MAX_LIST_BYTES must be positive, got %d", c.MaxListBytes)
	}
	if c.WSRateLimit != "" {
		if _, err := limiter.NewRateFromFormatted(c.WSRateLimit); err != nil {
			return errors.Wrap(err, "WS_RATE_LIMIT")
		}
	}
	return nil
}

func (c *Configuration) Addr() string { return fmt.Sprintf(":%d", c.Port) }
