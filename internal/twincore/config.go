package twincore

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the runtime configuration of the twin. Values come from the
// environment (optionally seeded from a .env file) and are overridden by CLI flags.
type Config struct {
	Port        int           `env:"PORT" envDefault:"0"`
	Latency     time.Duration `env:"POSTMARK_TWIN_LATENCY" envDefault:"0s"`
	FailRate    float64       `env:"POSTMARK_TWIN_FAIL_RATE" envDefault:"0"`
	SeedFile    string        `env:"POSTMARK_TWIN_SEED_FILE"`
	Verbose     bool          `env:"POSTMARK_TWIN_VERBOSE" envDefault:"false"`
	ServerToken string        `env:"POSTMARK_TWIN_SERVER_TOKEN"`
	Name        string        `env:"-"` // twin name for logging
}

// LoadConfig builds a Config for the named twin from the environment and args
// (typically os.Args[1:]). A missing .env file is not an error.
func LoadConfig(twinName string, args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	cfg.Name = twinName

	fs := flag.NewFlagSet(twinName, flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port (default: auto-assigned)")
	fs.DurationVar(&cfg.Latency, "latency", cfg.Latency, "Base simulated latency")
	fs.Float64Var(&cfg.FailRate, "fail-rate", cfg.FailRate, "Random failure rate 0.0-1.0")
	fs.StringVar(&cfg.SeedFile, "seed-file", cfg.SeedFile, "Path to JSON or YAML fixture for initial state")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Enable request/response logging")
	fs.StringVar(&cfg.ServerToken, "server-token", cfg.ServerToken, "Require this X-Postmark-Server-Token (default: accept any)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", c.Port)
	}
	if c.Latency < 0 {
		return fmt.Errorf("latency must not be negative")
	}
	if c.FailRate < 0 || c.FailRate > 1 {
		return fmt.Errorf("fail rate must be between 0.0 and 1.0")
	}
	return nil
}
