package config

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type DatabaseOptions struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DB_DSN" envDefault:"rgn.db"`
	SQLLog bool   `env:"SQL_LOG" envDefault:"false"`
}

type LogOptions struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

type Configuration struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	RPCSocket   string `env:"RPC_SOCKET" envDefault:"/tmp/rgn.sock"`
	MetricsPath string `env:"METRICS_PATH" envDefault:"/metrics"`
	Database    DatabaseOptions
	Log         LogOptions
}

const envPrefix = "RGN_"

// DefaultEnvFiles are read in order when present. Variables already set in
// the process environment win.
var DefaultEnvFiles = []string{".env", ".env.local"}

// LoadEnv loads the env files that exist and reports how many were read.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func Load(envFiles ...string) (Configuration, error) {
	if envFiles == nil {
		envFiles = DefaultEnvFiles
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return Configuration{}, errors.Wrap(err, "load env files")
	}

	var c Configuration
	if err := env.ParseWithOptions(&c, env.Options{Prefix: envPrefix}); err != nil {
		return Configuration{}, errors.Wrap(err, "parse environment")
	}
	if err := c.Validate(); err != nil {
		return Configuration{}, err
	}
	return c, nil
}

func (c Configuration) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "postgres":
	default:
		return errors.Errorf("%sDB_DRIVER must be sqlite or postgres, got %q", envPrefix, c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.Errorf("%sDB_DSN is required", envPrefix)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.Errorf("%sLOG_FORMAT must be text or json, got %q", envPrefix, c.Log.Format)
	}
	if !strings.HasPrefix(c.MetricsPath, "/") {
		return errors.Errorf("%sMETRICS_PATH must start with /", envPrefix)
	}
	return nil
}
