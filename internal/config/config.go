package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Env             string
	Addr            string
	Driver          string
	DatabaseURL     string
	DBPath          string
	RateLimits      RateLimits
	ShutdownTimeout time.Duration
}

type RateLimits struct {
	// WritePerMinute caps POST, PATCH and DELETE requests per client. Zero
	// disables the limit.
	WritePerMinute int
}

// Load reads configuration from NEWSBOARD_* environment variables after
// loading .env.<NEWSBOARD_ENV> and .env, when those files exist. Variables
// already set in the environment win over file values.
func Load() (Config, error) {
	env := viper.New()
	env.SetEnvPrefix("NEWSBOARD")
	env.AutomaticEnv()
	env.SetDefault("env", "development")

	_ = godotenv.Load(".env." + env.GetString("env"))
	_ = godotenv.Load(".env")

	return load(env)
}

func load(v *viper.Viper) (Config, error) {
	v.SetDefault("env", "development")
	v.SetDefault("driver", DriverSQLite)
	v.SetDefault("db", "newsboard.db")
	v.SetDefault("rl_write_per_min", 0)
	v.SetDefault("shutdown_timeout", 5*time.Second)
	if err := v.BindEnv("port", "PORT"); err != nil {
		return Config{}, err
	}

	addr := v.GetString("addr")
	if addr == "" {
		if port := v.GetString("port"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}

	cfg := Config{
		Env:         v.GetString("env"),
		Addr:        addr,
		Driver:      v.GetString("driver"),
		DatabaseURL: v.GetString("database_url"),
		DBPath:      v.GetString("db"),
		RateLimits: RateLimits{
			WritePerMinute: v.GetInt("rl_write_per_min"),
		},
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("sqlite driver requires NEWSBOARD_DB")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("postgres driver requires NEWSBOARD_DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.RateLimits.WritePerMinute < 0 {
		return errors.New("NEWSBOARD_RL_WRITE_PER_MIN must not be negative")
	}
	return nil
}
