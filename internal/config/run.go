package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// RunConfig configures the run and watch commands.
type RunConfig struct {
	PGDSN          string
	Migrate        bool
	Owner          string
	PoolAPI        string
	SwapAPI        string
	Passphrase     string
	Concurrency    int
	RedisURL       string
	LeaseTTL       time.Duration
	Journal        string
	HTTPTimeout    time.Duration
	ConfirmTimeout time.Duration
	RetryDelay     time.Duration
	Interval       time.Duration
	LogLevel       string
}

// LoadRun merges config file, environment variables, and flags into RunConfig.
func LoadRun(cfgFile string, flags *pflag.FlagSet) (RunConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"concurrency":     4,
		"lease-ttl":       10 * time.Minute,
		"http-timeout":    30 * time.Second,
		"confirm-timeout": 90 * time.Second,
		"retry-delay":     5 * time.Second,
		"interval":        5 * time.Minute,
		"log-level":       "info",
	})
	if err != nil {
		return RunConfig{}, err
	}

	cfg := RunConfig{
		PGDSN:          v.GetString("pg-dsn"),
		Migrate:        v.GetBool("migrate"),
		Owner:          v.GetString("owner"),
		PoolAPI:        v.GetString("pool-api"),
		SwapAPI:        v.GetString("swap-api"),
		Passphrase:     v.GetString("key-passphrase"),
		Concurrency:    v.GetInt("concurrency"),
		RedisURL:       v.GetString("redis-url"),
		LeaseTTL:       v.GetDuration("lease-ttl"),
		Journal:        v.GetString("journal"),
		HTTPTimeout:    v.GetDuration("http-timeout"),
		ConfirmTimeout: v.GetDuration("confirm-timeout"),
		RetryDelay:     v.GetDuration("retry-delay"),
		Interval:       v.GetDuration("interval"),
		LogLevel:       v.GetString("log-level"),
	}
	return cfg, cfg.validate()
}

func (c RunConfig) validate() error {
	switch {
	case c.PGDSN == "":
		return fmt.Errorf("pg dsn is required")
	case c.PoolAPI == "":
		return fmt.Errorf("pool api url is required")
	case c.SwapAPI == "":
		return fmt.Errorf("swap api url is required")
	case c.Passphrase == "":
		return fmt.Errorf("key passphrase is required")
	case c.Concurrency <= 0:
		return fmt.Errorf("concurrency must be positive")
	case c.Interval <= 0:
		return fmt.Errorf("interval must be positive")
	}
	return nil
}
