package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"liquidityManager/internal/keys"
)

// KeyConfig configures the key encrypt command.
type KeyConfig struct {
	Passphrase    string
	PrivateKey    string
	KeyIterations int
	LogLevel      string
}

// LoadKey merges config file, environment variables, and flags into KeyConfig.
func LoadKey(cfgFile string, flags *pflag.FlagSet) (KeyConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"key-iterations": keys.DefaultIterations,
		"log-level":      "info",
	})
	if err != nil {
		return KeyConfig{}, err
	}

	cfg := KeyConfig{
		Passphrase:    v.GetString("key-passphrase"),
		PrivateKey:    v.GetString("private-key"),
		KeyIterations: v.GetInt("key-iterations"),
		LogLevel:      v.GetString("log-level"),
	}
	if cfg.Passphrase == "" {
		return KeyConfig{}, fmt.Errorf("key passphrase is required")
	}
	if cfg.PrivateKey == "" {
		return KeyConfig{}, fmt.Errorf("private key is required")
	}
	return cfg, nil
}
