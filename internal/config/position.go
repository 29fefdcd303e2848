package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"liquidityManager/internal/keys"
)

// PositionConfig configures the position add and list commands.
type PositionConfig struct {
	PGDSN                      string
	Migrate                    bool
	Passphrase                 string
	KeyIterations              int
	Owner                      string
	ID                         int64
	RPC                        string
	Pool                       string
	Token0                     string
	Token1                     string
	TotalBinRange              int
	RebalanceSlippage          float64
	PoolSlippage               float64
	RebalanceMaxAttempts       int
	AddLiquidityMaxAttempts    int
	RemoveLiquidityMaxAttempts int
	LogLevel                   string
}

// LoadPosition merges config file, environment variables, and flags into PositionConfig.
func LoadPosition(cfgFile string, flags *pflag.FlagSet) (PositionConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"key-iterations":                keys.DefaultIterations,
		"total-bin-range":               20,
		"rebalance-slippage":            0.01,
		"pool-slippage":                 0.005,
		"rebalance-max-attempts":        3,
		"add-liquidity-max-attempts":    3,
		"remove-liquidity-max-attempts": 3,
		"log-level":                     "info",
	})
	if err != nil {
		return PositionConfig{}, err
	}

	cfg := PositionConfig{
		PGDSN:                      v.GetString("pg-dsn"),
		Migrate:                    v.GetBool("migrate"),
		Passphrase:                 v.GetString("key-passphrase"),
		KeyIterations:              v.GetInt("key-iterations"),
		Owner:                      v.GetString("owner"),
		ID:                         v.GetInt64("id"),
		RPC:                        v.GetString("rpc"),
		Pool:                       v.GetString("pool"),
		Token0:                     v.GetString("token0"),
		Token1:                     v.GetString("token1"),
		TotalBinRange:              v.GetInt("total-bin-range"),
		RebalanceSlippage:          v.GetFloat64("rebalance-slippage"),
		PoolSlippage:               v.GetFloat64("pool-slippage"),
		RebalanceMaxAttempts:       v.GetInt("rebalance-max-attempts"),
		AddLiquidityMaxAttempts:    v.GetInt("add-liquidity-max-attempts"),
		RemoveLiquidityMaxAttempts: v.GetInt("remove-liquidity-max-attempts"),
		LogLevel:                   v.GetString("log-level"),
	}
	if cfg.PGDSN == "" {
		return PositionConfig{}, fmt.Errorf("pg dsn is required")
	}
	return cfg, nil
}

// ValidateNew checks the fields needed to register a new position.
func (c PositionConfig) ValidateNew() error {
	switch {
	case c.Passphrase == "":
		return fmt.Errorf("key passphrase is required")
	case c.Owner == "" || c.Pool == "" || c.Token0 == "" || c.Token1 == "":
		return fmt.Errorf("owner, pool, token0 and token1 are required")
	case c.RPC == "":
		return fmt.Errorf("rpc url is required")
	case c.TotalBinRange < 0:
		return fmt.Errorf("total bin range must not be negative")
	case c.RebalanceSlippage < 0 || c.RebalanceSlippage >= 1 || c.PoolSlippage < 0 || c.PoolSlippage >= 1:
		return fmt.Errorf("slippage must be a fraction in [0, 1)")
	case c.RebalanceMaxAttempts <= 0 || c.AddLiquidityMaxAttempts <= 0 || c.RemoveLiquidityMaxAttempts <= 0:
		return fmt.Errorf("max attempts must be positive")
	}
	return nil
}
