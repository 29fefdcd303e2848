package main

import (
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "manager",
		Short:        "Automated concentrated-liquidity position manager",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Manage every stored position once",
		RunE:  runOnce,
	}
	addRunFlags(runCmd)
	root.AddCommand(runCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage stored positions immediately and then on every interval",
		RunE:  runWatch,
	}
	addRunFlags(watchCmd)
	watchCmd.Flags().Duration("interval", 5*time.Minute, "time between ticks")
	root.AddCommand(watchCmd)

	positionCmd := &cobra.Command{
		Use:   "position",
		Short: "Manage position records",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register a pool for management under a freshly generated account",
		RunE:  runPositionAdd,
	}
	addPositionStoreFlags(addCmd)
	addCmd.Flags().String("key-passphrase", "", "passphrase used to encrypt managed keys")
	addCmd.Flags().Int("key-iterations", 0, "PBKDF2 iterations for new credentials (0 uses the default)")
	addCmd.Flags().String("owner", "", "address of the user the record belongs to")
	addCmd.Flags().String("rpc", "", "RPC URL used for this position")
	addCmd.Flags().String("pool", "", "pair address")
	addCmd.Flags().String("token0", "", "token X address of the pair")
	addCmd.Flags().String("token1", "", "token Y address of the pair")
	addCmd.Flags().Int("total-bin-range", 20, "bins covered by a new position")
	addCmd.Flags().Float64("rebalance-slippage", 0.01, "swap slippage as a fraction")
	addCmd.Flags().Float64("pool-slippage", 0.005, "deposit slippage as a fraction")
	addCmd.Flags().Int("rebalance-max-attempts", 3, "rebalance attempts per tick")
	addCmd.Flags().Int("add-liquidity-max-attempts", 3, "open attempts per tick")
	addCmd.Flags().Int("remove-liquidity-max-attempts", 3, "close attempts per tick")
	positionCmd.AddCommand(addCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List position records",
		RunE:  runPositionList,
	}
	addPositionStoreFlags(listCmd)
	listCmd.Flags().String("owner", "", "only list records of this owner")
	listCmd.Flags().Int64("id", 0, "show only the record with this id")
	positionCmd.AddCommand(listCmd)

	root.AddCommand(positionCmd)

	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Key custody helpers",
	}
	encryptCmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt an existing private key into a stored credential",
		RunE:  runKeyEncrypt,
	}
	encryptCmd.Flags().String("key-passphrase", "", "passphrase used to encrypt managed keys")
	encryptCmd.Flags().String("private-key", "", "hex private key to encrypt")
	encryptCmd.Flags().Int("key-iterations", 0, "PBKDF2 iterations (0 uses the default)")
	encryptCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	keyCmd.AddCommand(encryptCmd)
	root.AddCommand(keyCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().Bool("migrate", false, "apply database migrations before running")
	cmd.Flags().String("owner", "", "only manage records of this owner")
	cmd.Flags().String("pool-api", "", "exchange API base URL")
	cmd.Flags().String("swap-api", "", "swap aggregator API base URL")
	cmd.Flags().String("key-passphrase", "", "passphrase used to decrypt managed keys")
	cmd.Flags().Int("concurrency", 4, "positions managed in parallel")
	cmd.Flags().String("redis-url", "", "optional Redis URL for cross-process position leases")
	cmd.Flags().Duration("lease-ttl", 10*time.Minute, "position lease TTL")
	cmd.Flags().String("journal", "", "optional JSONL file receiving one result per position per tick")
	cmd.Flags().Duration("http-timeout", 30*time.Second, "timeout for exchange and swap API calls")
	cmd.Flags().Duration("confirm-timeout", 90*time.Second, "timeout waiting for a transaction receipt")
	cmd.Flags().Duration("retry-delay", 5*time.Second, "wait between attempts of an on-chain operation")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func addPositionStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().Bool("migrate", false, "apply database migrations first")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "***"
	}
	return u.Redacted()
}
