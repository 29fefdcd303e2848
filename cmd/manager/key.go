package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityManager/internal/config"
	"liquidityManager/internal/keys"
)

func runKeyEncrypt(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadKey(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	managed, err := keys.EncryptHex(cfg.PrivateKey, cfg.Passphrase, cfg.KeyIterations)
	if err != nil {
		logger.Error("encrypt key failed", zap.Error(err))
		return err
	}

	logger.Info("credential encrypted",
		zap.String("account", managed.Address.Hex()),
		zap.Int("iterations", cfg.KeyIterations),
	)
	fmt.Fprintln(cmd.OutOrStdout(), managed.Credential)
	return nil
}
