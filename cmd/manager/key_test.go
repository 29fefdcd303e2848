package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"liquidityManager/internal/keys"
)

func TestKeyEncryptPrintsDecryptableCredential(t *testing.T) {
	const hexKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	t.Setenv("ALM_KEY_PASSPHRASE", "")

	cmd := &cobra.Command{Use: "encrypt", RunE: runKeyEncrypt}
	cmd.Flags().String("key-passphrase", "", "")
	cmd.Flags().String("private-key", "", "")
	cmd.Flags().Int("key-iterations", 0, "")
	cmd.Flags().String("log-level", "info", "")
	if err := cmd.Flags().Parse([]string{
		"--key-passphrase", "pw",
		"--private-key", "0x" + hexKey,
		"--key-iterations", "1000",
		"--log-level", "error",
	}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := runKeyEncrypt(cmd, nil); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	key, err := keys.Decrypt(strings.TrimSpace(out.String()), "pw")
	if err != nil {
		t.Fatalf("decrypt printed credential: %v", err)
	}
	want, _ := crypto.HexToECDSA(hexKey)
	if crypto.PubkeyToAddress(key.PublicKey) != crypto.PubkeyToAddress(want.PublicKey) {
		t.Fatalf("credential holds a different key")
	}
}

func TestKeyEncryptRejectsBadLogLevel(t *testing.T) {
	cmd := &cobra.Command{Use: "encrypt", RunE: runKeyEncrypt}
	cmd.Flags().String("key-passphrase", "", "")
	cmd.Flags().String("private-key", "", "")
	cmd.Flags().String("log-level", "info", "")
	if err := cmd.Flags().Parse([]string{"--key-passphrase", "pw", "--private-key", "0x01", "--log-level", "loud"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := runKeyEncrypt(cmd, nil); err == nil {
		t.Fatalf("expected log level error")
	}
	if out.Len() != 0 {
		t.Fatalf("nothing should be printed on failure, got %q", out.String())
	}
}
