package chain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("  0x00000000000000000000000000000000000000aa ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != common.HexToAddress("0xaa") {
		t.Fatalf("address mismatch: %s", addr.Hex())
	}

	if _, err := ParseAddress("0x1234"); err == nil {
		t.Fatalf("expected error for short address")
	}
	if _, err := ParseAddress(""); err == nil {
		t.Fatalf("expected error for empty address")
	}
}

func TestParseAddressesSkipsBlanks(t *testing.T) {
	got, err := ParseAddresses([]string{"", "0x00000000000000000000000000000000000000aa", " "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 address, got %d", len(got))
	}
}

func TestPadGas(t *testing.T) {
	if got := padGas(100_000); got != 120_000 {
		t.Fatalf("padded gas mismatch: %d", got)
	}
}
