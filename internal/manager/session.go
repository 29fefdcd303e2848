package manager

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityManager/internal/chain"
	"liquidityManager/internal/dlmm"
	"liquidityManager/internal/model"
	"liquidityManager/internal/rebalance"
	"liquidityManager/internal/swap"
)

// Chain is the chain access the controller needs.
type Chain interface {
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, token, account common.Address) (model.TokenBalance, error)
	Submit(ctx context.Context, key *ecdsa.PrivateKey, req model.TxRequest) (common.Hash, error)
}

// Pool reads pair state and builds position transactions.
type Pool interface {
	ActiveBin(ctx context.Context, pool common.Address) (model.PoolState, error)
	UserPositions(ctx context.Context, owner common.Address) (map[common.Address][]model.AccountPosition, error)
	OpenBalancedPosition(ctx context.Context, req dlmm.OpenRequest) (dlmm.OpenTx, error)
	CloseAndClaim(ctx context.Context, req dlmm.CloseRequest) (model.TxRequest, error)
}

// Rebalancer evens out the account's token values before a deposit.
type Rebalancer interface {
	Rebalance(ctx context.Context, req rebalance.Request) (rebalance.Result, error)
}

// Session is the set of backends one run works against.
type Session struct {
	Chain      Chain
	Pool       Pool
	Rebalancer Rebalancer
	Close      func()
}

// Dialer opens a session against the node at rpcURL.
type Dialer func(ctx context.Context, rpcURL string) (*Session, error)

// DialConfig configures the default dialer.
type DialConfig struct {
	PoolAPI        string
	SwapAPI        string
	HTTPTimeout    time.Duration
	ConfirmTimeout time.Duration
}

// NewDialer returns a Dialer that connects a chain client, the exchange adapter, and the swap router.
func NewDialer(cfg DialConfig, logger *zap.Logger) Dialer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, rpcURL string) (*Session, error) {
		if cfg.PoolAPI == "" || cfg.SwapAPI == "" {
			return nil, fmt.Errorf("pool api and swap api urls are required")
		}
		client, err := chain.NewClient(ctx, rpcURL, cfg.ConfirmTimeout)
		if err != nil {
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
		router := swap.NewClient(cfg.SwapAPI, cfg.HTTPTimeout)
		return &Session{
			Chain:      client,
			Pool:       dlmm.NewAdapter(client, cfg.PoolAPI, cfg.HTTPTimeout, logger),
			Rebalancer: rebalance.New(client, router, logger),
			Close:      client.Close,
		}, nil
	}
}
