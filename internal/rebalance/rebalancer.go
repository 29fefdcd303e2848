package rebalance

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"liquidityManager/internal/model"
	"liquidityManager/internal/swap"
)

// SettleDelay is how long to wait after a swap before re-reading balances.
const SettleDelay = 5 * time.Second

// Chain is the chain access the rebalancer needs.
type Chain interface {
	TokenBalance(ctx context.Context, token, account common.Address) (model.TokenBalance, error)
	Submit(ctx context.Context, key *ecdsa.PrivateKey, req model.TxRequest) (common.Hash, error)
}

// Router quotes and builds swaps.
type Router interface {
	Quote(ctx context.Context, req swap.QuoteRequest) (swap.Quote, error)
	BuildSwap(ctx context.Context, quote swap.Quote, user common.Address) (model.TxRequest, error)
}

// Request describes one rebalance of an account across a token pair.
type Request struct {
	Key    *ecdsa.PrivateKey
	Token0 common.Address
	Token1 common.Address
	// Price is token1 per token0 in whole units.
	Price       decimal.Decimal
	SlippageBps int64
}

// Result holds the balances available for the next deposit.
type Result struct {
	Token0 model.TokenBalance
	Token1 model.TokenBalance
	Plan   Plan
	TxHash common.Hash
}

// Swapped reports whether a swap transaction was submitted.
func (r Result) Swapped() bool {
	return r.Plan.Direction != NoSwap
}

// Rebalancer brings an account's two token balances to equal value.
type Rebalancer struct {
	chain  Chain
	router Router
	logger *zap.Logger

	// Sleep waits between the swap and the balance re-read. Nil uses a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func New(chain Chain, router Router, logger *zap.Logger) *Rebalancer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rebalancer{chain: chain, router: router, logger: logger}
}

// Rebalance swaps at most once and returns the resulting balances.
func (r *Rebalancer) Rebalance(ctx context.Context, req Request) (Result, error) {
	if req.Key == nil {
		return Result{}, fmt.Errorf("signing key is nil")
	}
	account := crypto.PubkeyToAddress(req.Key.PublicKey)

	balance0, balance1, err := r.balances(ctx, req.Token0, req.Token1, account)
	if err != nil {
		return Result{}, err
	}

	plan := ComputePlan(balance0, balance1, req.Price)
	logger := r.logger.With(
		zap.String("account", account.Hex()),
		zap.String("value0", plan.Value0.String()),
		zap.String("value1", plan.Value1.String()),
	)
	if plan.Direction == NoSwap {
		logger.Info("balances within threshold, no swap")
		return Result{Token0: balance0, Token1: balance1, Plan: plan}, nil
	}

	quoteReq := swap.QuoteRequest{
		InputToken:  req.Token0,
		OutputToken: req.Token1,
		Amount:      plan.RawAmount,
		SlippageBps: req.SlippageBps,
	}
	if plan.Direction == SellToken1 {
		quoteReq.InputToken, quoteReq.OutputToken = req.Token1, req.Token0
	}

	quote, err := r.router.Quote(ctx, quoteReq)
	if err != nil {
		return Result{}, err
	}
	tx, err := r.router.BuildSwap(ctx, quote, account)
	if err != nil {
		return Result{}, err
	}
	hash, err := r.chain.Submit(ctx, req.Key, tx)
	if err != nil {
		return Result{}, fmt.Errorf("submit swap: %w", err)
	}
	logger.Info("swap confirmed",
		zap.String("direction", plan.Direction.String()),
		zap.String("amount", plan.Amount.String()),
		zap.String("tx", hash.Hex()),
	)

	if err := r.sleep(ctx, SettleDelay); err != nil {
		return Result{}, err
	}
	balance0, balance1, err = r.balances(ctx, req.Token0, req.Token1, account)
	if err != nil {
		return Result{}, err
	}
	return Result{Token0: balance0, Token1: balance1, Plan: plan, TxHash: hash}, nil
}

func (r *Rebalancer) balances(ctx context.Context, token0, token1, account common.Address) (model.TokenBalance, model.TokenBalance, error) {
	balance0, err := r.chain.TokenBalance(ctx, token0, account)
	if err != nil {
		return model.TokenBalance{}, model.TokenBalance{}, fmt.Errorf("token0 balance: %w", err)
	}
	balance1, err := r.chain.TokenBalance(ctx, token1, account)
	if err != nil {
		return model.TokenBalance{}, model.TokenBalance{}, fmt.Errorf("token1 balance: %w", err)
	}
	return balance0, balance1, nil
}

func (r *Rebalancer) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
