package manager

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"liquidityManager/internal/chain"
	"liquidityManager/internal/dlmm"
	"liquidityManager/internal/keys"
	"liquidityManager/internal/model"
	"liquidityManager/internal/rebalance"
	"liquidityManager/internal/retry"
)

// MinGasBalance is the native balance (0.07 in 18-decimal units) below which a run is skipped.
var MinGasBalance = big.NewInt(70_000_000_000_000_000)

var (
	ErrNotOwner          = errors.New("position not owned by managed account")
	ErrTokenMismatch     = errors.New("pool tokens do not match configured pair")
	ErrNothingToDeposit  = errors.New("token0 balance too small to deposit")
	ErrAccountMismatch   = errors.New("credential does not match configured account")
	errInvalidMaxAttempt = errors.New("max attempts must be positive")
)

// Controller decides and executes one management step per position.
type Controller struct {
	keys   keys.Provider
	dial   Dialer
	logger *zap.Logger

	// RetryDelay is the wait between attempts of an on-chain operation.
	RetryDelay time.Duration
	// Sleep overrides the retry wait. Nil uses a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewController(provider keys.Provider, dial Dialer, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		keys:       provider,
		dial:       dial,
		logger:     logger,
		RetryDelay: retry.DefaultDelay,
	}
}

type target struct {
	account common.Address
	pool    common.Address
	token0  common.Address
	token1  common.Address
	key     *ecdsa.PrivateKey
}

// Run makes one management decision for cfg and executes it.
// Failures are reported in the returned Outcome.
func (c *Controller) Run(ctx context.Context, cfg model.PositionConfig) model.Outcome {
	logger := c.logger.With(zap.Int64("position_id", cfg.ID), zap.String("pool", cfg.Pool))

	tgt, err := c.resolve(cfg)
	if err != nil {
		logger.Error("invalid position config", zap.Error(err))
		return model.Failed(model.StageSetup, err)
	}
	logger = logger.With(zap.String("account", tgt.account.Hex()))

	session, err := c.dial(ctx, cfg.RPC)
	if err != nil {
		logger.Error("dial backends failed", zap.Error(err))
		return model.Failed(model.StageSetup, err)
	}
	if session.Close != nil {
		defer session.Close()
	}

	native, err := session.Chain.NativeBalance(ctx, tgt.account)
	if err != nil {
		logger.Error("read native balance failed", zap.Error(err))
		return model.Failed(model.StagePreflight, err)
	}
	if native.Cmp(MinGasBalance) < 0 {
		logger.Warn("insufficient gas balance", zap.String("balance_wei", native.String()))
		return model.Skipped(model.ReasonInsufficientGas)
	}

	grouped, err := session.Pool.UserPositions(ctx, tgt.account)
	if err != nil {
		logger.Error("query positions failed", zap.Error(err))
		return model.Failed(model.StageQuery, err)
	}
	positions := grouped[tgt.pool]
	if len(positions) > 1 {
		logger.Warn("multiple positions in pool, managing the first", zap.Int("positions", len(positions)))
	}

	state, err := c.poolState(ctx, session.Pool, tgt)
	if err != nil {
		logger.Error("query pool state failed", zap.Error(err))
		return model.Failed(model.StageQuery, err)
	}

	if len(positions) > 0 {
		pos := positions[0]
		if pos.Owner != tgt.account {
			logger.Error("position owner mismatch", zap.String("owner", pos.Owner.Hex()))
			return model.Failed(model.StageQuery, fmt.Errorf("%w: %s", ErrNotOwner, pos.Address.Hex()))
		}
		if pos.InRange(state.ActiveBinID) {
			logger.Info("position in range",
				zap.String("position", pos.Address.Hex()),
				zap.Int32("active_bin", state.ActiveBinID),
				zap.Int32("lower_bin", pos.LowerBinID),
				zap.Int32("upper_bin", pos.UpperBinID),
			)
			outcome := model.Skipped(model.ReasonInRange)
			outcome.Position = pos.Address.Hex()
			return outcome
		}
		logger.Info("position out of range, closing",
			zap.String("position", pos.Address.Hex()),
			zap.Int32("active_bin", state.ActiveBinID),
			zap.Int32("lower_bin", pos.LowerBinID),
			zap.Int32("upper_bin", pos.UpperBinID),
		)
		return c.close(ctx, session, cfg, tgt, pos, logger)
	}

	logger.Info("no position, rebalancing and opening", zap.Int32("active_bin", state.ActiveBinID))
	if _, err := c.rebalance(ctx, session, cfg, tgt, logger); err != nil {
		return model.Failed(model.StageRebalance, err)
	}
	return c.open(ctx, session, cfg, tgt, logger)
}

func (c *Controller) resolve(cfg model.PositionConfig) (target, error) {
	var tgt target
	var err error
	if tgt.pool, err = chain.ParseAddress(cfg.Pool); err != nil {
		return target{}, fmt.Errorf("pool: %w", err)
	}
	if tgt.token0, err = chain.ParseAddress(cfg.Token0); err != nil {
		return target{}, fmt.Errorf("token0: %w", err)
	}
	if tgt.token1, err = chain.ParseAddress(cfg.Token1); err != nil {
		return target{}, fmt.Errorf("token1: %w", err)
	}
	for _, limit := range []struct {
		name  string
		value int
	}{
		{"rebalance", cfg.RebalanceMaxAttempts},
		{"add liquidity", cfg.AddLiquidityMaxAttempts},
		{"remove liquidity", cfg.RemoveLiquidityMaxAttempts},
	} {
		if limit.value <= 0 {
			return target{}, fmt.Errorf("%s: %w", limit.name, errInvalidMaxAttempt)
		}
	}
	if cfg.TotalBinRange < 0 {
		return target{}, fmt.Errorf("total bin range must not be negative, got %d", cfg.TotalBinRange)
	}
	if c.keys == nil {
		return target{}, fmt.Errorf("no key provider configured")
	}

	tgt.key, err = c.keys.Resolve(cfg.Credential)
	if err != nil {
		return target{}, fmt.Errorf("resolve signer: %w", err)
	}
	tgt.account = crypto.PubkeyToAddress(tgt.key.PublicKey)
	if cfg.Account != "" {
		configured, err := chain.ParseAddress(cfg.Account)
		if err != nil {
			return target{}, fmt.Errorf("account: %w", err)
		}
		if configured != tgt.account {
			return target{}, fmt.Errorf("%w: %s", ErrAccountMismatch, configured.Hex())
		}
	}
	return tgt, nil
}

func (c *Controller) poolState(ctx context.Context, pool Pool, tgt target) (model.PoolState, error) {
	state, err := pool.ActiveBin(ctx, tgt.pool)
	if err != nil {
		return model.PoolState{}, err
	}
	if state.TokenX != tgt.token0 || state.TokenY != tgt.token1 {
		return model.PoolState{}, fmt.Errorf("%w: pool has %s/%s", ErrTokenMismatch, state.TokenX.Hex(), state.TokenY.Hex())
	}
	return state, nil
}

func (c *Controller) policy(stage string, maxAttempts int, logger *zap.Logger) retry.Policy {
	return retry.Policy{
		Stage:       stage,
		MaxAttempts: maxAttempts,
		Delay:       c.RetryDelay,
		Sleep:       c.Sleep,
		OnFailure: func(attempt int, err error) {
			logger.Warn("attempt failed",
				zap.String("stage", stage),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.Error(err),
			)
		},
	}
}

func (c *Controller) close(ctx context.Context, session *Session, cfg model.PositionConfig, tgt target, pos model.AccountPosition, logger *zap.Logger) model.Outcome {
	var hash common.Hash
	err := retry.Do(ctx, c.policy(model.StageClose, cfg.RemoveLiquidityMaxAttempts, logger), func(ctx context.Context, _ int) error {
		tx, err := session.Pool.CloseAndClaim(ctx, dlmm.CloseRequest{
			Position: pos.Address,
			Owner:    tgt.account,
			BinIDs:   pos.BinIDs(),
		})
		if err != nil {
			return err
		}
		hash, err = session.Chain.Submit(ctx, tgt.key, tx)
		return err
	})
	if err != nil {
		logger.Error("close position failed", zap.String("position", pos.Address.Hex()), zap.Error(err))
		return model.Failed(model.StageClose, err)
	}

	logger.Info("position closed", zap.String("position", pos.Address.Hex()), zap.String("tx", hash.Hex()))
	return model.Outcome{Kind: model.OutcomeClosed, Position: pos.Address.Hex(), TxHash: hash.Hex()}
}

func (c *Controller) rebalance(ctx context.Context, session *Session, cfg model.PositionConfig, tgt target, logger *zap.Logger) (rebalance.Result, error) {
	var result rebalance.Result
	err := retry.Do(ctx, c.policy(model.StageRebalance, cfg.RebalanceMaxAttempts, logger), func(ctx context.Context, _ int) error {
		// The price moves between attempts; each swap is sized against the current bin.
		state, err := c.poolState(ctx, session.Pool, tgt)
		if err != nil {
			return err
		}
		result, err = session.Rebalancer.Rebalance(ctx, rebalance.Request{
			Key:         tgt.key,
			Token0:      tgt.token0,
			Token1:      tgt.token1,
			Price:       state.ActivePrice,
			SlippageBps: model.SlippageBps(cfg.RebalanceSlippage),
		})
		return err
	})
	if err != nil {
		logger.Error("rebalance failed", zap.Error(err))
		return rebalance.Result{}, err
	}
	return result, nil
}

func (c *Controller) open(ctx context.Context, session *Session, cfg model.PositionConfig, tgt target, logger *zap.Logger) model.Outcome {
	var opened dlmm.OpenTx
	var hash common.Hash
	err := retry.Do(ctx, c.policy(model.StageOpen, cfg.AddLiquidityMaxAttempts, logger), func(ctx context.Context, _ int) error {
		balance0, err := session.Chain.TokenBalance(ctx, tgt.token0, tgt.account)
		if err != nil {
			return fmt.Errorf("token0 balance: %w", err)
		}
		deposit := DepositAmount(balance0.Raw)
		if deposit.Sign() == 0 {
			return retry.Permanent(ErrNothingToDeposit)
		}

		state, err := c.poolState(ctx, session.Pool, tgt)
		if err != nil {
			return err
		}
		half := cfg.BinsPerSide()
		opened, err = session.Pool.OpenBalancedPosition(ctx, dlmm.OpenRequest{
			Pool:        tgt.pool,
			Owner:       tgt.account,
			AmountX:     deposit,
			AmountY:     state.AmountYFor(deposit),
			MinBinID:    state.ActiveBinID - half,
			MaxBinID:    state.ActiveBinID + half,
			SlippageBps: model.SlippageBps(cfg.PoolSlippage),
		})
		if err != nil {
			return err
		}
		hash, err = session.Chain.Submit(ctx, tgt.key, opened.Tx)
		return err
	})
	if err != nil {
		logger.Error("open position failed", zap.Error(err))
		return model.Failed(model.StageOpen, err)
	}

	logger.Info("position opened", zap.String("position", opened.Position.Hex()), zap.String("tx", hash.Hex()))
	return model.Outcome{Kind: model.OutcomeOpened, Position: opened.Position.Hex(), TxHash: hash.Hex()}
}

// DepositAmount is the share of a raw token0 balance committed to a new position: floor(raw * 9 / 10).
func DepositAmount(raw *big.Int) *big.Int {
	if raw == nil || raw.Sign() <= 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(raw, big.NewInt(9))
	return out.Div(out, big.NewInt(10))
}
