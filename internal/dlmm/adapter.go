package dlmm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"liquidityManager/internal/api"
	"liquidityManager/internal/model"
)

// Caller is the chain access the adapter needs.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)
}

// Adapter reads pair state on-chain and builds position transactions through the exchange API.
type Adapter struct {
	caller Caller
	http   *resty.Client
	logger *zap.Logger
}

// NewAdapter creates an adapter for the exchange API at baseURL.
func NewAdapter(caller Caller, baseURL string, timeout time.Duration, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		caller: caller,
		http:   api.NewClient(baseURL, timeout),
		logger: logger,
	}
}

// ActiveBin fetches the pair's active bin, its price, and the token pair. Never cached.
func (a *Adapter) ActiveBin(ctx context.Context, pool common.Address) (model.PoolState, error) {
	pairABI, err := PairABI()
	if err != nil {
		return model.PoolState{}, fmt.Errorf("parse pair abi: %w", err)
	}

	values, err := a.call(ctx, pool, pairABI, "getActiveId")
	if err != nil {
		return model.PoolState{}, err
	}
	activeID, err := asBigInt(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("active id: %w", err)
	}

	values, err = a.call(ctx, pool, pairABI, "getPriceFromId", activeID)
	if err != nil {
		return model.PoolState{}, err
	}
	priceX128, err := asBigInt(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("price: %w", err)
	}

	tokenX, err := a.callAddress(ctx, pool, pairABI, "getTokenX")
	if err != nil {
		return model.PoolState{}, err
	}
	tokenY, err := a.callAddress(ctx, pool, pairABI, "getTokenY")
	if err != nil {
		return model.PoolState{}, err
	}

	decimalsX, err := a.caller.TokenDecimals(ctx, tokenX)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("token x decimals: %w", err)
	}
	decimalsY, err := a.caller.TokenDecimals(ctx, tokenY)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("token y decimals: %w", err)
	}

	price, err := PriceFromX128(priceX128, decimalsX, decimalsY)
	if err != nil {
		return model.PoolState{}, err
	}

	return model.PoolState{
		Pool:        pool,
		TokenX:      tokenX,
		TokenY:      tokenY,
		DecimalsX:   decimalsX,
		DecimalsY:   decimalsY,
		ActiveBinID: int32(activeID.Int64()),
		ActivePrice: price,
	}, nil
}

// UserPositions returns every position owned by owner, grouped by pool.
func (a *Adapter) UserPositions(ctx context.Context, owner common.Address) (map[common.Address][]model.AccountPosition, error) {
	var out positionsResponse
	resp, err := a.http.R().
		SetContext(ctx).
		SetQueryParam("owner", owner.Hex()).
		SetResult(&out).
		Get("/v1/positions")
	if err := api.Check(resp, err); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}

	grouped := make(map[common.Address][]model.AccountPosition)
	for _, raw := range out.Positions {
		pos, err := convertPosition(raw)
		if err != nil {
			return nil, err
		}
		grouped[pos.Pool] = append(grouped[pos.Pool], pos)
	}
	a.logger.Debug("positions loaded", zap.String("owner", owner.Hex()), zap.Int("positions", len(out.Positions)))
	return grouped, nil
}

// OpenBalancedPosition builds a spot-balanced open-position transaction.
func (a *Adapter) OpenBalancedPosition(ctx context.Context, req OpenRequest) (OpenTx, error) {
	if req.MinBinID > req.MaxBinID {
		return OpenTx{}, fmt.Errorf("invalid bin range [%d, %d]", req.MinBinID, req.MaxBinID)
	}
	body := openBody{
		Pool:        req.Pool.Hex(),
		Owner:       req.Owner.Hex(),
		AmountX:     amountString(req.AmountX),
		AmountY:     amountString(req.AmountY),
		MinBinID:    req.MinBinID,
		MaxBinID:    req.MaxBinID,
		Strategy:    StrategySpotBalanced,
		SlippageBps: req.SlippageBps,
	}

	var out openResponse
	resp, err := a.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/v1/positions/open")
	if err := api.Check(resp, err); err != nil {
		return OpenTx{}, fmt.Errorf("build open position: %w", err)
	}
	if !common.IsHexAddress(out.Position) {
		return OpenTx{}, fmt.Errorf("build open position: invalid position address %q", out.Position)
	}
	return OpenTx{Position: common.HexToAddress(out.Position), Tx: out.Tx}, nil
}

// CloseAndClaim builds one transaction that withdraws all liquidity, claims fees, and closes the position.
func (a *Adapter) CloseAndClaim(ctx context.Context, req CloseRequest) (model.TxRequest, error) {
	if len(req.BinIDs) == 0 {
		return model.TxRequest{}, fmt.Errorf("position %s holds no bins", req.Position.Hex())
	}
	body := closeBody{
		Position:      req.Position.Hex(),
		Owner:         req.Owner.Hex(),
		BinIDs:        req.BinIDs,
		Bps:           FullWithdrawBps,
		ClaimAndClose: true,
	}

	var out txResponse
	resp, err := a.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/v1/positions/close")
	if err := api.Check(resp, err); err != nil {
		return model.TxRequest{}, fmt.Errorf("build close position: %w", err)
	}
	return out.Tx, nil
}

func (a *Adapter) call(ctx context.Context, pool common.Address, pairABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := pairABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := a.caller.CallContract(ctx, ethereum.CallMsg{To: &pool, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := pairABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}

func (a *Adapter) callAddress(ctx context.Context, pool common.Address, pairABI abi.ABI, method string) (common.Address, error) {
	values, err := a.call(ctx, pool, pairABI, method)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: unsupported address type %T", method, values[0])
	}
	return addr, nil
}

func convertPosition(raw positionJSON) (model.AccountPosition, error) {
	for _, field := range []struct{ name, value string }{
		{"position address", raw.Address},
		{"pool", raw.Pool},
		{"owner", raw.Owner},
	} {
		if !common.IsHexAddress(field.value) {
			return model.AccountPosition{}, fmt.Errorf("invalid %s %q", field.name, field.value)
		}
	}

	pos := model.AccountPosition{
		Address:    common.HexToAddress(raw.Address),
		Pool:       common.HexToAddress(raw.Pool),
		Owner:      common.HexToAddress(raw.Owner),
		LowerBinID: raw.LowerBinID,
		UpperBinID: raw.UpperBinID,
		Bins:       make([]model.BinLiquidity, 0, len(raw.Bins)),
	}
	for _, bin := range raw.Bins {
		liquidity, err := parseAmount("liquidity", bin.Liquidity)
		if err != nil {
			return model.AccountPosition{}, err
		}
		amountX, err := parseAmount("amount_x", bin.AmountX)
		if err != nil {
			return model.AccountPosition{}, err
		}
		amountY, err := parseAmount("amount_y", bin.AmountY)
		if err != nil {
			return model.AccountPosition{}, err
		}
		pos.Bins = append(pos.Bins, model.BinLiquidity{
			BinID:     bin.BinID,
			Liquidity: liquidity,
			AmountX:   amountX,
			AmountY:   amountY,
		})
	}
	return pos, nil
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
