package swap

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"

	"liquidityManager/internal/api"
	"liquidityManager/internal/model"
)

// QuoteRequest asks the aggregator for an exact-input route.
type QuoteRequest struct {
	InputToken  common.Address
	OutputToken common.Address
	Amount      *big.Int
	SlippageBps int64
}

// Quote is an aggregator route. Raw is passed back verbatim when building the swap.
type Quote struct {
	InputToken  common.Address  `json:"inputToken"`
	OutputToken common.Address  `json:"outputToken"`
	InAmount    string          `json:"inAmount"`
	OutAmount   string          `json:"outAmount"`
	Raw         json.RawMessage `json:"-"`
}

// Client talks to a swap aggregator HTTP API.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{http: api.NewClient(baseURL, timeout)}
}

// Quote fetches the best route for req.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return Quote{}, fmt.Errorf("quote amount must be positive")
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"inputToken":  req.InputToken.Hex(),
			"outputToken": req.OutputToken.Hex(),
			"amount":      req.Amount.String(),
			"slippageBps": fmt.Sprintf("%d", req.SlippageBps),
		}).
		Get("/quote")
	if err := api.Check(resp, err); err != nil {
		return Quote{}, fmt.Errorf("get quote: %w", err)
	}

	var quote Quote
	if err := json.Unmarshal(resp.Body(), &quote); err != nil {
		return Quote{}, fmt.Errorf("decode quote: %w", err)
	}
	quote.Raw = append(json.RawMessage(nil), resp.Body()...)
	return quote, nil
}

type swapBody struct {
	QuoteResponse json.RawMessage `json:"quoteResponse"`
	UserAddress   string          `json:"userAddress"`
}

type swapResponse struct {
	Tx model.TxRequest `json:"tx"`
}

// BuildSwap returns the unsigned transaction that executes quote for user.
func (c *Client) BuildSwap(ctx context.Context, quote Quote, user common.Address) (model.TxRequest, error) {
	if len(quote.Raw) == 0 {
		return model.TxRequest{}, fmt.Errorf("quote has no raw payload")
	}
	var out swapResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(swapBody{QuoteResponse: quote.Raw, UserAddress: user.Hex()}).
		SetResult(&out).
		Post("/swap")
	if err := api.Check(resp, err); err != nil {
		return model.TxRequest{}, fmt.Errorf("build swap: %w", err)
	}
	if out.Tx.To == (common.Address{}) {
		return model.TxRequest{}, fmt.Errorf("build swap: empty transaction target")
	}
	return out.Tx, nil
}
