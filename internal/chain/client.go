// Package chain talks to an EVM-compatible node over JSON-RPC: it deploys
// the Idea contract and reconstructs prior deployments from block history.
package chain

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"

	"github.com/vision-dao/beacon-deploy/internal/errs"
)

// ErrNotFound is returned when the node has no block or receipt for the
// requested identifier.
var ErrNotFound = errors.New("not found")

// Backend is the JSON-RPC surface the deployer and scanner depend on.
// Implementations must be safe for concurrent use.
type Backend interface {
	// BlockNumber returns the current chain head height.
	BlockNumber(ctx context.Context) (uint64, error)
	// BlockByNumber returns the block at the given height with its full
	// transaction list.
	BlockByNumber(ctx context.Context, number uint64) (*Block, error)
	// TransactionReceipt returns the receipt for a mined transaction, or
	// ErrNotFound if it has not been mined yet.
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error)
	// PendingNonceAt returns the account's next nonce including pending
	// transactions.
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	// SendTransaction submits a signed transaction.
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Block is a block with full transactions, limited to the fields the
// scanner matches on.
type Block struct {
	Number       hexutil.Uint64 `json:"number"`
	Hash         common.Hash    `json:"hash"`
	Transactions []Transaction  `json:"transactions"`
}

// Transaction is one transaction from a block's full-transaction listing.
type Transaction struct {
	Hash  common.Hash    `json:"hash"`
	Input hexutil.Bytes  `json:"input"`
	Index hexutil.Uint64 `json:"transactionIndex"`
}

// Receipt is a transaction receipt. It is decoded directly from the RPC
// response rather than through ethclient because the scanner's match
// predicate needs the sender, which go-ethereum's receipt type drops.
type Receipt struct {
	From            common.Address  `json:"from"`
	ContractAddress *common.Address `json:"contractAddress"`
	BlockNumber     hexutil.Uint64  `json:"blockNumber"`
	TxIndex         hexutil.Uint64  `json:"transactionIndex"`
	Status          hexutil.Uint64  `json:"status"`
}

// Client implements Backend over a go-ethereum rpc.Client.
type Client struct {
	rpc     *rpc.Client
	limiter *rate.Limiter
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithRateLimit throttles outgoing RPC calls to rps requests per second.
// Zero disables throttling.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// Dial connects to an EVM JSON-RPC endpoint.
func Dial(ctx context.Context, endpoint string, opts ...ClientOption) (*Client, error) {
	rc, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, errs.New(errs.KindNetwork, "dial chain rpc "+endpoint, err)
	}

	c := &Client{rpc: rc}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.rpc.Close()
}

// call wraps CallContext with the optional throttle and network error kind.
func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return errs.New(errs.KindNetwork, method, err)
		}
	}
	if err := c.rpc.CallContext(ctx, result, method, args...); err != nil {
		return errs.New(errs.KindNetwork, method, err)
	}
	return nil
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var head hexutil.Uint64
	if err := c.call(ctx, &head, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(head), nil
}

func (c *Client) BlockByNumber(ctx context.Context, number uint64) (*Block, error) {
	var block *Block
	if err := c.call(ctx, &block, "eth_getBlockByNumber", hexutil.EncodeUint64(number), true); err != nil {
		return nil, err
	}
	if block == nil {
		return nil, errs.New(errs.KindNetwork, "fetch block "+hexutil.EncodeUint64(number), ErrNotFound)
	}
	return block, nil
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	var receipt *Receipt
	if err := c.call(ctx, &receipt, "eth_getTransactionReceipt", txHash); err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, ErrNotFound
	}
	return receipt, nil
}

func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce hexutil.Uint64
	if err := c.call(ctx, &nonce, "eth_getTransactionCount", account, "pending"); err != nil {
		return 0, err
	}
	return uint64(nonce), nil
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return errs.New(errs.KindEncoding, "encode transaction", err)
	}
	return c.call(ctx, nil, "eth_sendRawTransaction", hexutil.Encode(raw))
}
