package chain

import (
	"bytes"
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// defaultReceiptConcurrency bounds per-block receipt fetch fan-out.
const defaultReceiptConcurrency = 16

// Deployment is one historical deployment recovered from chain history.
type Deployment struct {
	Address     common.Address
	BlockNumber uint64
	TxIndex     uint64
}

// Scanner reconstructs the set of contracts a sender deployed with a given
// creation bytecode by replaying block history. No index is consulted or
// written; the chain itself is the source of truth.
type Scanner struct {
	backend     Backend
	concurrency int
	matchPrefix bool
	logger      *slog.Logger
}

// ScannerOption configures a Scanner
type ScannerOption func(*Scanner)

// WithReceiptConcurrency bounds how many receipt fetches run at once
// within one block.
func WithReceiptConcurrency(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithPrefixMatch relaxes the bytecode predicate from exact equality to
// "transaction input starts with the creation bytecode". Creation inputs
// carry ABI-encoded constructor arguments after the bytecode, so exact
// equality only matches argument-less deployments.
func WithPrefixMatch() ScannerOption {
	return func(s *Scanner) {
		s.matchPrefix = true
	}
}

// WithScanLogger sets the scanner's logger.
func WithScanLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// NewScanner creates a Scanner over backend.
func NewScanner(backend Backend, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		backend:     backend,
		concurrency: defaultReceiptConcurrency,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks every block from the chain head down to genesis and returns
// the deployments whose receipts carry a created-contract address, were
// sent by sender, and whose input matches creationBytecode.
//
// Block iteration is sequential; receipt fetches within a block run
// concurrently. Any RPC failure aborts the whole scan. Results are sorted
// by (block height, transaction index) ascending, so the output is
// deterministic for a finalized chain regardless of fetch completion order.
// There is no early exit: an empty block simply contributes nothing.
func (s *Scanner) Scan(ctx context.Context, sender common.Address, creationBytecode []byte) ([]Deployment, error) {
	head, err := s.backend.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("scanning chain history", "head", head, "sender", sender)

	var found []Deployment
	for height := head; ; height-- {
		matches, err := s.scanBlock(ctx, height, sender, creationBytecode)
		if err != nil {
			return nil, err
		}
		found = append(found, matches...)

		if height == 0 {
			break
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].BlockNumber != found[j].BlockNumber {
			return found[i].BlockNumber < found[j].BlockNumber
		}
		return found[i].TxIndex < found[j].TxIndex
	})

	return found, nil
}

// scanBlock fetches one block and the receipts of all its transactions,
// returning the deployments that pass every match predicate.
func (s *Scanner) scanBlock(ctx context.Context, height uint64, sender common.Address, creationBytecode []byte) ([]Deployment, error) {
	block, err := s.backend.BlockByNumber(ctx, height)
	if err != nil {
		return nil, err
	}
	if len(block.Transactions) == 0 {
		return nil, nil
	}

	var (
		mu      sync.Mutex
		matches []Deployment
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, tx := range block.Transactions {
		g.Go(func() error {
			receipt, err := s.backend.TransactionReceipt(ctx, tx.Hash)
			if err != nil {
				return err
			}
			if !s.matches(sender, creationBytecode, tx, receipt) {
				return nil
			}

			s.logger.Debug("matched deployment", "address", *receipt.ContractAddress, "block", height, "index", tx.Index)

			mu.Lock()
			matches = append(matches, Deployment{
				Address:     *receipt.ContractAddress,
				BlockNumber: height,
				TxIndex:     uint64(tx.Index),
			})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}

// matches applies the three match predicates: contract creation, sender
// identity, and bytecode equality (or prefix, when configured).
func (s *Scanner) matches(sender common.Address, creationBytecode []byte, tx Transaction, receipt *Receipt) bool {
	if receipt.ContractAddress == nil || *receipt.ContractAddress == (common.Address{}) {
		return false
	}
	if receipt.From != sender {
		return false
	}
	if s.matchPrefix {
		return bytes.HasPrefix(tx.Input, creationBytecode)
	}
	return bytes.Equal(tx.Input, creationBytecode)
}
