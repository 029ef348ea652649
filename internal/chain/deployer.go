package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vision-dao/beacon-deploy/internal/artifact"
	"github.com/vision-dao/beacon-deploy/internal/errs"
)

// Fixed identity of every Beacon DAO instance. The constructor signature is
// (name, symbol, supply, metadataCID) and the argument order is part of the
// on-chain contract.
const (
	DefaultName        = "Vision DAO"
	DefaultSymbol      = "VIS"
	DefaultDescription = "The Vision DAO is a DAO that governs the Beacon DAO layer of the Vision ecosystem."
)

// DefaultSupply is the fixed initial token supply: 1,000,000 * 10^18.
var DefaultSupply = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1_000_000_000_000_000_000))

// Fixed operational gas defaults. Deliberately not estimated from the
// network: estimation costs an extra round trip and adds its own failure
// mode.
const (
	deployGasLimit = 4_000_000
	deployGasPrice = 2_000_000_000 // 2 gwei
)

// DefaultConfirmations is the number of blocks waited on top of the
// deployment before trusting its address.
const DefaultConfirmations = 2

// Deployer submits and confirms Idea contract deployments.
type Deployer struct {
	backend       Backend
	key           *ecdsa.PrivateKey
	chainID       *big.Int // nil selects a pre-EIP-155 signer
	confirmations uint64
	pollInterval  time.Duration
	logger        *slog.Logger
}

// DeployerOption configures a Deployer
type DeployerOption func(*Deployer)

// WithChainID pins the transaction signature to a chain.
func WithChainID(id uint64) DeployerOption {
	return func(d *Deployer) {
		d.chainID = new(big.Int).SetUint64(id)
	}
}

// WithConfirmations sets how many blocks must be mined on top of the
// deployment before Deploy returns. Zero is valid for local dev chains.
func WithConfirmations(n uint64) DeployerOption {
	return func(d *Deployer) {
		d.confirmations = n
	}
}

// WithPollInterval sets the receipt polling cadence.
func WithPollInterval(interval time.Duration) DeployerOption {
	return func(d *Deployer) {
		d.pollInterval = interval
	}
}

// WithDeployLogger sets the deployer's logger.
func WithDeployLogger(logger *slog.Logger) DeployerOption {
	return func(d *Deployer) {
		d.logger = logger
	}
}

// NewDeployer creates a Deployer signing with key.
func NewDeployer(backend Backend, key *ecdsa.PrivateKey, opts ...DeployerOption) *Deployer {
	d := &Deployer{
		backend:       backend,
		key:           key,
		confirmations: DefaultConfirmations,
		pollInterval:  2 * time.Second,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Sender returns the address deployments are signed with.
func (d *Deployer) Sender() common.Address {
	return crypto.PubkeyToAddress(d.key.PublicKey)
}

// Deploy submits a contract-creation transaction for art, passing metaRoot
// as the metadata CID constructor argument, waits for the configured number
// of confirmations, and returns the created contract's address.
func (d *Deployer) Deploy(ctx context.Context, art *artifact.Artifact, metaRoot string) (common.Address, error) {
	args, err := art.ABI.Pack("", DefaultName, DefaultSymbol, DefaultSupply, metaRoot)
	if err != nil {
		return common.Address{}, errs.New(errs.KindEncoding, "pack constructor arguments", err)
	}

	data := make([]byte, 0, len(art.Bytecode)+len(args))
	data = append(data, art.Bytecode...)
	data = append(data, args...)

	sender := d.Sender()
	nonce, err := d.backend.PendingNonceAt(ctx, sender)
	if err != nil {
		return common.Address{}, err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: big.NewInt(deployGasPrice),
		Gas:      deployGasLimit,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(d.chainID), d.key)
	if err != nil {
		return common.Address{}, errs.New(errs.KindEncoding, "sign deployment transaction", err)
	}

	if err := d.backend.SendTransaction(ctx, signed); err != nil {
		return common.Address{}, err
	}

	d.logger.Debug("submitted deployment", "tx", signed.Hash(), "sender", sender, "nonce", nonce)

	receipt, err := d.waitMined(ctx, signed.Hash())
	if err != nil {
		return common.Address{}, err
	}
	if uint64(receipt.Status) != types.ReceiptStatusSuccessful {
		return common.Address{}, errs.Newf(errs.KindInvalidInput, "deployment transaction reverted in block %d", receipt.BlockNumber)
	}
	if receipt.ContractAddress == nil {
		return common.Address{}, errs.Newf(errs.KindNetwork, "deployment receipt carries no contract address")
	}

	if err := d.waitConfirmed(ctx, uint64(receipt.BlockNumber)); err != nil {
		return common.Address{}, err
	}

	d.logger.Debug("deployment confirmed", "address", *receipt.ContractAddress, "block", receipt.BlockNumber)
	return *receipt.ContractAddress, nil
}

// waitMined polls for the transaction receipt until the context is done.
func (d *Deployer) waitMined(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := d.backend.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, errs.New(errs.KindNetwork, "wait for deployment receipt", ctx.Err())
		case <-ticker.C:
		}
	}
}

// waitConfirmed blocks until confirmations blocks exist above minedAt.
func (d *Deployer) waitConfirmed(ctx context.Context, minedAt uint64) error {
	if d.confirmations == 0 {
		return nil
	}

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		head, err := d.backend.BlockNumber(ctx)
		if err != nil {
			return err
		}
		if head >= minedAt+d.confirmations {
			return nil
		}

		select {
		case <-ctx.Done():
			return errs.New(errs.KindNetwork, "wait for confirmations", ctx.Err())
		case <-ticker.C:
		}
	}
}
