package chain

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeBackend is an in-memory Backend for deployer and scanner tests.
type fakeBackend struct {
	mu       sync.Mutex
	head     uint64
	blocks   map[uint64]*Block
	receipts map[common.Hash]*Receipt
	nonce    uint64
	sent     []*types.Transaction

	// error injection
	headErr    error
	blockErr   map[uint64]error
	receiptErr map[common.Hash]error
	sendErr    error

	// onSend lets tests mine a submitted transaction immediately.
	onSend func(tx *types.Transaction)
}

func newFakeBackend(head uint64) *fakeBackend {
	fb := &fakeBackend{
		head:       head,
		blocks:     make(map[uint64]*Block),
		receipts:   make(map[common.Hash]*Receipt),
		blockErr:   make(map[uint64]error),
		receiptErr: make(map[common.Hash]error),
	}
	for i := uint64(0); i <= head; i++ {
		fb.blocks[i] = &Block{Number: hexutil.Uint64(i)}
	}
	return fb
}

// addCreation places a contract-creation transaction in block height and
// returns the created address.
func (f *fakeBackend) addCreation(height uint64, from common.Address, input []byte) common.Address {
	f.mu.Lock()
	defer f.mu.Unlock()

	block := f.blocks[height]
	index := uint64(len(block.Transactions))
	hash := common.BytesToHash(append(input, byte(height), byte(index)))
	created := common.BytesToAddress(hash[12:])

	block.Transactions = append(block.Transactions, Transaction{
		Hash:  hash,
		Input: input,
		Index: hexutil.Uint64(index),
	})
	f.receipts[hash] = &Receipt{
		From:            from,
		ContractAddress: &created,
		BlockNumber:     hexutil.Uint64(height),
		TxIndex:         hexutil.Uint64(index),
		Status:          1,
	}
	return created
}

// addCall places a plain (non-creation) transaction in block height.
func (f *fakeBackend) addCall(height uint64, from common.Address, input []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	block := f.blocks[height]
	index := uint64(len(block.Transactions))
	hash := common.BytesToHash(append([]byte("call"), byte(height), byte(index)))

	block.Transactions = append(block.Transactions, Transaction{
		Hash:  hash,
		Input: input,
		Index: hexutil.Uint64(index),
	})
	f.receipts[hash] = &Receipt{
		From:        from,
		BlockNumber: hexutil.Uint64(height),
		TxIndex:     hexutil.Uint64(index),
		Status:      1,
	}
}

func (f *fakeBackend) BlockNumber(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headErr != nil {
		return 0, f.headErr
	}
	return f.head, nil
}

func (f *fakeBackend) BlockByNumber(_ context.Context, number uint64) (*Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.blockErr[number]; err != nil {
		return nil, err
	}
	block, ok := f.blocks[number]
	if !ok {
		return nil, ErrNotFound
	}
	return block, nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, txHash common.Hash) (*Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.receiptErr[txHash]; err != nil {
		return nil, err
	}
	receipt, ok := f.receipts[txHash]
	if !ok {
		return nil, ErrNotFound
	}
	return receipt, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonce, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	if f.sendErr != nil {
		f.mu.Unlock()
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	onSend := f.onSend
	f.mu.Unlock()

	if onSend != nil {
		onSend(tx)
	}
	return nil
}

// setReceipt installs a receipt for a transaction hash.
func (f *fakeBackend) setReceipt(hash common.Hash, receipt *Receipt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts[hash] = receipt
}

func (f *fakeBackend) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
