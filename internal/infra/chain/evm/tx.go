package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/vietddude/streampay/internal/infra/chain"
)

var errNoSigner = errors.New("binding has no signer")

// Backend is everything a binding needs from the node: calls, transactions and receipts.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// pendingTx waits for inclusion by polling receipts through the backend.
type pendingTx struct {
	tx      *types.Transaction
	backend bind.DeployBackend
}

func newPendingTx(tx *types.Transaction, backend bind.DeployBackend) chain.PendingTx {
	return &pendingTx{tx: tx, backend: backend}
}

func (p *pendingTx) Hash() common.Hash {
	return p.tx.Hash()
}

func (p *pendingTx) Wait(ctx context.Context) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, p.backend, p.tx)
	if err != nil {
		return nil, fmt.Errorf("wait for tx %s: %w", p.tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s", chain.ErrTxReverted, p.tx.Hash().Hex())
	}
	return receipt, nil
}

// transactOpts copies the signer with a per-call context and attached value.
func transactOpts(ctx context.Context, signer *bind.TransactOpts, value *big.Int) (*bind.TransactOpts, error) {
	if signer == nil {
		return nil, errNoSigner
	}
	opts := *signer
	opts.Context = ctx
	opts.Value = value
	return &opts, nil
}

func callOpts(ctx context.Context, signer *bind.TransactOpts) *bind.CallOpts {
	opts := &bind.CallOpts{Context: ctx}
	if signer != nil {
		opts.From = signer.From
	}
	return opts
}
