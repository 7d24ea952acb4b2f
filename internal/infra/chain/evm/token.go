package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/vietddude/streampay/internal/infra/chain"
)

// TokenBinding wraps the deposit token with only approve and allowance.
type TokenBinding struct {
	address  common.Address
	contract *bind.BoundContract
	backend  Backend
	signer   *bind.TransactOpts
}

var _ chain.TokenContract = (*TokenBinding)(nil)

func NewTokenBinding(address common.Address, backend Backend, signer *bind.TransactOpts) *TokenBinding {
	return &TokenBinding{
		address:  address,
		contract: bind.NewBoundContract(address, tokenABI, backend, backend, backend),
		backend:  backend,
		signer:   signer,
	}
}

func (t *TokenBinding) Address() common.Address {
	return t.address
}

func (t *TokenBinding) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	var out []interface{}
	if err := t.contract.Call(callOpts(ctx, t.signer), &out, "allowance", owner, spender); err != nil {
		return nil, fmt.Errorf("allowance failed: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("allowance: unexpected output length %d", len(out))
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (t *TokenBinding) Approve(
	ctx context.Context,
	spender common.Address,
	amount *big.Int,
) (chain.PendingTx, error) {
	opts, err := transactOpts(ctx, t.signer, nil)
	if err != nil {
		return nil, err
	}
	tx, err := t.contract.Transact(opts, "approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("approve failed: %w", err)
	}
	return newPendingTx(tx, t.backend), nil
}
