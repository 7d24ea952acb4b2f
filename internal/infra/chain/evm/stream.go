package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/vietddude/streampay/internal/infra/chain"
)

// StreamBinding talks to the streaming contract through a bound ABI.
type StreamBinding struct {
	address  common.Address
	contract *bind.BoundContract
	backend  Backend
	signer   *bind.TransactOpts
}

var _ chain.StreamContract = (*StreamBinding)(nil)

func NewStreamBinding(address common.Address, backend Backend, signer *bind.TransactOpts) *StreamBinding {
	return &StreamBinding{
		address:  address,
		contract: bind.NewBoundContract(address, streamABI, backend, backend, backend),
		backend:  backend,
		signer:   signer,
	}
}

func (b *StreamBinding) Address() common.Address {
	return b.address
}

func (b *StreamBinding) CreateStream(
	ctx context.Context,
	recipient common.Address,
	deposit *big.Int,
	duration *big.Int,
	isNative bool,
	value *big.Int,
) (chain.PendingTx, error) {
	return b.transact(ctx, value, "createStream", recipient, deposit, duration, isNative)
}

func (b *StreamBinding) CancelStream(ctx context.Context, streamID *big.Int) (chain.PendingTx, error) {
	return b.transact(ctx, nil, "cancelStream", streamID)
}

func (b *StreamBinding) WithdrawFromStream(
	ctx context.Context,
	streamID, amount *big.Int,
) (chain.PendingTx, error) {
	return b.transact(ctx, nil, "withdrawFromStream", streamID, amount)
}

func (b *StreamBinding) GetStreamDetails(
	ctx context.Context,
	streamID *big.Int,
) (*chain.StreamDetails, error) {
	var out []interface{}
	if err := b.contract.Call(callOpts(ctx, b.signer), &out, "getStreamDetails", streamID); err != nil {
		return nil, fmt.Errorf("getStreamDetails(%s) failed: %w", streamID, err)
	}
	if len(out) != 8 {
		return nil, fmt.Errorf("getStreamDetails(%s): unexpected output length %d", streamID, len(out))
	}

	return &chain.StreamDetails{
		Sender:           *abi.ConvertType(out[0], new(common.Address)).(*common.Address),
		Recipient:        *abi.ConvertType(out[1], new(common.Address)).(*common.Address),
		Deposit:          *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		StartTime:        *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
		StopTime:         *abi.ConvertType(out[4], new(*big.Int)).(**big.Int),
		RatePerSecond:    *abi.ConvertType(out[5], new(*big.Int)).(**big.Int),
		RemainingBalance: *abi.ConvertType(out[6], new(*big.Int)).(**big.Int),
		IsNative:         *abi.ConvertType(out[7], new(bool)).(*bool),
	}, nil
}

func (b *StreamBinding) GetUserStreams(ctx context.Context, user common.Address) ([]*big.Int, error) {
	var out []interface{}
	if err := b.contract.Call(callOpts(ctx, b.signer), &out, "getUserStreams", user); err != nil {
		return nil, fmt.Errorf("getUserStreams(%s) failed: %w", user.Hex(), err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("getUserStreams(%s): unexpected output length %d", user.Hex(), len(out))
	}
	return *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int), nil
}

// StreamCreatedID scans the receipt for a StreamCreated log emitted by this contract.
func (b *StreamBinding) StreamCreatedID(receipt *types.Receipt) (*big.Int, error) {
	if receipt == nil {
		return nil, fmt.Errorf("%w: nil receipt", chain.ErrEventNotFound)
	}

	eventID := streamABI.Events[streamCreatedEvent].ID
	for _, lg := range receipt.Logs {
		if lg == nil || lg.Address != b.address || len(lg.Topics) == 0 || lg.Topics[0] != eventID {
			continue
		}

		fields := make(map[string]interface{})
		if err := b.contract.UnpackLogIntoMap(fields, streamCreatedEvent, *lg); err != nil {
			return nil, fmt.Errorf("unpack %s: %w", streamCreatedEvent, err)
		}
		id, ok := fields["streamId"].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("%s log has no streamId", streamCreatedEvent)
		}
		return id, nil
	}

	return nil, fmt.Errorf("%w: %s in tx %s", chain.ErrEventNotFound, streamCreatedEvent, receipt.TxHash.Hex())
}

func (b *StreamBinding) transact(
	ctx context.Context,
	value *big.Int,
	method string,
	params ...interface{},
) (chain.PendingTx, error) {
	opts, err := transactOpts(ctx, b.signer, value)
	if err != nil {
		return nil, err
	}
	tx, err := b.contract.Transact(opts, method, params...)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", method, err)
	}
	return newPendingTx(tx, b.backend), nil
}
