package chain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrEventNotFound is returned when a receipt carries no matching creation event
	ErrEventNotFound = errors.New("event not found in receipt")

	// ErrTxReverted is returned when a mined transaction has a failed status
	ErrTxReverted = errors.New("transaction reverted")
)

// PendingTx is a submitted transaction that can be waited on.
type PendingTx interface {
	// Hash returns the transaction hash
	Hash() common.Hash

	// Wait blocks until the transaction is included in a block.
	// A reverted transaction yields ErrTxReverted alongside its receipt.
	Wait(ctx context.Context) (*types.Receipt, error)
}

// StreamDetails is the raw result of the getStreamDetails accessor.
type StreamDetails struct {
	Sender           common.Address
	Recipient        common.Address
	Deposit          *big.Int
	StartTime        *big.Int
	StopTime         *big.Int
	RatePerSecond    *big.Int
	RemainingBalance *big.Int
	IsNative         bool
}

// StreamContract is the call interface of the payment-streaming contract.
// Amounts are always in smallest units.
type StreamContract interface {
	// Address returns the deployed contract address
	Address() common.Address

	// CreateStream submits createStream; value is the native amount attached
	CreateStream(
		ctx context.Context,
		recipient common.Address,
		deposit *big.Int,
		duration *big.Int,
		isNative bool,
		value *big.Int,
	) (PendingTx, error)

	// CancelStream submits cancelStream
	CancelStream(ctx context.Context, streamID *big.Int) (PendingTx, error)

	// WithdrawFromStream submits withdrawFromStream
	WithdrawFromStream(ctx context.Context, streamID, amount *big.Int) (PendingTx, error)

	// GetStreamDetails reads one stream
	GetStreamDetails(ctx context.Context, streamID *big.Int) (*StreamDetails, error)

	// GetUserStreams lists the stream ids a user participates in
	GetUserStreams(ctx context.Context, user common.Address) ([]*big.Int, error)

	// StreamCreatedID extracts the streamId of the StreamCreated event in a receipt
	StreamCreatedID(receipt *types.Receipt) (*big.Int, error)
}

// TokenContract is the minimal ERC-20 surface needed before token deposits.
type TokenContract interface {
	Address() common.Address

	// Allowance returns how much spender may move on behalf of owner
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)

	// Approve submits approve(spender, amount)
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (PendingTx, error)
}
