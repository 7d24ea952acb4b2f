package domain

import "errors"

var (
	// ErrNotConnected is returned by any operation that needs the wallet session before it is established
	ErrNotConnected = errors.New("contract not initialized, connect your wallet")

	// ErrNoWallet is returned when the environment has no injected wallet provider
	ErrNoWallet = errors.New("no wallet available")

	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidAddress  = errors.New("invalid address")
	ErrInvalidStreamID = errors.New("invalid stream id")
	ErrInvalidDuration = errors.New("invalid duration")
)
