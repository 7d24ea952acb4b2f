package domain

import (
	"math/big"
	"time"
)

// Stream is a decoded snapshot of one on-chain payment stream.
// It goes stale as soon as another transaction touches the same stream.
type Stream struct {
	ID               string    `json:"id"`
	Sender           string    `json:"sender"`
	Recipient        string    `json:"recipient"`
	Deposit          string    `json:"deposit"`
	StartTime        time.Time `json:"start_time"`
	StopTime         time.Time `json:"stop_time"`
	RatePerSecond    string    `json:"rate_per_second"`
	RemainingBalance string    `json:"remaining_balance"`
	IsNative         bool      `json:"is_native"`
	IsIncoming       bool      `json:"is_incoming"`
}

// Duration returns the configured length of the stream.
func (s *Stream) Duration() time.Duration {
	return s.StopTime.Sub(s.StartTime)
}

// Status reports where now falls relative to the stream schedule.
func (s *Stream) Status(now time.Time) StreamStatus {
	switch {
	case now.Before(s.StartTime):
		return StreamStatusPending
	case now.Before(s.StopTime):
		return StreamStatusActive
	default:
		return StreamStatusEnded
	}
}

type StreamStatus string

const (
	StreamStatusPending StreamStatus = "pending"
	StreamStatusActive  StreamStatus = "active"
	StreamStatusEnded   StreamStatus = "ended"
)

// Allowance is the amount Owner has authorized Spender to move, in the token's smallest unit.
type Allowance struct {
	Owner   string
	Spender string
	Amount  *big.Int
}

// Covers reports whether the allowance is at least amount.
func (a Allowance) Covers(amount *big.Int) bool {
	if a.Amount == nil {
		return amount.Sign() <= 0
	}
	return a.Amount.Cmp(amount) >= 0
}
