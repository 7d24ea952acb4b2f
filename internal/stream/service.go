// Package stream implements the request functions behind every stream action:
// create, cancel, withdraw, single lookups and the per-user listing.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vietddude/streampay/internal/core/domain"
	"github.com/vietddude/streampay/internal/core/units"
	"github.com/vietddude/streampay/internal/infra/chain"
	"github.com/vietddude/streampay/internal/infra/wallet"
	"github.com/vietddude/streampay/internal/metrics"
)

const (
	opCreate   = "create_stream"
	opCancel   = "cancel_stream"
	opWithdraw = "withdraw_from_stream"
	opDetails  = "get_stream_details"
	opList     = "get_user_streams"
)

// Session provides the current wallet handles.
type Session interface {
	Snapshot() (*wallet.State, error)
}

// Config holds stream operation settings.
type Config struct {
	FetchConcurrency int `yaml:"fetch_concurrency"` // max concurrent detail reads when listing
}

// Service runs stream operations against the session's contracts.
// It holds no state of its own; every call re-reads the session and the chain.
type Service struct {
	session Session
	cfg     Config
	log     *slog.Logger
}

func NewService(session Session, cfg Config) *Service {
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 8
	}
	return &Service{
		session: session,
		cfg:     cfg,
		log:     slog.Default().With("component", "stream"),
	}
}

// CreateStream opens a stream of deposit to recipient over duration and returns its id.
// Token deposits are preceded by an approval when the current allowance is short.
func (s *Service) CreateStream(
	ctx context.Context,
	recipient string,
	deposit string,
	duration time.Duration,
	isNative bool,
) (id string, err error) {
	defer s.observe(opCreate, time.Now(), &err)

	id, err = s.createStream(ctx, recipient, deposit, duration, isNative)
	if err != nil {
		s.log.Error("Error creating stream",
			"operation", opCreate,
			"recipient", recipient,
			"deposit", deposit,
			"native", isNative,
			"error", err,
		)
		return "", err
	}

	s.log.Info("Stream created", "operation", opCreate, "stream_id", id, "recipient", recipient)
	return id, nil
}

func (s *Service) createStream(
	ctx context.Context,
	recipient string,
	deposit string,
	duration time.Duration,
	isNative bool,
) (string, error) {
	state, err := s.session.Snapshot()
	if err != nil {
		return "", err
	}

	if !common.IsHexAddress(recipient) {
		return "", fmt.Errorf("%w: recipient %q", domain.ErrInvalidAddress, recipient)
	}
	if duration < time.Second {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidDuration, duration)
	}

	amount, err := units.ToBase(deposit)
	if err != nil {
		return "", err
	}

	value := big.NewInt(0)
	if isNative {
		value = amount
	} else if err := s.ensureAllowance(ctx, state, amount); err != nil {
		return "", err
	}

	seconds := big.NewInt(int64(duration / time.Second))
	tx, err := state.Streams.CreateStream(ctx, common.HexToAddress(recipient), amount, seconds, isNative, value)
	if err != nil {
		return "", err
	}

	receipt, err := tx.Wait(ctx)
	if err != nil {
		return "", err
	}

	streamID, err := state.Streams.StreamCreatedID(receipt)
	if err != nil {
		return "", err
	}
	return streamID.String(), nil
}

// CancelStream cancels a stream and waits for inclusion.
func (s *Service) CancelStream(ctx context.Context, id string) (err error) {
	defer s.observe(opCancel, time.Now(), &err)

	err = s.submit(ctx, id, func(state *wallet.State, streamID *big.Int) (chain.PendingTx, error) {
		return state.Streams.CancelStream(ctx, streamID)
	})
	if err != nil {
		s.log.Error("Error cancelling stream", "operation", opCancel, "stream_id", id, "error", err)
		return err
	}

	s.log.Info("Stream cancelled", "operation", opCancel, "stream_id", id)
	return nil
}

// WithdrawFromStream withdraws amount from a stream and waits for inclusion.
func (s *Service) WithdrawFromStream(ctx context.Context, id string, amount string) (err error) {
	defer s.observe(opWithdraw, time.Now(), &err)

	err = s.submit(ctx, id, func(state *wallet.State, streamID *big.Int) (chain.PendingTx, error) {
		value, err := units.ToBase(amount)
		if err != nil {
			return nil, err
		}
		return state.Streams.WithdrawFromStream(ctx, streamID, value)
	})
	if err != nil {
		s.log.Error("Error withdrawing from stream",
			"operation", opWithdraw,
			"stream_id", id,
			"amount", amount,
			"error", err,
		)
		return err
	}

	s.log.Info("Withdrawal confirmed", "operation", opWithdraw, "stream_id", id, "amount", amount)
	return nil
}

func (s *Service) submit(
	ctx context.Context,
	id string,
	send func(state *wallet.State, streamID *big.Int) (chain.PendingTx, error),
) error {
	state, err := s.session.Snapshot()
	if err != nil {
		return err
	}
	streamID, err := ParseStreamID(id)
	if err != nil {
		return err
	}

	tx, err := send(state, streamID)
	if err != nil {
		return err
	}
	_, err = tx.Wait(ctx)
	return err
}

// GetStreamDetails reads and decodes one stream. IsIncoming is left unset.
func (s *Service) GetStreamDetails(ctx context.Context, id string) (st *domain.Stream, err error) {
	defer s.observe(opDetails, time.Now(), &err)

	st, err = s.getStreamDetails(ctx, id)
	if err != nil {
		s.log.Error("Error getting stream details", "operation", opDetails, "stream_id", id, "error", err)
		return nil, err
	}
	return st, nil
}

func (s *Service) getStreamDetails(ctx context.Context, id string) (*domain.Stream, error) {
	state, err := s.session.Snapshot()
	if err != nil {
		return nil, err
	}
	streamID, err := ParseStreamID(id)
	if err != nil {
		return nil, err
	}
	return fetchStream(ctx, state, streamID)
}

func fetchStream(ctx context.Context, state *wallet.State, streamID *big.Int) (*domain.Stream, error) {
	details, err := state.Streams.GetStreamDetails(ctx, streamID)
	if err != nil {
		return nil, err
	}
	return decodeStream(streamID, details)
}

func decodeStream(streamID *big.Int, d *chain.StreamDetails) (*domain.Stream, error) {
	if d == nil {
		return nil, fmt.Errorf("stream %s: empty details", streamID)
	}
	start, err := unixTime(d.StartTime)
	if err != nil {
		return nil, fmt.Errorf("stream %s start time: %w", streamID, err)
	}
	stop, err := unixTime(d.StopTime)
	if err != nil {
		return nil, fmt.Errorf("stream %s stop time: %w", streamID, err)
	}

	return &domain.Stream{
		ID:               streamID.String(),
		Sender:           d.Sender.Hex(),
		Recipient:        d.Recipient.Hex(),
		Deposit:          units.FromBase(d.Deposit),
		StartTime:        start,
		StopTime:         stop,
		RatePerSecond:    units.FromBase(d.RatePerSecond),
		RemainingBalance: units.FromBase(d.RemainingBalance),
		IsNative:         d.IsNative,
	}, nil
}

func unixTime(seconds *big.Int) (time.Time, error) {
	if seconds == nil || !seconds.IsInt64() {
		return time.Time{}, fmt.Errorf("timestamp out of range: %v", seconds)
	}
	return time.Unix(seconds.Int64(), 0).UTC(), nil
}

// ParseStreamID parses a decimal stream identifier.
func ParseStreamID(id string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(id), 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStreamID, id)
	}
	return v, nil
}

func (s *Service) observe(op string, start time.Time, err *error) {
	result := "success"
	if err != nil && *err != nil {
		result = "failure"
	}
	metrics.OperationsTotal.WithLabelValues(op, result).Inc()
	metrics.OperationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
