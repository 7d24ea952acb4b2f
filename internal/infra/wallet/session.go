package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/vietddude/streampay/internal/core/domain"
	"github.com/vietddude/streampay/internal/infra/chain"
	"github.com/vietddude/streampay/internal/infra/chain/evm"
	"github.com/vietddude/streampay/internal/metrics"
)

// State is the set of handles published by a successful connect.
// It is immutable once published.
type State struct {
	Provider Provider
	Signer   *bind.TransactOpts
	Address  common.Address
	Streams  chain.StreamContract
	Token    chain.TokenContract
}

// Contracts holds the deployed contract addresses a session binds to.
type Contracts struct {
	Stream common.Address
	Token  common.Address
}

// DefaultContracts returns the hardcoded deployment.
func DefaultContracts() Contracts {
	return Contracts{
		Stream: common.HexToAddress(domain.StreamContractAddress),
		Token:  common.HexToAddress(domain.TokenContractAddress),
	}
}

var errNoAccounts = errors.New("wallet returned no accounts")

// Session owns one wallet connection.
// Only Connect writes the state, and it does so with a single atomic store.
type Session struct {
	env       Environment
	contracts Contracts
	state     atomic.Pointer[State]

	subMu   sync.Mutex
	subs    map[int]func(*State)
	nextSub int

	log *slog.Logger
}

func NewSession(env Environment, contracts Contracts) *Session {
	return &Session{
		env:       env,
		contracts: contracts,
		subs:      make(map[int]func(*State)),
		log:       slog.Default().With("component", "wallet"),
	}
}

// Connect authorizes the injected wallet, binds both contracts and publishes the state.
// On failure nothing is published and no retry is attempted.
//
// A successful reconnect closes the provider of the state it replaces at once.
// Operations still running on a snapshot of that state fail at their next
// network call; callers reconnect only between operations.
func (s *Session) Connect(ctx context.Context) error {
	state, err := s.dial(ctx)
	if err != nil {
		metrics.WalletConnects.WithLabelValues("failure").Inc()
		s.log.Error("Failed to connect wallet", "error", err)
		return err
	}

	s.publish(state)
	metrics.WalletConnects.WithLabelValues("success").Inc()
	s.log.Info("Wallet connected",
		"address", state.Address.Hex(),
		"stream_contract", state.Streams.Address().Hex(),
		"token_contract", state.Token.Address().Hex(),
	)
	return nil
}

// ConnectInBackground runs Connect once on a detached goroutine.
// Failures are logged and never surfaced; the returned channel closes when the attempt ends.
func (s *Session) ConnectInBackground(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("Wallet auto-connect panicked", "panic", r)
			}
		}()
		_ = s.Connect(ctx)
	}()
	return done
}

func (s *Session) dial(ctx context.Context) (*State, error) {
	provider, err := s.env.Injected(ctx)
	if err != nil {
		return nil, err
	}

	state, err := s.bindProvider(ctx, provider)
	if err != nil {
		provider.Close()
		return nil, err
	}
	return state, nil
}

func (s *Session) bindProvider(ctx context.Context, provider Provider) (*State, error) {
	accounts, err := provider.RequestAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("request accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, errNoAccounts
	}

	backend := provider.Backend()
	signer, err := provider.Signer(ctx, accounts[0])
	if err != nil {
		return nil, fmt.Errorf("derive signer: %w", err)
	}

	return &State{
		Provider: provider,
		Signer:   signer,
		Address:  signer.From,
		Streams:  evm.NewStreamBinding(s.contracts.Stream, backend, signer),
		Token:    evm.NewTokenBinding(s.contracts.Token, backend, signer),
	}, nil
}

func (s *Session) publish(state *State) {
	old := s.state.Swap(state)
	if old != nil && old.Provider != state.Provider {
		old.Provider.Close()
	}
	metrics.WalletConnected.Set(1)

	s.subMu.Lock()
	subs := make([]func(*State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// Subscribe registers fn to be called with every newly published state.
// The returned function removes the subscription.
func (s *Session) Subscribe(fn func(*State)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Snapshot returns the published state, or domain.ErrNotConnected.
// The snapshot is not pinned: a later Connect closes its provider.
func (s *Session) Snapshot() (*State, error) {
	state := s.state.Load()
	if state == nil {
		return nil, domain.ErrNotConnected
	}
	return state, nil
}

func (s *Session) Connected() bool {
	return s.state.Load() != nil
}

func (s *Session) Provider() (Provider, error) {
	state, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return state.Provider, nil
}

func (s *Session) Signer() (*bind.TransactOpts, error) {
	state, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return state.Signer, nil
}

func (s *Session) Address() (common.Address, error) {
	state, err := s.Snapshot()
	if err != nil {
		return common.Address{}, err
	}
	return state.Address, nil
}

func (s *Session) Streams() (chain.StreamContract, error) {
	state, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return state.Streams, nil
}

func (s *Session) Token() (chain.TokenContract, error) {
	state, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return state.Token, nil
}

// Close drops the published state and releases its provider.
func (s *Session) Close() {
	if state := s.state.Swap(nil); state != nil {
		state.Provider.Close()
	}
	metrics.WalletConnected.Set(0)
}
