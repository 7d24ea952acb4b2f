package stream

import (
	"context"
	"math/big"

	"github.com/vietddude/streampay/internal/core/domain"
	"github.com/vietddude/streampay/internal/core/units"
	"github.com/vietddude/streampay/internal/infra/wallet"
	"github.com/vietddude/streampay/internal/metrics"
)

// ensureAllowance approves the stream contract for amount when the current
// allowance falls short. The read and the approval are not atomic.
func (s *Service) ensureAllowance(ctx context.Context, state *wallet.State, amount *big.Int) error {
	spender := state.Streams.Address()

	current, err := state.Token.Allowance(ctx, state.Address, spender)
	if err != nil {
		s.log.Error("Error reading allowance", "owner", state.Address.Hex(), "spender", spender.Hex(), "error", err)
		return err
	}

	allowance := domain.Allowance{
		Owner:   state.Address.Hex(),
		Spender: spender.Hex(),
		Amount:  current,
	}
	if allowance.Covers(amount) {
		s.log.Debug("Allowance sufficient",
			"owner", allowance.Owner,
			"spender", allowance.Spender,
			"allowance", units.FromBase(current),
			"required", units.FromBase(amount),
		)
		return nil
	}

	tx, err := state.Token.Approve(ctx, spender, amount)
	if err != nil {
		s.log.Error("Error approving token", "token", domain.TokenSymbol, "spender", allowance.Spender, "error", err)
		return err
	}
	if _, err := tx.Wait(ctx); err != nil {
		s.log.Error("Token approval not confirmed", "token", domain.TokenSymbol, "tx", tx.Hash().Hex(), "error", err)
		return err
	}

	metrics.ApprovalsTotal.Inc()
	s.log.Info("Token approval confirmed",
		"token", domain.TokenSymbol,
		"spender", allowance.Spender,
		"amount", units.FromBase(amount),
		"tx", tx.Hash().Hex(),
	)
	return nil
}
