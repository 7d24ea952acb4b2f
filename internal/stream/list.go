package stream

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/vietddude/streampay/internal/core/domain"
	"github.com/vietddude/streampay/internal/infra/wallet"
	"github.com/vietddude/streampay/internal/metrics"
	"golang.org/x/sync/errgroup"
)

var errListingFallback = errors.New("listing degraded to empty result")

// GetUserStreams lists every stream the connected address takes part in, in listing order.
// It never fails: a failed listing yields an empty slice and streams whose details
// cannot be read are dropped.
func (s *Service) GetUserStreams(ctx context.Context) (streams []*domain.Stream) {
	var fallback error
	defer s.observe(opList, time.Now(), &fallback)
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Error getting user streams", "operation", opList, "panic", r)
			fallback = errListingFallback
			streams = []*domain.Stream{}
		}
	}()

	state, err := s.session.Snapshot()
	if err != nil {
		s.log.Error("Error getting user streams", "operation", opList, "error", err)
		fallback = err
		return []*domain.Stream{}
	}

	ids, err := state.Streams.GetUserStreams(ctx, state.Address)
	if err != nil {
		s.log.Error("Error calling getUserStreams",
			"operation", opList,
			"address", state.Address.Hex(),
			"error", err,
		)
		fallback = err
		return []*domain.Stream{}
	}

	streams = s.fetchAll(ctx, state, ids)
	s.log.Debug("Fetched streams", "operation", opList, "count", len(streams), "listed", len(ids))
	return streams
}

// fetchAll reads every id concurrently and keeps the successful results in input order.
func (s *Service) fetchAll(ctx context.Context, state *wallet.State, ids []*big.Int) []*domain.Stream {
	results := make([]*domain.Stream, len(ids))
	me := state.Address.Hex()

	var g errgroup.Group
	g.SetLimit(s.cfg.FetchConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			st, err := s.fetchOne(ctx, state, id)
			if err != nil {
				metrics.StreamsDropped.Inc()
				s.log.Warn("Error fetching details for stream",
					"operation", opList,
					"stream_id", id.String(),
					"error", err,
				)
				return nil // dropped, never fails the batch
			}
			st.IsIncoming = strings.EqualFold(st.Recipient, me)
			results[i] = st
			return nil
		})
	}
	_ = g.Wait()

	streams := make([]*domain.Stream, 0, len(results))
	for _, st := range results {
		if st != nil {
			streams = append(streams, st)
		}
	}
	return streams
}

func (s *Service) fetchOne(ctx context.Context, state *wallet.State, id *big.Int) (st *domain.Stream, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode stream %v: %v", id, r)
		}
	}()
	if id == nil {
		return nil, domain.ErrInvalidStreamID
	}
	return fetchStream(ctx, state, id)
}
