package stream

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/vietddude/streampay/internal/core/domain"
	"github.com/vietddude/streampay/internal/infra/chain"
	"github.com/vietddude/streampay/internal/infra/wallet"
)

// =============================================================================
// Mocks
// =============================================================================

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) count(call string) int {
	n := 0
	for _, c := range l.snapshot() {
		if c == call {
			n++
		}
	}
	return n
}

type mockTx struct {
	name    string
	log     *callLog
	receipt *types.Receipt
	err     error
}

func (m *mockTx) Hash() common.Hash { return common.HexToHash("0xfeed") }

func (m *mockTx) Wait(ctx context.Context) (*types.Receipt, error) {
	m.log.add(m.name + ".wait")
	if m.err != nil {
		return nil, m.err
	}
	if m.receipt == nil {
		return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
	}
	return m.receipt, nil
}

type createCall struct {
	recipient common.Address
	deposit   *big.Int
	duration  *big.Int
	isNative  bool
	value     *big.Int
}

type mockStreams struct {
	addr common.Address
	log  *callLog

	submitErr error
	waitErr   error
	createdID *big.Int
	eventErr  error
	created   *createCall

	cancelled *big.Int
	withdrawn [2]*big.Int

	ids        []*big.Int
	idsErr     error
	mu         sync.Mutex
	details    map[int64]*chain.StreamDetails
	detailErrs map[int64]error
	delays     map[int64]time.Duration
	panics     map[int64]bool
}

func (m *mockStreams) Address() common.Address { return m.addr }

func (m *mockStreams) CreateStream(
	ctx context.Context,
	recipient common.Address,
	deposit *big.Int,
	duration *big.Int,
	isNative bool,
	value *big.Int,
) (chain.PendingTx, error) {
	m.log.add("create")
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	m.created = &createCall{recipient, deposit, duration, isNative, value}
	return &mockTx{name: "create", log: m.log, err: m.waitErr}, nil
}

func (m *mockStreams) CancelStream(ctx context.Context, streamID *big.Int) (chain.PendingTx, error) {
	m.log.add("cancel")
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	m.cancelled = streamID
	return &mockTx{name: "cancel", log: m.log, err: m.waitErr}, nil
}

func (m *mockStreams) WithdrawFromStream(ctx context.Context, streamID, amount *big.Int) (chain.PendingTx, error) {
	m.log.add("withdraw")
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	m.withdrawn = [2]*big.Int{streamID, amount}
	return &mockTx{name: "withdraw", log: m.log, err: m.waitErr}, nil
}

func (m *mockStreams) GetStreamDetails(ctx context.Context, streamID *big.Int) (*chain.StreamDetails, error) {
	m.log.add("details")
	id := streamID.Int64()
	if d := m.delays[id]; d > 0 {
		time.Sleep(d)
	}
	if m.panics[id] {
		panic("malformed stream")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.detailErrs[id]; err != nil {
		return nil, err
	}
	return m.details[id], nil
}

func (m *mockStreams) GetUserStreams(ctx context.Context, user common.Address) ([]*big.Int, error) {
	m.log.add("list")
	return m.ids, m.idsErr
}

func (m *mockStreams) StreamCreatedID(receipt *types.Receipt) (*big.Int, error) {
	if m.eventErr != nil {
		return nil, m.eventErr
	}
	return m.createdID, nil
}

type mockToken struct {
	addr         common.Address
	log          *callLog
	allowance    *big.Int
	allowanceErr error
	approveErr   error
	approveWait  error
	approved     *big.Int
	spender      common.Address
	owner        common.Address
}

func (m *mockToken) Address() common.Address { return m.addr }

func (m *mockToken) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	m.log.add("allowance")
	m.owner = owner
	m.spender = spender
	return m.allowance, m.allowanceErr
}

func (m *mockToken) Approve(ctx context.Context, spender common.Address, amount *big.Int) (chain.PendingTx, error) {
	m.log.add("approve")
	if m.approveErr != nil {
		return nil, m.approveErr
	}
	m.approved = amount
	return &mockTx{name: "approve", log: m.log, err: m.approveWait}, nil
}

type stubSession struct {
	state *wallet.State
}

func (s *stubSession) Snapshot() (*wallet.State, error) {
	if s.state == nil {
		return nil, domain.ErrNotConnected
	}
	return s.state, nil
}

var (
	me          = common.HexToAddress("0xAbCdEf0123456789aBcDeF0123456789AbCdEf01")
	other       = common.HexToAddress("0x2222222222222222222222222222222222222222")
	streamAddr  = common.HexToAddress("0x315c7B1205FcbDC5c8c38C2A4CAA7de0b890Fc2f")
	tokenAddr   = common.HexToAddress("0x426E7d03f9803Dd11cb8616C65b99a3c0AfeA6dE")
	oneEther, _ = new(big.Int).SetString("1000000000000000000", 10)
)

type fixture struct {
	log     *callLog
	streams *mockStreams
	token   *mockToken
	svc     *Service
}

func newFixture() *fixture {
	log := &callLog{}
	streams := &mockStreams{
		addr:       streamAddr,
		log:        log,
		createdID:  big.NewInt(42),
		details:    make(map[int64]*chain.StreamDetails),
		detailErrs: make(map[int64]error),
		delays:     make(map[int64]time.Duration),
		panics:     make(map[int64]bool),
	}
	token := &mockToken{addr: tokenAddr, log: log, allowance: big.NewInt(0)}
	session := &stubSession{state: &wallet.State{
		Address: me,
		Streams: streams,
		Token:   token,
	}}
	return &fixture{
		log:     log,
		streams: streams,
		token:   token,
		svc:     NewService(session, Config{FetchConcurrency: 4}),
	}
}

func details(sender, recipient common.Address, deposit int64) *chain.StreamDetails {
	return &chain.StreamDetails{
		Sender:           sender,
		Recipient:        recipient,
		Deposit:          new(big.Int).Mul(big.NewInt(deposit), oneEther),
		StartTime:        big.NewInt(1700000000),
		StopTime:         big.NewInt(1700003600),
		RatePerSecond:    big.NewInt(277777777777777),
		RemainingBalance: new(big.Int).Div(oneEther, big.NewInt(2)),
		IsNative:         false,
	}
}
