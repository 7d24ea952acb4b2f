package stream

import (
	"context"
	"errors"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/vietddude/streampay/internal/core/domain"
	"github.com/vietddude/streampay/internal/infra/chain"
)

func TestCreateStream_TokenApprovesWhenAllowanceShort(t *testing.T) {
	f := newFixture()
	f.token.allowance = new(big.Int).Div(oneEther, big.NewInt(2))

	id, err := f.svc.CreateStream(context.Background(), other.Hex(), "1", time.Hour, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "42" {
		t.Errorf("expected stream id 42, got %s", id)
	}

	want := []string{"allowance", "approve", "approve.wait", "create", "create.wait"}
	if got := f.log.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected call order: got %v, want %v", got, want)
	}
	if f.token.approved.Cmp(oneEther) != 0 {
		t.Errorf("expected approval of %s, got %s", oneEther, f.token.approved)
	}
	if f.token.owner != me || f.token.spender != streamAddr {
		t.Errorf("allowance queried for %s -> %s", f.token.owner.Hex(), f.token.spender.Hex())
	}

	c := f.streams.created
	if c.value.Sign() != 0 {
		t.Errorf("expected zero value for token deposit, got %s", c.value)
	}
	if c.deposit.Cmp(oneEther) != 0 {
		t.Errorf("expected deposit %s, got %s", oneEther, c.deposit)
	}
	if c.duration.Int64() != 3600 {
		t.Errorf("expected duration 3600s, got %s", c.duration)
	}
	if c.recipient != other || c.isNative {
		t.Errorf("unexpected create args: %+v", c)
	}
}

func TestCreateStream_TokenSkipsApprovalWhenSufficient(t *testing.T) {
	for _, allowance := range []*big.Int{new(big.Int).Set(oneEther), new(big.Int).Mul(oneEther, big.NewInt(5))} {
		f := newFixture()
		f.token.allowance = allowance

		if _, err := f.svc.CreateStream(context.Background(), other.Hex(), "1.0", time.Minute, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := f.log.count("approve"); n != 0 {
			t.Errorf("allowance %s: expected no approve calls, got %d", allowance, n)
		}
		if n := f.log.count("allowance"); n != 1 {
			t.Errorf("expected one allowance read, got %d", n)
		}
	}
}

func TestCreateStream_NativeSkipsAllowance(t *testing.T) {
	f := newFixture()
	f.token.allowance = big.NewInt(0)

	if _, err := f.svc.CreateStream(context.Background(), other.Hex(), "2.5", time.Minute, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := f.log.count("allowance") + f.log.count("approve"); n != 0 {
		t.Errorf("expected no token calls for native stream, got %d", n)
	}
	want, _ := new(big.Int).SetString("2500000000000000000", 10)
	c := f.streams.created
	if c.value.Cmp(want) != 0 || c.deposit.Cmp(want) != 0 {
		t.Errorf("expected value and deposit %s, got value=%s deposit=%s", want, c.value, c.deposit)
	}
	if !c.isNative {
		t.Error("expected native flag")
	}
}

func TestCreateStream_NotConnected(t *testing.T) {
	svc := NewService(&stubSession{}, Config{})

	_, err := svc.CreateStream(context.Background(), other.Hex(), "1", time.Minute, false)
	if !errors.Is(err, domain.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestCreateStream_Failures(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name      string
		recipient string
		deposit   string
		duration  time.Duration
		native    bool
		setup     func(f *fixture)
		wantErr   error
		noCreate  bool
	}{
		{name: "invalid recipient", recipient: "bob", deposit: "1", duration: time.Minute, wantErr: domain.ErrInvalidAddress, noCreate: true},
		{name: "invalid duration", deposit: "1", duration: time.Millisecond, wantErr: domain.ErrInvalidDuration, noCreate: true},
		{name: "invalid amount", deposit: "one", duration: time.Minute, wantErr: domain.ErrInvalidAmount, noCreate: true},
		{
			name: "allowance read fails", deposit: "1", duration: time.Minute,
			setup:   func(f *fixture) { f.token.allowanceErr = errBoom },
			wantErr: errBoom, noCreate: true,
		},
		{
			name: "approval rejected", deposit: "1", duration: time.Minute,
			setup:   func(f *fixture) { f.token.approveErr = errBoom },
			wantErr: errBoom, noCreate: true,
		},
		{
			name: "approval reverted", deposit: "1", duration: time.Minute,
			setup:   func(f *fixture) { f.token.approveWait = chain.ErrTxReverted },
			wantErr: chain.ErrTxReverted, noCreate: true,
		},
		{
			name: "submission rejected", deposit: "1", duration: time.Minute, native: true,
			setup:   func(f *fixture) { f.streams.submitErr = errBoom },
			wantErr: errBoom,
		},
		{
			name: "confirmation fails", deposit: "1", duration: time.Minute, native: true,
			setup:   func(f *fixture) { f.streams.waitErr = chain.ErrTxReverted },
			wantErr: chain.ErrTxReverted,
		},
		{
			name: "creation event missing", deposit: "1", duration: time.Minute, native: true,
			setup:   func(f *fixture) { f.streams.eventErr = chain.ErrEventNotFound },
			wantErr: chain.ErrEventNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			recipient := tt.recipient
			if recipient == "" {
				recipient = other.Hex()
			}

			id, err := f.svc.CreateStream(context.Background(), recipient, tt.deposit, tt.duration, tt.native)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if id != "" {
				t.Errorf("expected empty id on failure, got %q", id)
			}
			if tt.noCreate && f.log.count("create") != 0 {
				t.Error("create must not be submitted")
			}
		})
	}
}

func TestCreateStream_AllowanceErrorsReturnedUnchanged(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name  string
		setup func(f *fixture)
		want  error
	}{
		{"allowance read", func(f *fixture) { f.token.allowanceErr = errBoom }, errBoom},
		{"approve submit", func(f *fixture) { f.token.approveErr = errBoom }, errBoom},
		{"approve wait", func(f *fixture) { f.token.approveWait = chain.ErrTxReverted }, chain.ErrTxReverted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.token.allowance = big.NewInt(0)
			tt.setup(f)

			_, err := f.svc.CreateStream(context.Background(), other.Hex(), "1", time.Minute, false)
			if err != tt.want {
				t.Errorf("expected the remote error itself, got %v", err)
			}
		})
	}
}

func TestCancelStream(t *testing.T) {
	f := newFixture()

	if err := f.svc.CancelStream(context.Background(), "7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.streams.cancelled.Int64() != 7 {
		t.Errorf("expected stream 7 cancelled, got %s", f.streams.cancelled)
	}
	if !reflect.DeepEqual(f.log.snapshot(), []string{"cancel", "cancel.wait"}) {
		t.Errorf("unexpected calls %v", f.log.snapshot())
	}
}

func TestCancelStream_Errors(t *testing.T) {
	f := newFixture()
	if err := f.svc.CancelStream(context.Background(), "abc"); !errors.Is(err, domain.ErrInvalidStreamID) {
		t.Errorf("expected ErrInvalidStreamID, got %v", err)
	}

	f.streams.waitErr = chain.ErrTxReverted
	if err := f.svc.CancelStream(context.Background(), "7"); !errors.Is(err, chain.ErrTxReverted) {
		t.Errorf("expected ErrTxReverted, got %v", err)
	}

	svc := NewService(&stubSession{}, Config{})
	if err := svc.CancelStream(context.Background(), "7"); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestWithdrawFromStream(t *testing.T) {
	f := newFixture()

	if err := f.svc.WithdrawFromStream(context.Background(), "3", "0.25"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := new(big.Int).SetString("250000000000000000", 10)
	if f.streams.withdrawn[0].Int64() != 3 || f.streams.withdrawn[1].Cmp(want) != 0 {
		t.Errorf("unexpected withdraw args %v", f.streams.withdrawn)
	}
	if f.log.count("withdraw.wait") != 1 {
		t.Error("expected withdrawal to be awaited")
	}
}

func TestWithdrawFromStream_Errors(t *testing.T) {
	f := newFixture()
	if err := f.svc.WithdrawFromStream(context.Background(), "3", "-1"); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	if f.log.count("withdraw") != 0 {
		t.Error("withdraw must not be submitted with an invalid amount")
	}

	errRejected := errors.New("user rejected transaction")
	f.streams.submitErr = errRejected
	if err := f.svc.WithdrawFromStream(context.Background(), "3", "1"); !errors.Is(err, errRejected) {
		t.Errorf("expected rejection error, got %v", err)
	}
}

func TestGetStreamDetails(t *testing.T) {
	f := newFixture()
	f.streams.details[5] = details(other, me, 2)

	st, err := f.svc.GetStreamDetails(context.Background(), "5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if st.ID != "5" || st.Sender != other.Hex() || st.Recipient != me.Hex() {
		t.Errorf("unexpected identity fields: %+v", st)
	}
	if st.Deposit != "2.0" || st.RemainingBalance != "0.5" || st.RatePerSecond != "0.000277777777777777" {
		t.Errorf("unexpected amounts: deposit=%s remaining=%s rate=%s", st.Deposit, st.RemainingBalance, st.RatePerSecond)
	}
	if !st.StartTime.Equal(time.Unix(1700000000, 0)) || !st.StopTime.Equal(time.Unix(1700003600, 0)) {
		t.Errorf("unexpected schedule %s..%s", st.StartTime, st.StopTime)
	}
	if st.IsIncoming {
		t.Error("details lookup must not set IsIncoming")
	}
}

func TestGetStreamDetails_FailureIsRaised(t *testing.T) {
	f := newFixture()
	errRead := errors.New("call reverted")
	f.streams.detailErrs[5] = errRead

	st, err := f.svc.GetStreamDetails(context.Background(), "5")
	if !errors.Is(err, errRead) {
		t.Fatalf("expected read error, got %v", err)
	}
	if st != nil {
		t.Error("expected nil stream on failure")
	}

	svc := NewService(&stubSession{}, Config{})
	if _, err := svc.GetStreamDetails(context.Background(), "5"); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestParseStreamID(t *testing.T) {
	if v, err := ParseStreamID(" 12 "); err != nil || v.Int64() != 12 {
		t.Errorf("ParseStreamID(12) = %v, %v", v, err)
	}
	for _, in := range []string{"", "-1", "0x10", "1.5"} {
		if _, err := ParseStreamID(in); !errors.Is(err, domain.ErrInvalidStreamID) {
			t.Errorf("ParseStreamID(%q) expected ErrInvalidStreamID, got %v", in, err)
		}
	}
}
