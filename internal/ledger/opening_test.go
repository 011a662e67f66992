package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// movementStub records the windows the resolver asks for.
type movementStub struct {
	net   decimal.Decimal
	calls []struct{ from, to time.Time }
}

func (m *movementStub) fn() NetMovementFunc {
	return func(_ context.Context, _ int64, _ string, from, to time.Time) (decimal.Decimal, error) {
		m.calls = append(m.calls, struct{ from, to time.Time }{from, to})
		return m.net, nil
	}
}

func newResolver(mov NetMovementFunc, carry *decimal.Decimal) *Resolver {
	return &Resolver{
		Classifier:   Classifier{RetainedEarningsAcct: "3900", PnLThreshold: 4000},
		Baseline:     date(2024, 12, 31),
		CarryForward: carry,
		Movement:     mov,
	}
}

func TestOpeningRetainedEarningsCarryForward(t *testing.T) {
	carry := dec("5000.25")
	stub := &movementStub{net: dec("999")}
	r := newResolver(stub.fn(), &carry)

	got, err := r.Opening(context.Background(), 1, Account{AcctCode: "3900"}, dec("1"), date(2025, 6, 1))
	require.NoError(t, err)
	require.True(t, got.Equal(carry))
	require.Empty(t, stub.calls, "retained earnings must not read transactions")
}

func TestOpeningRetainedEarningsFallsBackToBaseline(t *testing.T) {
	stub := &movementStub{}
	r := newResolver(stub.fn(), nil)

	got, err := r.Opening(context.Background(), 1, Account{AcctCode: "3900"}, dec("777"), date(2025, 6, 1))
	require.NoError(t, err)
	require.Equal(t, "777.00", got.StringFixed(2))
}

func TestOpeningPnLJanuaryReset(t *testing.T) {
	stub := &movementStub{net: dec("123")}
	r := newResolver(stub.fn(), nil)
	acct := Account{AcctCode: "4100", FSTag: "IS"}

	got, err := r.Opening(context.Background(), 1, acct, dec("999"), date(2026, 1, 1))
	require.NoError(t, err)
	require.True(t, got.IsZero(), "january start must reset P&L accounts")
	require.Empty(t, stub.calls)
}

func TestOpeningPnLBaselineYearBacksOutSnapshot(t *testing.T) {
	stub := &movementStub{net: dec("400")}
	r := newResolver(stub.fn(), nil)
	acct := Account{AcctCode: "4100", FSTag: "IS"}

	got, err := r.Opening(context.Background(), 1, acct, dec("1000"), date(2024, 7, 1))
	require.NoError(t, err)
	require.Equal(t, "600.00", got.StringFixed(2))
	require.Len(t, stub.calls, 1)
	require.Equal(t, date(2024, 1, 1), stub.calls[0].from)
	require.Equal(t, date(2024, 12, 31), stub.calls[0].to)
}

func TestOpeningPnLLaterYearUsesYTD(t *testing.T) {
	stub := &movementStub{net: dec("250")}
	r := newResolver(stub.fn(), nil)
	acct := Account{AcctCode: "5100", FSTag: "IS"}

	got, err := r.Opening(context.Background(), 1, acct, dec("1000"), date(2025, 3, 15))
	require.NoError(t, err)
	require.Equal(t, "250.00", got.StringFixed(2))
	require.Len(t, stub.calls, 1)
	require.Equal(t, date(2025, 1, 1), stub.calls[0].from)
	require.Equal(t, date(2025, 3, 14), stub.calls[0].to)
}

func TestOpeningBalanceSheetCarriesForward(t *testing.T) {
	stub := &movementStub{net: dec("-150.50")}
	r := newResolver(stub.fn(), nil)
	acct := Account{AcctCode: "1100", FSTag: "BS"}

	got, err := r.Opening(context.Background(), 1, acct, dec("1000"), date(2025, 2, 1))
	require.NoError(t, err)
	require.Equal(t, "849.50", got.StringFixed(2))
	require.Len(t, stub.calls, 1)
	require.Equal(t, date(2025, 1, 1), stub.calls[0].from)
	require.Equal(t, date(2025, 1, 31), stub.calls[0].to)
}
