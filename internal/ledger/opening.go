package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// NetMovementFunc returns sum(debit) - sum(credit) for one account across
// all journal sources, inclusive date bounds.
type NetMovementFunc func(ctx context.Context, tenantID int64, acctCode string, from, to time.Time) (decimal.Decimal, error)

// Resolver computes an account's balance at the instant before a report
// window opens. BeginningBalance rows are authoritative as of Baseline,
// the last day of the prior fiscal year.
type Resolver struct {
	Classifier   Classifier
	Baseline     time.Time
	CarryForward *decimal.Decimal
	Movement     NetMovementFunc
}

// Opening resolves the opening balance for the account at start. The three
// regimes are mutually exclusive and evaluated in priority order:
// retained earnings, profit-and-loss, balance sheet.
func (r *Resolver) Opening(ctx context.Context, tenantID int64, a Account, beginning decimal.Decimal, start time.Time) (decimal.Decimal, error) {
	switch r.Classifier.Regime(a) {
	case RegimeRetainedEarnings:
		if r.CarryForward != nil {
			return *r.CarryForward, nil
		}
		return beginning, nil
	case RegimeProfitAndLoss:
		return r.openingPnL(ctx, tenantID, a, beginning, start)
	default:
		return r.openingBalanceSheet(ctx, tenantID, a, beginning, start)
	}
}

func (r *Resolver) openingPnL(ctx context.Context, tenantID int64, a Account, beginning decimal.Decimal, start time.Time) (decimal.Decimal, error) {
	if start.Month() == time.January && start.Day() == 1 {
		// P&L accounts reset at each fiscal year start.
		return decimal.Zero, nil
	}
	if start.Year() == r.Baseline.Year() {
		// Mid-year start inside the baseline fiscal year: back the snapshot
		// out to the figure it held before the year's movement.
		moved, err := r.Movement(ctx, tenantID, a.AcctCode, yearStart(r.Baseline), r.Baseline)
		if err != nil {
			return decimal.Zero, err
		}
		return beginning.Sub(moved), nil
	}
	// Any later fiscal year: year-to-date net through the day before start.
	return r.Movement(ctx, tenantID, a.AcctCode, yearStart(start), start.AddDate(0, 0, -1))
}

func (r *Resolver) openingBalanceSheet(ctx context.Context, tenantID int64, a Account, beginning decimal.Decimal, start time.Time) (decimal.Decimal, error) {
	moved, err := r.Movement(ctx, tenantID, a.AcctCode, r.Baseline.AddDate(0, 0, 1), start.AddDate(0, 0, -1))
	if err != nil {
		return decimal.Zero, err
	}
	return beginning.Add(moved), nil
}

func yearStart(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}
