package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ReferenceRepo loads the account universe and baseline balances.
type ReferenceRepo interface {
	// ListAccounts returns active accounts within the code range for the
	// tenant, ordered by account code ascending.
	ListAccounts(ctx context.Context, tenantID int64, from, to string) ([]Account, error)
	// BeginningBalances returns baseline-date balances keyed by account code.
	BeginningBalances(ctx context.Context, tenantID int64, from, to string) (map[string]decimal.Decimal, error)
}

// ProgressFunc receives coarse progress updates while a report is assembled.
// pct is within [0,100]; the assembler itself reports up to 90, leaving the
// remainder for rendering.
type ProgressFunc func(pct int, message string)

// Assembler drives one report run across the account universe.
type Assembler struct {
	repo     ReferenceRepo
	sources  []Source
	resolver *Resolver
	logger   *slog.Logger
}

// NewAssembler wires the assembler. The source slice order fixes the merge
// order for lines that tie on (post date, batch number).
func NewAssembler(repo ReferenceRepo, srcs []Source, resolver *Resolver, logger *slog.Logger) *Assembler {
	if resolver.Movement == nil {
		resolver.Movement = aggregateMovement(srcs)
	}
	return &Assembler{repo: repo, sources: srcs, resolver: resolver, logger: logger}
}

// Assemble computes the full report model for the request. Any per-account
// error aborts the whole run; no partial report is returned.
func (a *Assembler) Assemble(ctx context.Context, req Request, progress ProgressFunc) (*Report, error) {
	if progress == nil {
		progress = func(int, string) {}
	}
	if req.TenantID <= 0 {
		return nil, fmt.Errorf("%w: tenant id required", ErrValidation)
	}

	accounts, err := a.repo.ListAccounts(ctx, req.TenantID, req.AccountFrom, req.AccountTo)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}
	balances, err := a.repo.BeginningBalances(ctx, req.TenantID, req.AccountFrom, req.AccountTo)
	if err != nil {
		return nil, fmt.Errorf("load beginning balances: %w", err)
	}
	byAccount, err := a.collectLines(ctx, req)
	if err != nil {
		return nil, err
	}
	progress(10, "reference data loaded")

	rep := &Report{
		TenantID:    req.TenantID,
		AccountFrom: req.AccountFrom,
		AccountTo:   req.AccountTo,
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
		GeneratedAt: time.Now().UTC(),
	}
	for i, acct := range accounts {
		var al AccountLedger
		if a.resolver.Classifier.Regime(acct) == RegimeRetainedEarnings {
			constant, err := a.resolver.Opening(ctx, req.TenantID, acct, balances[acct.AcctCode], req.DateFrom)
			if err != nil {
				return nil, fmt.Errorf("account %s: %w", acct.AcctCode, err)
			}
			al = BuildRetainedEarnings(acct, constant, req.DateFrom)
		} else {
			opening, err := a.resolver.Opening(ctx, req.TenantID, acct, balances[acct.AcctCode], req.DateFrom)
			if err != nil {
				return nil, fmt.Errorf("account %s: %w", acct.AcctCode, err)
			}
			al = BuildAccountLedger(acct, opening, byAccount[acct.AcctCode], req.DateFrom)
		}
		rep.Accounts = append(rep.Accounts, al)
		rep.TotalDebit = rep.TotalDebit.Add(al.TotalDebit)
		rep.TotalCredit = rep.TotalCredit.Add(al.TotalCredit)
		progress(10+(80*(i+1))/len(accounts), "account "+acct.AcctCode)
	}
	if a.logger != nil {
		a.logger.Info("ledger assembled",
			slog.Int64("tenant_id", req.TenantID),
			slog.Int("accounts", len(rep.Accounts)),
			slog.String("total_debit", rep.TotalDebit.StringFixed(2)),
			slog.String("total_credit", rep.TotalCredit.StringFixed(2)))
	}
	return rep, nil
}

// collectLines queries every source for the whole window concurrently and
// buckets the results per account, preserving source registration order.
func (a *Assembler) collectLines(ctx context.Context, req Request) (map[string][]DetailLine, error) {
	p := Params{
		TenantID:    req.TenantID,
		AccountFrom: req.AccountFrom,
		AccountTo:   req.AccountTo,
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
	}
	results := make([][]DetailLine, len(a.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		i, src := i, src
		g.Go(func() error {
			lines, err := src.Query(gctx, p)
			if err != nil {
				return fmt.Errorf("source %s: %w", src.Category(), err)
			}
			results[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byAccount := make(map[string][]DetailLine)
	for _, lines := range results {
		for _, line := range lines {
			byAccount[line.AcctCode] = append(byAccount[line.AcctCode], line)
		}
	}
	for code := range byAccount {
		SortLines(byAccount[code])
	}
	return byAccount, nil
}

// aggregateMovement sums net movement across all sources.
func aggregateMovement(srcs []Source) NetMovementFunc {
	return func(ctx context.Context, tenantID int64, acctCode string, from, to time.Time) (decimal.Decimal, error) {
		total := decimal.Zero
		for _, src := range srcs {
			net, err := src.NetMovement(ctx, tenantID, acctCode, from, to)
			if err != nil {
				return decimal.Zero, fmt.Errorf("source %s: %w", src.Category(), err)
			}
			total = total.Add(net)
		}
		return total, nil
	}
}
