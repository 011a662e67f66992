package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category tags a detail line with the journal it came from.
type Category string

const (
	CategoryJournal      Category = "J"
	CategoryDisbursement Category = "D"
	CategoryReceipt      Category = "R"
	CategoryPurchase     Category = "P"
	CategorySale         Category = "S"
)

// Account is a row of the chart of accounts.
type Account struct {
	AcctCode string
	AcctDesc string
	MainAcct string
	FSTag    string
	Active   bool
}

// Regime selects how an account's opening balance is resolved.
type Regime int

const (
	RegimeBalanceSheet Regime = iota
	RegimeProfitAndLoss
	RegimeRetainedEarnings
)

// Classifier derives the accounting regime from static account attributes.
// Classification never depends on transaction content.
type Classifier struct {
	// RetainedEarningsAcct is the single designated account whose balance
	// is a carried-forward constant.
	RetainedEarningsAcct string
	// PnLThreshold marks account numbers strictly above it as profit-and-loss.
	PnLThreshold int
}

// IsPnL reports whether the account resets annually.
func (c Classifier) IsPnL(a Account) bool {
	if a.AcctCode == c.RetainedEarningsAcct {
		return false
	}
	if strings.HasPrefix(strings.ToUpper(a.FSTag), "IS") {
		return true
	}
	return acctPrefix(a.AcctCode) > c.PnLThreshold
}

// Regime returns the opening-balance regime for the account.
func (c Classifier) Regime(a Account) Regime {
	switch {
	case a.AcctCode == c.RetainedEarningsAcct:
		return RegimeRetainedEarnings
	case c.IsPnL(a):
		return RegimeProfitAndLoss
	default:
		return RegimeBalanceSheet
	}
}

// acctPrefix extracts the leading numeric prefix of an account code.
// Codes like "4010-01" classify by "4010".
func acctPrefix(code string) int {
	n := 0
	seen := false
	for _, r := range code {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		seen = true
	}
	if !seen {
		return 0
	}
	return n
}

// DetailLine is one journal line as returned by a transaction source.
type DetailLine struct {
	Category Category
	BatchNo  string
	PostDate time.Time
	RefNo    string
	Party    string
	Comment  string
	AcctCode string
	Debit    decimal.Decimal
	Credit   decimal.Decimal
}

// Params restricts a source query to one tenant, account range and date range.
type Params struct {
	TenantID    int64
	AccountFrom string
	AccountTo   string
	DateFrom    time.Time
	DateTo      time.Time
}

// Source is one journal type queried uniformly. Implementations must
// exclude cancelled headers and scope to the tenant; a non-positive
// tenant id yields an empty result, never a cross-tenant query.
type Source interface {
	Category() Category
	Query(ctx context.Context, p Params) ([]DetailLine, error)
	NetMovement(ctx context.Context, tenantID int64, acctCode string, from, to time.Time) (decimal.Decimal, error)
}

// RowKind discriminates the ledger row variants.
type RowKind int

const (
	RowOpening RowKind = iota
	RowMonthOpen
	RowDetail
)

// Row is one line of a computed account ledger.
type Row struct {
	Kind     RowKind
	Date     time.Time
	Category Category
	BatchNo  string
	RefNo    string
	Party    string
	Comment  string
	Debit    decimal.Decimal
	Credit   decimal.Decimal
	Ending   decimal.Decimal
}

// AccountLedger holds the computed sequence and totals for one account.
type AccountLedger struct {
	Account     Account
	Opening     decimal.Decimal
	Rows        []Row
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Ending      decimal.Decimal
}

// Report is the finished model handed to the document renderer.
type Report struct {
	TenantID    int64
	AccountFrom string
	AccountTo   string
	DateFrom    time.Time
	DateTo      time.Time
	GeneratedAt time.Time
	Accounts    []AccountLedger
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// Request describes one ledger report run.
type Request struct {
	TenantID    int64     `json:"tenant_id"`
	AccountFrom string    `json:"account_from"`
	AccountTo   string    `json:"account_to"`
	DateFrom    time.Time `json:"date_from"`
	DateTo      time.Time `json:"date_to"`
	Format      string    `json:"format"`
	Orientation string    `json:"orientation"`
}

// Validate rejects requests that must never reach a background run.
func (r Request) Validate() error {
	if r.TenantID <= 0 {
		return fmt.Errorf("%w: tenant id required", ErrValidation)
	}
	if r.AccountFrom == "" || r.AccountTo == "" {
		return fmt.Errorf("%w: account range required", ErrValidation)
	}
	if r.AccountFrom > r.AccountTo {
		return fmt.Errorf("%w: account range inverted", ErrValidation)
	}
	if r.DateFrom.IsZero() || r.DateTo.IsZero() {
		return fmt.Errorf("%w: date range required", ErrValidation)
	}
	if r.DateFrom.After(r.DateTo) {
		return fmt.Errorf("%w: date range inverted", ErrValidation)
	}
	switch r.Format {
	case "pdf", "xlsx":
	default:
		return fmt.Errorf("%w: format must be pdf or xlsx", ErrValidation)
	}
	switch r.Orientation {
	case "", "portrait", "landscape":
	default:
		return fmt.Errorf("%w: orientation must be portrait or landscape", ErrValidation)
	}
	return nil
}

var (
	// ErrValidation marks requests rejected synchronously at Start.
	ErrValidation = errors.New("ledger: invalid request")
	// ErrNoAccounts terminates a run when the account range is empty.
	ErrNoAccounts = errors.New("no accounts in range")
)
