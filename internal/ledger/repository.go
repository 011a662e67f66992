package ledger

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository loads reference data from PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the reference-data repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListAccounts(ctx context.Context, tenantID int64, from, to string) ([]Account, error) {
	if tenantID <= 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT acct_code, acct_desc, main_acct, fs_tag, active
FROM accounts
WHERE tenant_id = $1 AND active = TRUE AND acct_code BETWEEN $2 AND $3
ORDER BY acct_code`, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.AcctCode, &a.AcctDesc, &a.MainAcct, &a.FSTag, &a.Active); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *Repository) BeginningBalances(ctx context.Context, tenantID int64, from, to string) (map[string]decimal.Decimal, error) {
	balances := make(map[string]decimal.Decimal)
	if tenantID <= 0 {
		return balances, nil
	}
	rows, err := r.db.Query(ctx, `SELECT acct_code, amount
FROM beginning_balances
WHERE tenant_id = $1 AND acct_code BETWEEN $2 AND $3`, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var code string
		var amount decimal.Decimal
		if err := rows.Scan(&code, &amount); err != nil {
			return nil, err
		}
		balances[code] = amount
	}
	return balances, rows.Err()
}
