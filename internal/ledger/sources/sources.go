// Package sources implements the transaction source adapters, one per
// journal type. Every adapter answers the same query shape so the ledger
// engine never branches on the journal it is reading from.
package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// tableSpec names the header/line tables and the party column of one journal.
type tableSpec struct {
	category ledger.Category
	header   string
	line     string
	partyCol string
}

type pgSource struct {
	db   *pgxpool.Pool
	spec tableSpec
}

// NewJournal reads posted general journal entries.
func NewJournal(db *pgxpool.Pool) ledger.Source {
	return &pgSource{db: db, spec: tableSpec{ledger.CategoryJournal, "journal_headers", "journal_lines", "particulars"}}
}

// NewDisbursement reads cash/check disbursement vouchers.
func NewDisbursement(db *pgxpool.Pool) ledger.Source {
	return &pgSource{db: db, spec: tableSpec{ledger.CategoryDisbursement, "disbursement_headers", "disbursement_lines", "payee"}}
}

// NewReceipt reads official receipt entries.
func NewReceipt(db *pgxpool.Pool) ledger.Source {
	return &pgSource{db: db, spec: tableSpec{ledger.CategoryReceipt, "receipt_headers", "receipt_lines", "payor"}}
}

// NewPurchase reads purchase journal entries.
func NewPurchase(db *pgxpool.Pool) ledger.Source {
	return &pgSource{db: db, spec: tableSpec{ledger.CategoryPurchase, "purchase_headers", "purchase_lines", "vendor_name"}}
}

// NewSale reads sales journal entries.
func NewSale(db *pgxpool.Pool) ledger.Source {
	return &pgSource{db: db, spec: tableSpec{ledger.CategorySale, "sale_headers", "sale_lines", "customer_name"}}
}

// All returns the five adapters in their fixed merge order.
func All(db *pgxpool.Pool) []ledger.Source {
	return []ledger.Source{
		NewJournal(db),
		NewDisbursement(db),
		NewReceipt(db),
		NewPurchase(db),
		NewSale(db),
	}
}

func (s *pgSource) Category() ledger.Category {
	return s.spec.category
}

func (s *pgSource) Query(ctx context.Context, p ledger.Params) ([]ledger.DetailLine, error) {
	if p.TenantID <= 0 {
		// Tenant scoping is a hard invariant: never query across tenants.
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT h.batch_no, h.post_date, h.ref_no, h.%s, l.comment, l.acct_code, l.debit, l.credit
FROM %s h
JOIN %s l ON l.batch_no = h.batch_no AND l.tenant_id = h.tenant_id
WHERE h.tenant_id = $1 AND h.cancelled = FALSE
  AND l.acct_code BETWEEN $2 AND $3
  AND h.post_date BETWEEN $4 AND $5
ORDER BY h.post_date, h.batch_no, l.line_no`, s.spec.partyCol, s.spec.header, s.spec.line)
	rows, err := s.db.Query(ctx, query, p.TenantID, p.AccountFrom, p.AccountTo, p.DateFrom, p.DateTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []ledger.DetailLine
	for rows.Next() {
		line := ledger.DetailLine{Category: s.spec.category}
		if err := rows.Scan(&line.BatchNo, &line.PostDate, &line.RefNo, &line.Party, &line.Comment, &line.AcctCode, &line.Debit, &line.Credit); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (s *pgSource) NetMovement(ctx context.Context, tenantID int64, acctCode string, from, to time.Time) (decimal.Decimal, error) {
	if tenantID <= 0 {
		return decimal.Zero, nil
	}
	if from.After(to) {
		return decimal.Zero, nil
	}
	query := fmt.Sprintf(`SELECT COALESCE(SUM(l.debit - l.credit), 0)
FROM %s h
JOIN %s l ON l.batch_no = h.batch_no AND l.tenant_id = h.tenant_id
WHERE h.tenant_id = $1 AND h.cancelled = FALSE
  AND l.acct_code = $2
  AND h.post_date BETWEEN $3 AND $4`, s.spec.header, s.spec.line)
	var net decimal.Decimal
	if err := s.db.QueryRow(ctx, query, tenantID, acctCode, from, to).Scan(&net); err != nil {
		return decimal.Zero, err
	}
	return net, nil
}
