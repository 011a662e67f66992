package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// SortLines orders detail lines by (post date, batch number). The sort is
// stable so lines that tie keep the fixed category order the sources were
// merged in.
func SortLines(lines []DetailLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].PostDate.Equal(lines[j].PostDate) {
			return lines[i].PostDate.Before(lines[j].PostDate)
		}
		return lines[i].BatchNo < lines[j].BatchNo
	})
}

// BuildAccountLedger folds sorted detail lines into the account's row
// sequence: an opening row, a month-open row whenever the calendar month
// changes, and one detail row per line carrying the running balance.
// Accumulation is unrounded; callers round at output boundaries only.
func BuildAccountLedger(a Account, opening decimal.Decimal, lines []DetailLine, start time.Time) AccountLedger {
	al := AccountLedger{Account: a, Opening: opening}
	al.Rows = append(al.Rows, Row{
		Kind:   RowOpening,
		Date:   start,
		Ending: opening,
	})

	running := opening
	lastMonth := monthOf(start)
	for _, line := range lines {
		if m := monthOf(line.PostDate); m != lastMonth {
			al.Rows = append(al.Rows, Row{
				Kind:   RowMonthOpen,
				Date:   monthStart(line.PostDate),
				Ending: running,
			})
			lastMonth = m
		}
		running = running.Add(line.Debit).Sub(line.Credit)
		al.Rows = append(al.Rows, Row{
			Kind:     RowDetail,
			Date:     line.PostDate,
			Category: line.Category,
			BatchNo:  line.BatchNo,
			RefNo:    line.RefNo,
			Party:    line.Party,
			Comment:  line.Comment,
			Debit:    line.Debit,
			Credit:   line.Credit,
			Ending:   running,
		})
		al.TotalDebit = al.TotalDebit.Add(line.Debit)
		al.TotalCredit = al.TotalCredit.Add(line.Credit)
	}
	al.Ending = running
	return al
}

// BuildRetainedEarnings emits the designated account's constant balance
// line. Detail rows are suppressed for this account.
func BuildRetainedEarnings(a Account, constant decimal.Decimal, start time.Time) AccountLedger {
	return AccountLedger{
		Account: a,
		Opening: constant,
		Rows: []Row{{
			Kind:   RowOpening,
			Date:   start,
			Ending: constant,
		}},
		Ending: constant,
	}
}

func monthOf(t time.Time) int {
	return t.Year()*12 + int(t.Month())
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
