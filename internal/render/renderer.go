// Package render turns a computed ledger report into a byte artifact.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

//go:embed templates/ledger.html
var templates embed.FS

// Result carries the rendered artifact bytes and download metadata.
type Result struct {
	Bytes       []byte
	Filename    string
	ContentType string
}

// PDFClient exposes the subset of the Gotenberg client used here.
type PDFClient interface {
	RenderHTML(ctx context.Context, html string, landscape bool) ([]byte, error)
}

// Ledger renders a report model as PDF (via HTML template + Gotenberg) or
// as an xlsx workbook.
type Ledger struct {
	tpl    *template.Template
	client PDFClient
}

// NewLedger parses the ledger template and wires the PDF client.
func NewLedger(client PDFClient) (*Ledger, error) {
	if client == nil {
		return nil, fmt.Errorf("render: pdf client required")
	}
	printer := message.NewPrinter(language.English)
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("01/02/2006")
		},
		"money": func(v decimal.Decimal) string {
			return printer.Sprintf("%.2f", v.InexactFloat64())
		},
		"rowLabel": rowLabel,
	}
	tpl, err := template.New("ledger.html").Funcs(funcMap).ParseFS(templates, "templates/ledger.html")
	if err != nil {
		return nil, err
	}
	return &Ledger{tpl: tpl, client: client}, nil
}

// Render produces the artifact for the requested format and orientation.
func (l *Ledger) Render(ctx context.Context, rep *ledger.Report, format, orientation string) (Result, error) {
	if l == nil || l.tpl == nil || l.client == nil {
		return Result{}, fmt.Errorf("render: renderer not initialised")
	}
	name := fmt.Sprintf("general-ledger-%s-%s", rep.DateFrom.Format("20060102"), rep.DateTo.Format("20060102"))
	switch format {
	case "pdf":
		buf := &bytes.Buffer{}
		if err := l.tpl.Execute(buf, rep); err != nil {
			return Result{}, err
		}
		pdf, err := l.client.RenderHTML(ctx, buf.String(), orientation == "landscape")
		if err != nil {
			return Result{}, err
		}
		return Result{Bytes: pdf, Filename: name + ".pdf", ContentType: "application/pdf"}, nil
	case "xlsx":
		book, err := l.workbook(rep)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Bytes:       book,
			Filename:    name + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		}, nil
	default:
		return Result{}, fmt.Errorf("render: unsupported format %q", format)
	}
}

func (l *Ledger) workbook(rep *ledger.Report) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "General Ledger"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	header := []any{"Account", "Date", "Src", "Batch No", "Reference", "Party", "Comment", "Debit", "Credit", "Balance"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	n := 1
	write := func(cells []any) error {
		n++
		return f.SetSheetRow(sheet, fmt.Sprintf("A%d", n), &cells)
	}
	for _, al := range rep.Accounts {
		for _, row := range al.Rows {
			cells := []any{
				al.Account.AcctCode + " " + al.Account.AcctDesc,
				row.Date.Format("01/02/2006"),
				string(row.Category),
				row.BatchNo,
				row.RefNo,
				row.Party,
				rowLabel(row),
				cell(row.Kind == ledger.RowDetail, row.Debit.StringFixed(2)),
				cell(row.Kind == ledger.RowDetail, row.Credit.StringFixed(2)),
				row.Ending.StringFixed(2),
			}
			if err := write(cells); err != nil {
				return nil, err
			}
		}
		total := []any{
			al.Account.AcctCode + " TOTAL", "", "", "", "", "", "",
			al.TotalDebit.StringFixed(2),
			al.TotalCredit.StringFixed(2),
			al.Ending.StringFixed(2),
		}
		if err := write(total); err != nil {
			return nil, err
		}
	}
	grand := []any{
		"GRAND TOTAL", "", "", "", "", "", "",
		rep.TotalDebit.StringFixed(2),
		rep.TotalCredit.StringFixed(2),
		"",
	}
	if err := write(grand); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cell(visible bool, v string) string {
	if !visible {
		return ""
	}
	return v
}

func rowLabel(row ledger.Row) string {
	switch row.Kind {
	case ledger.RowOpening:
		return "BEGINNING BALANCE"
	case ledger.RowMonthOpen:
		return "BALANCE FORWARDED"
	default:
		return row.Comment
	}
}
