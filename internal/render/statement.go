package render

import (
	"fmt"
	"strings"
	"time"

	"arstatements/internal/config"
	"arstatements/internal/statement"
	"arstatements/pkg/models"
)

var (
	detailHeaders = []string{"Factura", "No. Recibo", "Fecha Factura", "Fecha Vencimiento", "Importe Facturado", "Saldo de Cuenta"}
	detailWidths  = []float64{25, 25, 33, 33, 37, 37}

	summaryWidths = []float64{28, 27, 27, 27, 27, 27, 27}
)

const (
	headerRowHeight  = 10.0
	summaryRowHeight = 10.0
	summaryTitleGap  = 3.0

	// summaryBlockHeight covers the gap, title, header, value and percent rows.
	summaryBlockHeight = summaryTitleGap + 4*summaryRowHeight

	dateLayout = "02/01/2006"
)

// StatementBuilder renders one (client, currency) statement.
type StatementBuilder struct {
	profile    config.Profile
	layout     Layout
	policy     BreakPolicy
	localLabel string
	printedAt  time.Time
}

// NewStatementBuilder creates a builder. localLabel is printed for the LOCAL currency (e.g. "CRC").
func NewStatementBuilder(profile config.Profile, policy BreakPolicy, localLabel string, printedAt time.Time) *StatementBuilder {
	if policy == nil {
		policy = SpacePolicy{}
	}
	return &StatementBuilder{
		profile:    profile,
		layout:     NewLayout(profile),
		policy:     policy,
		localLabel: localLabel,
		printedAt:  printedAt,
	}
}

// PrintedAt returns a copy of b stamping documents with t.
func (b *StatementBuilder) PrintedAt(t time.Time) *StatementBuilder {
	c := *b
	c.printedAt = t
	return &c
}

// CurrencyLabel returns the printed code of c.
func (b *StatementBuilder) CurrencyLabel(c models.Currency) string {
	if c == models.CurrencyLocal {
		return b.localLabel
	}
	return string(c)
}

// Build renders group for client. Groups in a currency other than LOCAL or USD
// are rejected with an *statement.UnknownCurrencyError.
func (b *StatementBuilder) Build(group statement.CurrencyGroup, client statement.ClientGroup) (*Document, error) {
	if !group.Currency.Known() {
		return nil, &statement.UnknownCurrencyError{ClientCode: client.ClientCode, Currency: group.Currency}
	}

	doc := NewDocument(Frame{
		Title:     "Estado de Cuenta",
		Company:   b.profile.Company,
		LogoPath:  b.profile.LogoPath,
		PrintedAt: b.printedAt,
	})

	b.clientTitle(doc, client)
	b.bankAccounts(doc)
	b.numberingNote(doc)
	b.detailTable(doc, group)
	b.agingSummary(doc, group)

	if err := doc.pdf.Error(); err != nil {
		return nil, fmt.Errorf("render statement %s/%s: %w", client.ClientCode, group.Currency, err)
	}
	return doc, nil
}

func (b *StatementBuilder) clientTitle(doc *Document, client statement.ClientGroup) {
	name := strings.ToUpper(client.ClientName)
	doc.setFont("B", ClientNameFontSize(name))
	doc.line(10, name, "C")

	taxID := strings.TrimSpace(client.TaxID)
	if taxID == "" {
		taxID = "No tiene"
	}
	doc.setFont("B", 12)
	doc.line(10, "Cédula Jurídica: "+taxID, "C")
	doc.pdf.Ln(2)

	doc.setFont("B", 10)
	doc.line(10, "Código de Cliente: "+client.ClientCode, "L")
	doc.pdf.Ln(2)
}

// bankAccounts prints the payment accounts two per line.
func (b *StatementBuilder) bankAccounts(doc *Document) {
	accounts := b.profile.BankAccounts
	if len(accounts) > 0 {
		doc.setFont("B", 10)
		doc.line(10, "Cuentas Bancarias:", "L")

		for i := 0; i < len(accounts); i += 2 {
			top := doc.pdf.GetY()
			for col := 0; col < 2 && i+col < len(accounts); col++ {
				acct := accounts[i+col]
				x := pageMarginLeft + float64(col)*100
				doc.pdf.SetXY(x, top)
				doc.setFont("B", 10)
				doc.pdf.CellFormat(90, 5, doc.tr(acct.Bank), "", 2, "L", false, 0, "")
				doc.setFont("", 9)
				if acct.LocalIBAN != "" {
					doc.pdf.CellFormat(90, 5, doc.tr("Cuenta IBAN "+b.localLabel+": "+acct.LocalIBAN), "", 2, "L", false, 0, "")
				}
				if acct.USDIBAN != "" {
					doc.pdf.CellFormat(90, 5, doc.tr("Cuenta IBAN USD: "+acct.USDIBAN), "", 2, "L", false, 0, "")
				}
			}
			doc.pdf.SetXY(pageMarginLeft, top+18)
		}
	}

	if b.profile.PaymentNote != "" {
		doc.setFont("B", 9)
		doc.line(10, b.profile.PaymentNote, "L")
	}
}

func (b *StatementBuilder) numberingNote(doc *Document) {
	if b.profile.NumberingNote == "" {
		return
	}
	doc.setFont("I", 8)
	doc.pdf.MultiCell(0, 5, doc.tr(b.profile.NumberingNote), "", "L", false)
	doc.pdf.Ln(3)
}

func (b *StatementBuilder) detailHeader(doc *Document) {
	doc.setFont("B", 9)
	doc.Row(detailWidths, headerRowHeight, detailHeaders, "C")
	doc.setFont("", 10)
}

func (b *StatementBuilder) detailTable(doc *Document, group statement.CurrencyGroup) {
	label := b.CurrencyLabel(group.Currency)
	height := b.layout.RowHeight(len(group.Lines))

	doc.EnsureSpace(headerRowHeight + height)
	b.detailHeader(doc)
	doc.SetContinuation(func() { b.detailHeader(doc) })

	for _, l := range group.Lines {
		doc.EnsureSpace(height)
		doc.Row(detailWidths, height, []string{
			l.InvoiceNumber,
			statement.TruncateReference(l.ReceiptReference),
			l.InvoiceDate.Format(dateLayout),
			l.DueDate.Format(dateLayout),
			FormatAmount(label, l.Amount),
			FormatAmount(label, l.RunningBalance),
		}, "C")
	}

	doc.EnsureSpace(headerRowHeight)
	doc.SetContinuation(nil)
	doc.setFont("B", 10)
	left := detailWidths[0] + detailWidths[1] + detailWidths[2] + detailWidths[3]
	right := detailWidths[4] + detailWidths[5]
	doc.pdf.CellFormat(left, headerRowHeight, "Total del Estado de Cuenta :", "1", 0, "L", false, 0, "")
	doc.pdf.CellFormat(right, headerRowHeight, FormatAmount(label, group.Total()), "1", 0, "R", false, 0, "")
	doc.pdf.Ln(headerRowHeight)
}

func (b *StatementBuilder) agingSummary(doc *Document, group statement.CurrencyGroup) {
	if b.policy.BreakBeforeSummary(len(group.Lines), doc.RemainingHeight(), summaryBlockHeight) {
		doc.BreakPage()
	}

	label := b.CurrencyLabel(group.Currency)
	summary := group.Summary()

	doc.pdf.Ln(summaryTitleGap)
	doc.setFont("B", 12)
	doc.line(summaryRowHeight, "Total Vencimiento", "C")

	headers := []string{"Total"}
	values := []string{FormatAmount(label, summary.Total)}
	for _, bucket := range statement.Buckets {
		headers = append(headers, bucket.String())
		values = append(values, FormatAmount(label, summary.Amount(bucket)))
	}

	doc.setFont("B", 9)
	doc.Row(summaryWidths, summaryRowHeight, headers, "C")

	doc.setFont("", b.layout.SummaryFontSize(summary.Total))
	doc.Row(summaryWidths, summaryRowHeight, values, "C")

	doc.setFont("B", 9)
	doc.setTextColor(Black)
	doc.pdf.CellFormat(summaryWidths[0], summaryRowHeight, "100.00%", "1", 0, "C", false, 0, "")
	for i, bucket := range statement.Buckets {
		pct := summary.Percent(bucket)
		doc.setTextColor(PercentColor(bucket, pct))
		doc.pdf.CellFormat(summaryWidths[i+1], summaryRowHeight, FormatPercent(pct), "1", 0, "C", false, 0, "")
	}
	doc.pdf.Ln(summaryRowHeight)
	doc.setTextColor(Black)
}
