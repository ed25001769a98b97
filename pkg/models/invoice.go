package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the normalized currency of an outstanding invoice.
type Currency string

const (
	// CurrencyLocal is the company's home currency (CRC for the original ledger).
	CurrencyLocal Currency = "LOCAL"
	// CurrencyUSD is the foreign-currency ledger.
	CurrencyUSD Currency = "USD"
)

// NormalizeCurrency maps ledger currency codes to the statement currencies.
// localCodes lists the codes that mean "home currency" (e.g. "CRC", "COL").
// Unrecognized codes are returned upper-cased so the renderer can reject them.
func NormalizeCurrency(code string, localCodes ...string) Currency {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	switch normalized {
	case "USD", "US$", "$":
		return CurrencyUSD
	case string(CurrencyLocal):
		return CurrencyLocal
	}
	for _, local := range localCodes {
		if normalized == strings.ToUpper(local) {
			return CurrencyLocal
		}
	}
	return Currency(normalized)
}

// Known reports whether c is one of the statement currencies.
func (c Currency) Known() bool {
	return c == CurrencyLocal || c == CurrencyUSD
}

// InvoiceRow is one outstanding receivable as read from the invoice source.
type InvoiceRow struct {
	// Client master data
	ClientCode    string
	ClientName    string
	TaxID         string
	ContactEmails string // ";" or "," separated, may be empty or a do-not-send marker

	// Document
	InvoiceNumber    string
	InvoiceDate      time.Time
	DueDate          time.Time
	Currency         Currency
	PendingAmount    decimal.Decimal // outstanding amount in Currency
	ReceiptReference string

	// ProcessingDays is the hyphen-delimited set of weekday codes ("L-M-V").
	ProcessingDays string
}
