// Package statement groups outstanding invoices into per-client, per-currency
// statements and computes aging.
//
// Aggregation is a pure transformation: the caller freezes "today" once per run
// and passes it in, so two calls with the same input always agree.
package statement

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"arstatements/pkg/models"
)

// Line is one invoice row inside a currency group, with derived values.
type Line struct {
	models.InvoiceRow

	Amount         decimal.Decimal
	RunningBalance decimal.Decimal
	DaysOverdue    int
	Bucket         Bucket
}

// CurrencyGroup holds all lines of one client in one currency, sorted by invoice date.
type CurrencyGroup struct {
	ClientCode string
	Currency   models.Currency
	Lines      []Line
}

// Total is the sum of all line amounts (the last running balance).
func (g CurrencyGroup) Total() decimal.Decimal {
	if len(g.Lines) == 0 {
		return decimal.Zero
	}
	return g.Lines[len(g.Lines)-1].RunningBalance
}

// Summary buckets the group by age.
func (g CurrencyGroup) Summary() AgingSummary {
	return Summarize(g.Lines)
}

// ClientGroup holds every currency group of one client.
type ClientGroup struct {
	ClientCode    string
	ClientName    string
	TaxID         string
	ContactEmails string
	Currencies    []CurrencyGroup
}

// Rows returns the number of invoice rows across currencies.
func (c ClientGroup) Rows() int {
	n := 0
	for _, g := range c.Currencies {
		n += len(g.Lines)
	}
	return n
}

// currencyOrder fixes the minor processing order; unknown codes sort after.
var currencyOrder = map[models.Currency]int{
	models.CurrencyLocal: 0,
	models.CurrencyUSD:   1,
}

// Aggregate filters rows by processing day and groups them by client, then currency.
// It returns an *EmptyResultError when nothing matches filter.
func Aggregate(rows []models.InvoiceRow, today time.Time, filter Weekday) ([]ClientGroup, error) {
	return AggregateWithPolicy(rows, today, filter, DefaultDayPolicy)
}

// AggregateWithPolicy is Aggregate with an explicit default-day policy.
func AggregateWithPolicy(rows []models.InvoiceRow, today time.Time, filter Weekday, policy DayPolicy) ([]ClientGroup, error) {
	var clients []ClientGroup
	index := make(map[string]int)
	buckets := make(map[string][]models.InvoiceRow) // client + currency
	currencies := make(map[string][]models.Currency)

	for _, row := range rows {
		if !policy.Matches(row.ProcessingDays, filter) {
			continue
		}
		code := strings.TrimSpace(row.ClientCode)
		if _, ok := index[code]; !ok {
			index[code] = len(clients)
			clients = append(clients, ClientGroup{
				ClientCode:    code,
				ClientName:    row.ClientName,
				TaxID:         row.TaxID,
				ContactEmails: row.ContactEmails,
			})
		}
		key := code + "\x00" + string(row.Currency)
		if _, ok := buckets[key]; !ok {
			currencies[code] = append(currencies[code], row.Currency)
		}
		buckets[key] = append(buckets[key], row)
	}

	if len(clients) == 0 {
		return nil, &EmptyResultError{Filter: filter, Rows: len(rows)}
	}

	for i := range clients {
		code := clients[i].ClientCode
		order := currencies[code]
		sort.SliceStable(order, func(a, b int) bool {
			return rank(order[a]) < rank(order[b])
		})
		for _, cur := range order {
			clients[i].Currencies = append(clients[i].Currencies,
				buildCurrencyGroup(code, cur, buckets[code+"\x00"+string(cur)], today))
		}
	}
	return clients, nil
}

func rank(c models.Currency) int {
	if r, ok := currencyOrder[c]; ok {
		return r
	}
	return len(currencyOrder)
}

func buildCurrencyGroup(client string, cur models.Currency, rows []models.InvoiceRow, today time.Time) CurrencyGroup {
	sorted := make([]models.InvoiceRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].InvoiceDate.Before(sorted[b].InvoiceDate)
	})

	group := CurrencyGroup{
		ClientCode: client,
		Currency:   cur,
		Lines:      make([]Line, 0, len(sorted)),
	}
	balance := decimal.Zero
	for _, row := range sorted {
		balance = balance.Add(row.PendingAmount)
		days, bucket := Age(row.DueDate, today)
		group.Lines = append(group.Lines, Line{
			InvoiceRow:     row,
			Amount:         row.PendingAmount,
			RunningBalance: balance,
			DaysOverdue:    days,
			Bucket:         bucket,
		})
	}
	return group
}
