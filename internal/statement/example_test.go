package statement_test

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"arstatements/internal/statement"
	"arstatements/pkg/models"
)

// Example groups a client's open invoices and prints the running balance and
// aging breakdown of each currency.
func Example() {
	today := time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC) // a Monday
	day := func(m time.Month, d int) time.Time { return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC) }

	rows := []models.InvoiceRow{
		{
			ClientCode: "C1", ClientName: "Ferretería Central", InvoiceNumber: "C1-002",
			InvoiceDate: day(time.February, 20), DueDate: day(time.March, 22),
			Currency: models.CurrencyUSD, PendingAmount: decimal.RequireFromString("50.50"),
			ProcessingDays: "L-J",
		},
		{
			ClientCode: "C1", ClientName: "Ferretería Central", InvoiceNumber: "C1-001",
			InvoiceDate: day(time.January, 2), DueDate: day(time.January, 31),
			Currency: models.CurrencyUSD, PendingAmount: decimal.RequireFromString("100"),
			ProcessingDays: "L-J",
		},
	}

	clients, err := statement.Aggregate(rows, today, statement.WeekdayOf(today))
	if err != nil {
		fmt.Println(err)
		return
	}

	for _, client := range clients {
		for _, group := range client.Currencies {
			fmt.Println(client.ClientCode, group.Currency)
			for _, line := range group.Lines {
				fmt.Println(line.InvoiceNumber, line.RunningBalance.StringFixed(2), line.Bucket, line.DaysOverdue)
			}
			summary := group.Summary()
			for _, b := range statement.Buckets {
				if summary.Amount(b).IsZero() {
					continue
				}
				fmt.Printf("%s %s%%\n", b, summary.Percent(b).StringFixed(2))
			}
		}
	}
	// Output:
	// C1 USD
	// C1-001 100.00 31-60 31
	// C1-002 150.50 Sin Vencer 0
	// Sin Vencer 33.55%
	// 31-60 66.45%
}
