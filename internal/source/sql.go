package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"arstatements/internal/logger"
	"arstatements/pkg/models"
)

// DefaultInvoiceQuery selects open receivables from the ledger view. Custom
// queries must return the same eleven columns in the same order.
const DefaultInvoiceQuery = `SELECT client_code, client_name, tax_id, contact_emails,
	invoice_number, invoice_date, due_date, currency, pending_amount,
	receipt_reference, processing_days
FROM ar_open_invoices
WHERE pending_amount <> 0
ORDER BY client_code, invoice_date`

// OpenPostgres opens a pgx-backed database handle and checks connectivity.
func OpenPostgres(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxIdleTime(time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// SQLSource reads invoices with a single query.
type SQLSource struct {
	db         *sql.DB
	query      string
	localCodes []string
	log        zerolog.Logger
}

// NewSQLSource uses DefaultInvoiceQuery when query is empty.
func NewSQLSource(db *sql.DB, query string, localCodes []string) *SQLSource {
	if query == "" {
		query = DefaultInvoiceQuery
	}
	return &SQLSource{
		db:         db,
		query:      query,
		localCodes: localCodes,
		log:        logger.WithComponent("source-sql"),
	}
}

// Rows implements Source.
func (s *SQLSource) Rows(ctx context.Context) ([]models.InvoiceRow, error) {
	const op = "SQLSource.Rows"

	rs, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("%s: query invoices: %w", op, err)
	}
	defer rs.Close()

	var rows []models.InvoiceRow
	for rs.Next() {
		var (
			code, invoice, currency                  string
			name, taxID, emails, receipt, processing sql.NullString
			invoiceDate, dueDate                     time.Time
			amount                                   decimal.Decimal
		)
		if err := rs.Scan(&code, &name, &taxID, &emails, &invoice, &invoiceDate, &dueDate,
			&currency, &amount, &receipt, &processing); err != nil {
			return nil, fmt.Errorf("%s: scan row %d: %w", op, len(rows)+1, err)
		}
		rows = append(rows, models.InvoiceRow{
			ClientCode:       code,
			ClientName:       name.String,
			TaxID:            taxID.String,
			ContactEmails:    emails.String,
			InvoiceNumber:    invoice,
			InvoiceDate:      invoiceDate,
			DueDate:          dueDate,
			Currency:         models.NormalizeCurrency(currency, s.localCodes...),
			PendingAmount:    amount,
			ReceiptReference: receipt.String,
			ProcessingDays:   processing.String,
		})
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate rows: %w", op, err)
	}

	s.log.Info().Int("rows", len(rows)).Msg("Invoices read from database")
	return rows, nil
}
