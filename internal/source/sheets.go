package source

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"arstatements/internal/logger"
	"arstatements/pkg/models"
)

// RangeReader reads a range of cell values. *sheets.Service implements it.
type RangeReader interface {
	ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error)
}

// SheetsSource reads invoices from a Google Sheet range whose first row holds the column headers.
type SheetsSource struct {
	reader     RangeReader
	rangeSpec  string
	localCodes []string
	log        zerolog.Logger
}

// NewSheetsSource creates a source over rangeSpec (e.g. "Facturas!A:K").
func NewSheetsSource(reader RangeReader, rangeSpec string, localCodes []string) *SheetsSource {
	return &SheetsSource{
		reader:     reader,
		rangeSpec:  rangeSpec,
		localCodes: localCodes,
		log:        logger.WithComponent("source-sheets"),
	}
}

// Rows implements Source. Unparseable rows are logged and skipped.
func (s *SheetsSource) Rows(ctx context.Context) ([]models.InvoiceRow, error) {
	const op = "SheetsSource.Rows"

	s.log.Info().Str("range", s.rangeSpec).Msg("Reading invoices")

	values, err := s.reader.ReadRange(ctx, s.rangeSpec)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s: %w", op, s.rangeSpec, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %s is empty", op, s.rangeSpec)
	}

	p := parser{header: newHeader(toStrings(values[0])), localCodes: s.localCodes}
	if err := p.header.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var rows []models.InvoiceRow
	for i, raw := range values[1:] {
		rowNum := i + 2 // Account for header and 0-based indexing
		cells := toStrings(raw)
		if isBlank(cells) {
			continue
		}
		row, err := p.parse(cells, rowNum)
		if err != nil {
			s.log.Warn().
				Err(err).
				Int("row", rowNum).
				Msg("Failed to parse invoice, skipping")
			continue
		}
		rows = append(rows, row)
	}

	s.log.Info().
		Int("total_rows", len(values)-1).
		Int("parsed_rows", len(rows)).
		Str("range", s.rangeSpec).
		Msg("Invoices read successfully")
	return rows, nil
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i := range row {
		out[i] = cellString(row, i)
	}
	return out
}
