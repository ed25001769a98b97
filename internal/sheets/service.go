package sheets

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"arstatements/internal/googleauth"
	"arstatements/internal/logger"
	"arstatements/internal/run"
)

// Service handles Google Sheets operations
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// RunReportRow is one line of the run history worksheet.
type RunReportRow struct {
	Date               string
	Elapsed            string
	Clients            int
	DocumentsProcessed int
	DocumentsGenerated int
	EmailsOK           int
	EmailsFail         int
	RunType            string
	Source             string
	TotalUSD           string
	TotalLocal         string
	Observations       string
}

var reportHeaders = []interface{}{
	"Fecha", "Tiempo de Ejecución", "Clientes Procesados", "Documentos Procesados",
	"Reportes Generados", "Emails Enviados OK", "Emails Fallidos", "Tipo de Ejecución",
	"Fuente", "Monto Total USD", "Monto Total Local", "Observaciones",
}

// reportColumns is the A1 span of reportHeaders.
const reportColumns = "A:L"

// NewSheetsService creates a new Google Sheets service
func NewSheetsService(ctx context.Context, sheetURL string) (*Service, error) {
	const op = "NewSheetsService"

	log := logger.WithComponent("sheets")

	// Extract spreadsheet ID from URL
	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	client, err := googleauth.HTTPClient(ctx, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}
	return matches[1], nil
}

// NewRunReportRow formats run stats for the history worksheet.
func NewRunReportRow(stats run.Stats) RunReportRow {
	return RunReportRow{
		Date:               stats.StartedAt.Format("02/01/2006 15:04:05"),
		Elapsed:            formatElapsed(stats.Duration.Seconds()),
		Clients:            stats.ClientsProcessed,
		DocumentsProcessed: stats.DocumentsProcessed,
		DocumentsGenerated: stats.DocumentsGenerated,
		EmailsOK:           stats.EmailsSentOK,
		EmailsFail:         stats.EmailsSentFail,
		RunType:            stats.RunType,
		Source:             stats.Source,
		TotalUSD:           stats.TotalUSD.StringFixed(2),
		TotalLocal:         stats.TotalLocal.StringFixed(2),
		Observations:       stats.Observations,
	}
}

func formatElapsed(seconds float64) string {
	return fmt.Sprintf("%.2f s", seconds)
}

// AppendRunReport appends one row to the run history worksheet, creating the
// worksheet and its headers on first use.
func (s *Service) AppendRunReport(ctx context.Context, sheetName string, row RunReportRow) error {
	const op = "AppendRunReport"

	if err := s.ensureSheetWithHeaders(ctx, sheetName); err != nil {
		return fmt.Errorf("%s: failed to ensure sheet exists: %w", op, err)
	}

	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{rowToValues(row)},
	}

	_, err := s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		sheetName+"!"+reportColumns,
		valueRange,
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	s.log.Info().
		Str("sheet", sheetName).
		Str("date", row.Date).
		Msg("Run report appended to Google Sheet")

	return nil
}

// rowToValues converts RunReportRow to interface{} slice for Google Sheets
func rowToValues(row RunReportRow) []interface{} {
	return []interface{}{
		row.Date,               // A: Fecha
		row.Elapsed,            // B: Tiempo de Ejecución
		row.Clients,            // C: Clientes Procesados
		row.DocumentsProcessed, // D: Documentos Procesados
		row.DocumentsGenerated, // E: Reportes Generados
		row.EmailsOK,           // F: Emails Enviados OK
		row.EmailsFail,         // G: Emails Fallidos
		row.RunType,            // H: Tipo de Ejecución
		row.Source,             // I: Fuente
		row.TotalUSD,           // J: Monto Total USD
		row.TotalLocal,         // K: Monto Total Local
		row.Observations,       // L: Observaciones
	}
}

// ensureSheetWithHeaders ensures the sheet exists and has proper headers
func (s *Service) ensureSheetWithHeaders(ctx context.Context, sheetName string) error {
	const op = "ensureSheetWithHeaders"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var sheetExists bool
	var sheetID int64
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			sheetExists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !sheetExists {
		s.log.Info().Str("sheet", sheetName).Msg("Creating new sheet")

		batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: sheetName},
				}},
			},
		}

		resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	headerRange := fmt.Sprintf("%s!A1:L1", sheetName)
	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		s.log.Info().Str("sheet", sheetName).Msg("Adding headers to sheet")

		valueRange := &sheets.ValueRange{Values: [][]interface{}{reportHeaders}}
		_, err = s.sheetsService.Spreadsheets.Values.Update(
			s.spreadsheetID,
			headerRange,
			valueRange,
		).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to add headers: %w", op, err)
		}

		if err := s.formatHeaders(ctx, sheetID); err != nil {
			s.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
		}
	}

	return nil
}

// formatHeaders makes the header row bold and applies basic formatting
func (s *Service) formatHeaders(ctx context.Context, sheetID int64) error {
	const op = "formatHeaders"

	columns := int64(len(reportHeaders))
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{
							Red:   0.9,
							Green: 0.9,
							Blue:  0.9,
						},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}

	batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}

	return nil
}

// ReadRange reads values from a specified range in the spreadsheet
func (s *Service) ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error) {
	const op = "ReadRange"

	s.log.Debug().
		Str("range", rangeSpec).
		Msg("Reading range from spreadsheet")

	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, rangeSpec).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read range %s: %w", op, rangeSpec, err)
	}

	s.log.Debug().
		Int("rows", len(resp.Values)).
		Str("range", rangeSpec).
		Msg("Successfully read range from spreadsheet")

	return resp.Values, nil
}

// RunReporter appends every finished run to a worksheet.
type RunReporter struct {
	Service   *Service
	Worksheet string
}

// Report implements run.Reporter.
func (r RunReporter) Report(ctx context.Context, stats run.Stats) error {
	return r.Service.AppendRunReport(ctx, r.Worksheet, NewRunReportRow(stats))
}
