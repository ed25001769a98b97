package render

import (
	"time"

	"arstatements/internal/config"
)

var (
	logHeaders = []string{"Email", "Estado de Envío", "Error"}
	logWidths  = []float64{90, 35, 65}
)

const (
	logRowHeight   = 8.0
	logDetailRunes = 38
)

// LogEntry is the outcome of one delivery attempt.
type LogEntry struct {
	Recipient string
	Sent      bool
	Detail    string
}

// DeliveryLog is the per-run table of delivery outcomes, one row per recipient.
type DeliveryLog struct {
	doc     *Document
	entries []LogEntry
}

// NewDeliveryLog opens an empty delivery log.
func NewDeliveryLog(company config.Company, logoPath string, printedAt time.Time) *DeliveryLog {
	l := &DeliveryLog{
		doc: NewDocument(Frame{
			Title:     "Control de Correos Enviados",
			Company:   company,
			LogoPath:  logoPath,
			PrintedAt: printedAt,
		}),
	}
	l.doc.setFont("B", 14)
	l.doc.line(10, "Estado de Cuenta Enviados", "C")
	l.doc.pdf.Ln(2)
	l.tableHeader()
	l.doc.SetContinuation(l.tableHeader)
	return l
}

func (l *DeliveryLog) tableHeader() {
	l.doc.setFont("B", 10)
	l.doc.Row(logWidths, 10, logHeaders, "C")
}

// Add appends one row.
func (l *DeliveryLog) Add(entry LogEntry) {
	l.entries = append(l.entries, entry)

	status := "No"
	if entry.Sent {
		status = "Si"
	}
	detail := entry.Detail
	if detail == "" {
		detail = "N/A"
	}
	if r := []rune(detail); len(r) > logDetailRunes {
		detail = string(r[:logDetailRunes-3]) + "..."
	}
	l.doc.EnsureSpace(logRowHeight)
	l.doc.setFont("", 10)
	l.doc.Row(logWidths, logRowHeight, []string{entry.Recipient, status, detail}, "C")
}

// Entries returns the rows added so far.
func (l *DeliveryLog) Entries() []LogEntry {
	return l.entries
}

// Document returns the underlying document for saving.
func (l *DeliveryLog) Document() *Document {
	return l.doc
}
