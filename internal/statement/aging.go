package statement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bucket classifies how overdue an invoice is.
type Bucket int

// Buckets in summary-table order.
const (
	NotDue Bucket = iota
	Days0To30
	Days31To60
	Days61To90
	Days91To120
	Days121Plus
)

// Buckets lists every bucket in column order.
var Buckets = []Bucket{NotDue, Days0To30, Days31To60, Days61To90, Days91To120, Days121Plus}

var bucketLabels = [...]string{"Sin Vencer", "0-30", "31-60", "61-90", "91-120", "+121"}

// String returns the column label used on statements.
func (b Bucket) String() string {
	if b < NotDue || b > Days121Plus {
		return "unknown"
	}
	return bucketLabels[b]
}

// Overdue reports whether b is any bucket past the due date.
func (b Bucket) Overdue() bool {
	return b != NotDue
}

// DaysBetween returns the number of calendar days from a to b, ignoring clock time.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// Age returns the clipped days overdue and the bucket for an invoice due on due.
func Age(due, today time.Time) (int, Bucket) {
	days := DaysBetween(due, today)
	switch {
	case days <= 0:
		return 0, NotDue
	case days <= 30:
		return days, Days0To30
	case days <= 60:
		return days, Days31To60
	case days <= 90:
		return days, Days61To90
	case days <= 120:
		return days, Days91To120
	default:
		return days, Days121Plus
	}
}

// AgingSummary is the per-bucket breakdown of one currency group.
type AgingSummary struct {
	Total   decimal.Decimal
	Amounts map[Bucket]decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Summarize buckets the group's lines. Every line lands in exactly one bucket.
func Summarize(lines []Line) AgingSummary {
	s := AgingSummary{
		Total:   decimal.Zero,
		Amounts: make(map[Bucket]decimal.Decimal, len(Buckets)),
	}
	for _, b := range Buckets {
		s.Amounts[b] = decimal.Zero
	}
	for _, l := range lines {
		s.Amounts[l.Bucket] = s.Amounts[l.Bucket].Add(l.Amount)
		s.Total = s.Total.Add(l.Amount)
	}
	return s
}

// Amount returns the bucket amount.
func (s AgingSummary) Amount(b Bucket) decimal.Decimal {
	if v, ok := s.Amounts[b]; ok {
		return v
	}
	return decimal.Zero
}

// Percent returns the bucket's share of the total rounded to two places.
// A non-positive total yields zero for every bucket.
func (s AgingSummary) Percent(b Bucket) decimal.Decimal {
	if !s.Total.IsPositive() {
		return decimal.Zero
	}
	return s.Amount(b).Div(s.Total).Mul(hundred).Round(2)
}
