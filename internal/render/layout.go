package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"arstatements/internal/config"
	"arstatements/internal/statement"
)

// Layout holds the row-density and font-size rules of the statement tables.
type Layout struct {
	rowHeight float64
	density   []config.DensityBand
	fontSteps []config.FontStep
}

// NewLayout builds the layout rules from a statement profile.
func NewLayout(profile config.Profile) Layout {
	l := Layout{
		rowHeight: profile.RowHeight,
		density:   profile.Density,
		fontSteps: profile.FontSteps,
	}
	if l.rowHeight <= 0 {
		l.rowHeight = 10
	}
	return l
}

// RowHeight returns the detail row height for a table of rows entries.
func (l Layout) RowHeight(rows int) float64 {
	for _, band := range l.density {
		if rows >= band.MinRows && rows <= band.MaxRows {
			return band.Height
		}
	}
	return l.rowHeight
}

// SummaryFontSize scales the aging value row down as the total grows.
func (l Layout) SummaryFontSize(total decimal.Decimal) float64 {
	if len(l.fontSteps) == 0 {
		return 11
	}
	t := total.InexactFloat64()
	for _, step := range l.fontSteps {
		if t >= step.MinTotal {
			return step.Size
		}
	}
	return l.fontSteps[len(l.fontSteps)-1].Size
}

// ClientNameFontSize shrinks long client names so they fit on one line.
func ClientNameFontSize(name string) float64 {
	n := len([]rune(name))
	switch {
	case n > 70:
		return 10
	case n > 50:
		return 12
	default:
		return 14
	}
}

// PercentColor highlights non-zero shares: green for not yet due, red for overdue.
func PercentColor(b statement.Bucket, pct decimal.Decimal) Color {
	if pct.IsZero() {
		return Black
	}
	if b.Overdue() {
		return Red
	}
	return Green
}

// BreakPolicy decides whether the aging summary starts on a new page.
type BreakPolicy interface {
	BreakBeforeSummary(rows int, remaining, need float64) bool
}

// SpacePolicy breaks only when the summary would run into the footer.
type SpacePolicy struct{}

func (SpacePolicy) BreakBeforeSummary(_ int, remaining, need float64) bool {
	return remaining < need
}

// RowBand is an inclusive range of detail-row counts.
type RowBand struct{ Min, Max int }

// LegacyBands are the row counts after which statements historically forced a break.
var LegacyBands = []RowBand{
	{5, 9}, {27, 29}, {48, 50}, {69, 71}, {90, 92}, {111, 113}, {122, 124},
	{143, 145}, {164, 165}, {185, 187}, {206, 208}, {227, 229}, {248, 250}, {269, 271},
}

// LegacyPolicy forces a break for row counts in Bands. It still never lets the
// summary overlap the footer.
type LegacyPolicy struct {
	Bands []RowBand
}

func (p LegacyPolicy) BreakBeforeSummary(rows int, remaining, need float64) bool {
	for _, band := range p.Bands {
		if rows >= band.Min && rows <= band.Max {
			return true
		}
	}
	return remaining < need
}

// PolicyByName returns the break policy for PAGE_BREAK_POLICY.
func PolicyByName(name string) (BreakPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "space":
		return SpacePolicy{}, nil
	case "legacy":
		return LegacyPolicy{Bands: LegacyBands}, nil
	default:
		return nil, fmt.Errorf("unknown page break policy %q", name)
	}
}

var printer = message.NewPrinter(language.English)

// FormatAmount renders "USD  1,234.56".
func FormatAmount(label string, amount decimal.Decimal) string {
	return label + "  " + printer.Sprintf("%.2f", amount.Round(2).InexactFloat64())
}

// FormatPercent renders "66.67%".
func FormatPercent(pct decimal.Decimal) string {
	return pct.StringFixed(2) + "%"
}

var unsafeFileChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFileName replaces characters that are not allowed in file names.
func SanitizeFileName(name string) string {
	return unsafeFileChars.ReplaceAllString(strings.TrimSpace(name), "-")
}
