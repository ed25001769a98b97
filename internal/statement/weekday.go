package statement

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is the single-letter processing-day code stored on the client record.
type Weekday string

// Processing-day codes as they appear in the client master data.
const (
	Monday    Weekday = "L"
	Tuesday   Weekday = "K"
	Wednesday Weekday = "M"
	Thursday  Weekday = "J"
	Friday    Weekday = "V"
	Saturday  Weekday = "S"
	Sunday    Weekday = "D"
)

var weekdayCodes = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf returns the processing-day code for t.
func WeekdayOf(t time.Time) Weekday {
	return weekdayCodes[t.Weekday()]
}

// Time returns the calendar weekday of the code.
func (w Weekday) Time() (time.Weekday, bool) {
	for day, code := range weekdayCodes {
		if code == w {
			return day, true
		}
	}
	return 0, false
}

// ParseWeekday accepts a code ("L") or an English day name ("monday").
func ParseWeekday(value string) (Weekday, error) {
	v := strings.TrimSpace(value)
	for day, code := range weekdayCodes {
		if strings.EqualFold(v, string(code)) || strings.EqualFold(v, day.String()) {
			return code, nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q", value)
}

// DayPolicy decides whether a row's processing-day set matches the run's filter.
type DayPolicy struct {
	// DefaultDay is used for rows without processing days.
	DefaultDay Weekday
}

// DefaultDayPolicy includes rows with no processing days only on Mondays.
var DefaultDayPolicy = DayPolicy{DefaultDay: Monday}

// Matches reports whether a row with the given processing-day field is due on filter.
func (p DayPolicy) Matches(processingDays string, filter Weekday) bool {
	if strings.TrimSpace(processingDays) == "" {
		return filter == p.DefaultDay
	}
	for _, part := range strings.Split(processingDays, "-") {
		if strings.EqualFold(strings.TrimSpace(part), string(filter)) {
			return true
		}
	}
	return false
}
