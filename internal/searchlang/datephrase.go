package searchlang

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateValue is the resolution of a date/time phrase. Phrases naming a period
// ("yesterday", "last month", "feb 2024") resolve to a half-open span
// [Min, Max); phrases naming an instant ("2024-01-15 10:30", "2 hours ago")
// resolve to Point.
type DateValue struct {
	Point    time.Time
	Min, Max time.Time
	IsSpan   bool
}

func (v DateValue) String() string {
	if v.IsSpan {
		return fmt.Sprintf("[%s, %s)", v.Min.Format(time.RFC3339), v.Max.Format(time.RFC3339))
	}
	return v.Point.Format(time.RFC3339)
}

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"jun": time.June, "jul": time.July, "aug": time.August, "sep": time.September,
	"sept": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
	"sun":      time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// Instant layouts resolve to a point in time; date-only layouts resolve to a
// one-day span. Ordering matters: more specific layouts first.
var pointLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
}

var dayLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
}

// ResolveDatePhrase resolves a human-readable date phrase relative to an
// injected reference time. It never reads the wall clock, so results are
// deterministic for a fixed now. The location of now anchors day boundaries.
func ResolveDatePhrase(phrase string, now time.Time) (DateValue, error) {
	s := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(phrase, "_", " ")))
	words := strings.Fields(s)
	if len(words) == 0 {
		return DateValue{}, fmt.Errorf("%w: empty date phrase", ErrInvalidDate)
	}
	s = strings.Join(words, " ")
	loc := now.Location()

	if s == "now" {
		return DateValue{Point: now}, nil
	}

	// Named single-word and this/last/next periods.
	if v, ok := resolveNamedPeriod(s, now); ok {
		return v, nil
	}

	// "N units ago" and "a/an unit ago".
	if len(words) >= 2 && words[len(words)-1] == "ago" {
		return resolveAgo(words[:len(words)-1], now)
	}

	// Word-form dates: "jan", "jan 2024", "2024 jan", "jan 21", "21 jan 2024", ...
	if v, ok := resolveWordDate(words, now); ok {
		return v, nil
	}

	// Bare 4-digit year.
	if y, ok := parseYear(s); ok {
		min := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return spanValue(min, min.AddDate(1, 0, 0)), nil
	}

	// Explicit timestamp formats.
	for _, layout := range pointLayouts {
		if t, err := time.ParseInLocation(layout, phrase, loc); err == nil {
			return DateValue{Point: t}, nil
		}
	}

	// Explicit date-only formats resolve to a one-day span.
	for _, layout := range dayLayouts {
		if t, err := time.ParseInLocation(layout, phrase, loc); err == nil {
			return daySpan(t), nil
		}
	}

	// dd.mm.yyyy uses day-first ordering, unlike the slash forms.
	if t, err := time.ParseInLocation("02.01.2006", phrase, loc); err == nil {
		return daySpan(t), nil
	}

	return DateValue{}, fmt.Errorf("%w: cannot understand %q", ErrInvalidDate, phrase)
}

// resolveNamedPeriod handles today/yesterday/tomorrow, this/last/next
// week|month|year, and this/last/next <weekday>.
func resolveNamedPeriod(s string, now time.Time) (DateValue, bool) {
	switch s {
	case "today":
		return daySpan(now), true
	case "yesterday":
		return daySpan(now.AddDate(0, 0, -1)), true
	case "tomorrow":
		return daySpan(now.AddDate(0, 0, 1)), true
	case "this week":
		return weekSpan(now), true
	case "last week":
		return weekSpan(now.AddDate(0, 0, -7)), true
	case "next week":
		return weekSpan(now.AddDate(0, 0, 7)), true
	case "this month":
		return monthSpan(now.Year(), now.Month(), now.Location()), true
	case "last month":
		t := startOfMonth(now).AddDate(0, -1, 0)
		return monthSpan(t.Year(), t.Month(), now.Location()), true
	case "next month":
		t := startOfMonth(now).AddDate(0, 1, 0)
		return monthSpan(t.Year(), t.Month(), now.Location()), true
	case "this year":
		return yearSpan(now.Year(), now.Location()), true
	case "last year":
		return yearSpan(now.Year()-1, now.Location()), true
	case "next year":
		return yearSpan(now.Year()+1, now.Location()), true
	}

	// this/last/next <weekday>, relative to the current Sunday-start week.
	words := strings.Fields(s)
	if len(words) == 2 {
		if wd, ok := weekdayNames[words[1]]; ok {
			ws := startOfWeek(now)
			day := ws.AddDate(0, 0, int(wd))
			switch words[0] {
			case "this":
				return daySpan(day), true
			case "last":
				return daySpan(day.AddDate(0, 0, -7)), true
			case "next":
				return daySpan(day.AddDate(0, 0, 7)), true
			}
		}
	}

	// Bare weekday: that day of the current week.
	if wd, ok := weekdayNames[s]; ok {
		return daySpan(startOfWeek(now).AddDate(0, 0, int(wd))), true
	}

	return DateValue{}, false
}

// resolveAgo handles "N days|weeks|months|years ago" (span of the unit
// containing the shifted time) and "N hours|minutes|seconds ago" (a point).
func resolveAgo(words []string, now time.Time) (DateValue, error) {
	if len(words) != 2 {
		return DateValue{}, fmt.Errorf("%w: cannot understand %q ago", ErrInvalidDate, strings.Join(words, " "))
	}

	n := 1
	switch words[0] {
	case "a", "an", "one":
	default:
		v, err := strconv.Atoi(words[0])
		if err != nil || v < 0 {
			return DateValue{}, fmt.Errorf("%w: bad count %q", ErrInvalidDate, words[0])
		}
		n = v
	}

	switch words[1] {
	case "d", "day", "days":
		return daySpan(now.AddDate(0, 0, -n)), nil
	case "w", "wk", "wks", "week", "weeks":
		return weekSpan(now.AddDate(0, 0, -7*n)), nil
	case "mo", "mos", "month", "months":
		t := startOfMonth(now).AddDate(0, -n, 0)
		return monthSpan(t.Year(), t.Month(), now.Location()), nil
	case "y", "yr", "yrs", "year", "years":
		return yearSpan(now.Year()-n, now.Location()), nil
	case "h", "hr", "hrs", "hour", "hours":
		return DateValue{Point: now.Add(-time.Duration(n) * time.Hour)}, nil
	case "m", "min", "mins", "minute", "minutes":
		return DateValue{Point: now.Add(-time.Duration(n) * time.Minute)}, nil
	case "s", "sec", "secs", "second", "seconds":
		return DateValue{Point: now.Add(-time.Duration(n) * time.Second)}, nil
	}

	return DateValue{}, fmt.Errorf("%w: unknown unit %q", ErrInvalidDate, words[1])
}

// resolveWordDate handles dates spelled with month names, in any of the
// orderings the original grammar accepted.
func resolveWordDate(words []string, now time.Time) (DateValue, bool) {
	loc := now.Location()

	switch len(words) {
	case 1:
		// Bare month name: that month this year, or last year if still ahead.
		if m, ok := monthNames[words[0]]; ok {
			v := monthSpan(now.Year(), m, loc)
			if v.Min.After(now) {
				v = monthSpan(now.Year()-1, m, loc)
			}
			return v, true
		}

	case 2:
		a, b := words[0], words[1]
		if m, ok := monthNames[a]; ok {
			if y, ok := parseYear(b); ok { // jan 2024
				return monthSpan(y, m, loc), true
			}
			if d, ok := parseDayNum(b); ok { // jan 21
				return daySpan(time.Date(now.Year(), m, d, 0, 0, 0, 0, loc)), true
			}
		}
		if m, ok := monthNames[b]; ok {
			if y, ok := parseYear(a); ok { // 2024 jan
				return monthSpan(y, m, loc), true
			}
			if d, ok := parseDayNum(a); ok { // 21 jan
				return daySpan(time.Date(now.Year(), m, d, 0, 0, 0, 0, loc)), true
			}
		}

	case 3:
		a, b, c := words[0], words[1], words[2]
		if y, ok := parseYear(a); ok { // 2024 jan 21
			if m, ok := monthNames[b]; ok {
				if d, ok := parseDayNum(c); ok {
					return daySpan(time.Date(y, m, d, 0, 0, 0, 0, loc)), true
				}
			}
		}
		if m, ok := monthNames[a]; ok { // jan 21 2024
			if d, ok := parseDayNum(b); ok {
				if y, ok := parseYear(c); ok {
					return daySpan(time.Date(y, m, d, 0, 0, 0, 0, loc)), true
				}
			}
		}
		if d, ok := parseDayNum(a); ok { // 21 jan 2024
			if m, ok := monthNames[b]; ok {
				if y, ok := parseYear(c); ok {
					return daySpan(time.Date(y, m, d, 0, 0, 0, 0, loc)), true
				}
			}
		}
	}

	return DateValue{}, false
}

func parseYear(s string) (int, bool) {
	y, err := strconv.Atoi(s)
	if err != nil || y < 1900 || y > 2100 {
		return 0, false
	}
	return y, true
}

func parseDayNum(s string) (int, bool) {
	d, err := strconv.Atoi(s)
	if err != nil || d < 1 || d > 31 {
		return 0, false
	}
	return d, true
}

func spanValue(min, max time.Time) DateValue {
	return DateValue{Min: min, Max: max, IsSpan: true}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns midnight of the Sunday beginning t's week.
func startOfWeek(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, -int(t.Weekday()))
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func daySpan(t time.Time) DateValue {
	min := startOfDay(t)
	return spanValue(min, min.AddDate(0, 0, 1))
}

func weekSpan(t time.Time) DateValue {
	min := startOfWeek(t)
	return spanValue(min, min.AddDate(0, 0, 7))
}

func monthSpan(year int, m time.Month, loc *time.Location) DateValue {
	min := time.Date(year, m, 1, 0, 0, 0, 0, loc)
	return spanValue(min, min.AddDate(0, 1, 0))
}

func yearSpan(year int, loc *time.Location) DateValue {
	min := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return spanValue(min, min.AddDate(1, 0, 0))
}
