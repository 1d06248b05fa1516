package utils

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// TodaySentinel is the upstream placeholder meaning "today".
const TodaySentinel = "Hari Ini"

// ISODate is the canonical calendar date layout.
const ISODate = "2006-01-02"

var (
	// ErrAmbiguousDate is returned by ParseDateStrict for N/N/YYYY input where both
	// leading components could be a month.
	ErrAmbiguousDate = errors.New("ambiguous date")
	// ErrInvalidDate is returned when input does not name a calendar day.
	ErrInvalidDate = errors.New("invalid date")
)

var (
	isoRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// Date is a calendar day at local midnight, or the invalid sentinel.
// The zero value is invalid.
type Date struct {
	t     time.Time
	valid bool
}

// InvalidDate is the sentinel for unparseable input.
var InvalidDate = Date{}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, t.Location()), valid: true}
}

// ParseDate accepts an empty string or TodaySentinel (today), YYYY-MM-DD,
// N/N/YYYY (day-first only when the first component exceeds 12) and anything
// dateparse understands. Day boundaries use today's location.
func ParseDate(input string, today time.Time) Date {
	d, _, err := parseDate(input, today)
	if err != nil {
		return InvalidDate
	}
	return d
}

// ParseDateStrict is ParseDate without guessing: ambiguous N/N/YYYY input and
// formats outside ISO and N/N/YYYY are rejected.
func ParseDateStrict(input string, today time.Time) (Date, error) {
	s := strings.TrimSpace(input)
	if s != "" && s != TodaySentinel && !isoRe.MatchString(s) && !slashRe.MatchString(s) {
		return InvalidDate, ErrInvalidDate
	}
	d, ambiguous, err := parseDate(s, today)
	if err != nil {
		return InvalidDate, err
	}
	if ambiguous {
		return InvalidDate, ErrAmbiguousDate
	}
	return d, nil
}

func parseDate(input string, today time.Time) (Date, bool, error) {
	s := strings.TrimSpace(input)
	loc := today.Location()
	if s == "" || s == TodaySentinel {
		return DateOf(today), false, nil
	}
	if isoRe.MatchString(s) {
		y, _ := strconv.Atoi(s[0:4])
		m, _ := strconv.Atoi(s[5:7])
		d, _ := strconv.Atoi(s[8:10])
		date, err := calendarDate(y, m, d, loc)
		return date, false, err
	}
	if p := slashRe.FindStringSubmatch(s); p != nil {
		first, _ := strconv.Atoi(p[1])
		second, _ := strconv.Atoi(p[2])
		year, _ := strconv.Atoi(p[3])
		if first > 12 {
			date, err := calendarDate(year, second, first, loc)
			return date, false, err
		}
		date, err := calendarDate(year, first, second, loc)
		return date, second <= 12 && first != second, err
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return InvalidDate, false, ErrInvalidDate
	}
	return DateOf(t.In(loc)), false, nil
}

func calendarDate(y, m, d int, loc *time.Location) (Date, error) {
	if m < 1 || m > 12 || d < 1 {
		return InvalidDate, ErrInvalidDate
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	if t.Month() != time.Month(m) || t.Day() != d {
		return InvalidDate, ErrInvalidDate
	}
	return Date{t: t, valid: true}, nil
}

// IsValid reports whether d names a calendar day.
func (d Date) IsValid() bool { return d.valid }

// Time returns local midnight of d. Invalid dates return the zero time.
func (d Date) Time() time.Time { return d.t }

// Before reports whether d is strictly earlier. False if either side is invalid.
func (d Date) Before(o Date) bool {
	return d.valid && o.valid && d.t.Before(o.t)
}

// After reports whether d is strictly later. False if either side is invalid.
func (d Date) After(o Date) bool {
	return d.valid && o.valid && d.t.After(o.t)
}

// Equal reports whether both are the same valid day.
func (d Date) Equal(o Date) bool {
	return d.valid && o.valid && d.t.Equal(o.t)
}

// AddDays shifts by whole calendar days. Invalid stays invalid.
func (d Date) AddDays(n int) Date {
	if !d.valid {
		return d
	}
	return Date{t: d.t.AddDate(0, 0, n), valid: true}
}

func (d Date) String() string {
	if !d.valid {
		return "Invalid Date"
	}
	return d.t.Format(ISODate)
}
