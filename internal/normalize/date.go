package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dmyPattern      = regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})[./](\d{4})`)
	dmySlashPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})`)
	ymdPattern      = regexp.MustCompile(`^(\d{4})[./](\d{1,2})[./](\d{1,2})`)
)

// ParseDateDMY parses the day-first "DD.MM.YYYY" format the statements use,
// tolerating a trailing dot ("19.01.2026.").
func ParseDateDMY(s string) (time.Time, error) {
	m := dmyPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, &Error{Field: "date", Value: s, Msg: "expected DD.MM.YYYY"}
	}
	return buildDate(s, m[3], m[2], m[1])
}

// ParseDateDMYSlash parses "DD/MM/YYYY".
func ParseDateDMYSlash(s string) (time.Time, error) {
	m := dmySlashPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, &Error{Field: "date", Value: s, Msg: "expected DD/MM/YYYY"}
	}
	return buildDate(s, m[3], m[2], m[1])
}

// ParseDateYMD parses the "YYYY.MM.DD" variant Prva and UCB print in
// transaction rows.
func ParseDateYMD(s string) (time.Time, error) {
	m := ymdPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, &Error{Field: "date", Value: s, Msg: "expected YYYY.MM.DD"}
	}
	return buildDate(s, m[1], m[2], m[3])
}

func buildDate(orig, ys, ms, ds string) (time.Time, error) {
	year, _ := strconv.Atoi(ys)
	month, _ := strconv.Atoi(ms)
	day, _ := strconv.Atoi(ds)

	if month < 1 || month > 12 {
		return time.Time{}, &Error{Field: "date", Value: orig, Msg: "month out of range"}
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. 32.01 -> 01.02); reject rather than guess.
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, &Error{Field: "date", Value: orig, Msg: "day out of range"}
	}
	return t, nil
}
