package utils

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var wsRe = regexp.MustCompile(`\s+`)

var emailFold = cases.Fold()

// ErrInvalidDate is returned when a calendar date cannot be parsed.
var ErrInvalidDate = errors.New("invalid date")

// NormalizeEmail folds an address into the form used for equality checks.
// Full-width characters and case differences collapse to the same value.
func NormalizeEmail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return emailFold.String(norm.NFKC.String(s))
}

// SameEmail reports whether two addresses refer to the same mailbox.
func SameEmail(a, b string) bool {
	na, nb := NormalizeEmail(a), NormalizeEmail(b)
	return na != "" && na == nb
}

// CollapseSpaces trims and collapses runs of whitespace.
func CollapseSpaces(s string) string {
	return wsRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// TrimMax trims a string to at most max bytes without splitting a rune.
func TrimMax(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// ParseDate parses a calendar date (YYYY-MM-DD or RFC3339) and truncates it to UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	formats := []string{
		"2006-01-02",
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return DateOnly(t), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// DateOnly drops the clock part of t, keeping its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
