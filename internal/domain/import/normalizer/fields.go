// Package normalizer converts raw statement cell values into typed values.
// fields.go holds the per-format date, amount, text and tag rules.
package normalizer

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxTextLength caps every sanitized text field, counted in characters.
const MaxTextLength = 255

// ISODate is the layout every emitted record date uses.
const ISODate = "2006-01-02"

// unsafeChars are dropped from free text before it is stored or rendered.
var unsafeChars = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "", "&", "")

// numericPrefix mirrors JavaScript parseFloat: the longest leading decimal literal wins.
var numericPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// genericDateLayouts are tried in order for the generic CSV/JSON path.
// Slash dates are month-first, like the browser date parser the exports were built for.
var genericDateLayouts = []string{
	ISODate,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"2006/01/02",
	"2006/1/2",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// FormatDate renders t as a UTC calendar date.
func FormatDate(t time.Time) string {
	return t.UTC().Format(ISODate)
}

// SanitizeText stringifies v, trims it, drops markup-sensitive characters and
// truncates to MaxTextLength. It reports false when nothing is left.
func SanitizeText(v any) (string, bool) {
	s, ok := Stringify(v)
	if !ok {
		return "", false
	}
	s = unsafeChars.Replace(strings.TrimSpace(s))
	if utf8.RuneCountInString(s) > MaxTextLength {
		s = string([]rune(s)[:MaxTextLength])
	}
	return s, s != ""
}

// Stringify renders scalar JSON/CSV values as text. Composite values are rejected.
func Stringify(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// ParseFloatPrefix parses the leading decimal literal of s the way
// JavaScript parseFloat does ("12.5abc" is 12.5, "abc" fails).
func ParseFloatPrefix(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	m := numericPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ParseAmount handles the generic path: numbers pass through, text has
// "$" and "," stripped before coercion. Empty values fail instead of defaulting to zero.
func ParseAmount(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, !math.IsNaN(val) && !math.IsInf(val, 0)
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		if val == "" {
			return 0, false
		}
		cleaned := strings.NewReplacer("$", "", ",", "").Replace(val)
		return ParseFloatPrefix(cleaned)
	default:
		return 0, false
	}
}

// ParseDate handles the generic path. Numbers are epoch milliseconds.
func ParseDate(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return val, !val.IsZero()
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return epochMillis(f)
	case float64:
		return epochMillis(val)
	case int64:
		return epochMillis(float64(val))
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range genericDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// maxEpochMillis is the largest magnitude a JavaScript Date accepts.
const maxEpochMillis = 8.64e15

// epochMillis converts a millisecond timestamp, rejecting values a Date cannot
// hold and years that do not render as four digits.
func epochMillis(ms float64) (time.Time, bool) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxEpochMillis {
		return time.Time{}, false
	}
	t := time.UnixMilli(int64(ms)).UTC()
	if t.Year() < 0 || t.Year() > 9999 {
		return time.Time{}, false
	}
	return t, true
}

// ParseTags accepts a list of values or a comma-separated string.
// It returns nil when no usable tag remains.
func ParseTags(v any) []string {
	var raw []any
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		raw = val
	case []string:
		for _, s := range val {
			raw = append(raw, s)
		}
	case string:
		if val == "" {
			return nil
		}
		for _, part := range strings.Split(val, ",") {
			raw = append(raw, part)
		}
	default:
		return nil
	}

	tags := make([]string, 0, len(raw))
	for _, r := range raw {
		if tag, ok := SanitizeText(r); ok {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// ParseDayMonthYear parses DD-MM-YYYY. Each part is read like parseInt, then
// range-checked; impossible calendar dates such as 30-02-2025 are rejected.
func ParseDayMonthYear(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	day, ok1 := parseIntPrefix(parts[0])
	month, ok2 := parseIntPrefix(parts[1])
	year, ok3 := parseIntPrefix(parts[2])
	if !ok1 || !ok2 || !ok3 {
		return time.Time{}, false
	}
	if day < 1 || day > 31 || month < 1 || month > 12 || year < 1900 || year > 2100 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// ParseLocaleAmount applies the Spanish export rule: drop quotes, drop every
// ".", turn the first "," into ".", then coerce. A value such as "-45.00"
// therefore reads as -4500; that is the documented behavior of the export rule.
func ParseLocaleAmount(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.Replace(cleaned, ",", ".", 1)
	return ParseFloatPrefix(cleaned)
}

// ParsePlainAmount coerces a value that already uses "." as decimal point.
func ParsePlainAmount(s string) (float64, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, false
	}
	return ParseFloatPrefix(s)
}

// ParseTimestamp parses an ISO-8601 timestamp, falling back to a bare date.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", ISODate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseIntPrefix(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
