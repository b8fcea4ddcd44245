package normalizer

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
		ok       bool
	}{
		{"trims whitespace", "  Coffee shop  ", "Coffee shop", true},
		{"strips markup characters", `<b>Tom & "Jerry's"</b>`, "bTom  Jerrys/b", true},
		{"nil is absent", nil, "", false},
		{"blank is absent", "   ", "", false},
		{"only unsafe characters", "<>&", "", false},
		{"number is stringified", json.Number("42.5"), "42.5", true},
		{"float is stringified", 12.0, "12", true},
		{"composite is rejected", map[string]any{"a": 1}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SanitizeText(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizeText_Truncates(t *testing.T) {
	long := strings.Repeat("ñ", 300)

	got, ok := SanitizeText(long)
	require.True(t, ok)
	assert.Equal(t, MaxTextLength, len([]rune(got)))
}

func TestParseFloatPrefix(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"12.5", 12.5, true},
		{"-45.00", -45, true},
		{"  7", 7, true},
		{"12.5abc", 12.5, true},
		{".5", 0.5, true},
		{"1e3", 1000, true},
		{"9.16667", 9.16667, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseFloatPrefix(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected float64
		ok       bool
	}{
		{"json number", json.Number("-12.34"), -12.34, true},
		{"float", 99.5, 99.5, true},
		{"int", 3, 3, true},
		{"dollar string", "$1,234.56", 1234.56, true},
		{"negative string", "-20.00", -20, true},
		{"zero string", "0", 0, true},
		{"not a number", "abc", 0, false},
		{"empty string", "", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
		ok       bool
	}{
		{"iso date", "2024-01-15", "2024-01-15", true},
		{"rfc3339", "2024-01-15T23:30:00Z", "2024-01-15", true},
		{"rfc3339 with offset renders utc", "2024-01-15T01:00:00+02:00", "2024-01-14", true},
		{"month first slashes", "01/15/2024", "2024-01-15", true},
		{"short month first", "1/5/2024", "2024-01-05", true},
		{"year first slashes", "2024/01/15", "2024-01-15", true},
		{"month name", "Jan 15, 2024", "2024-01-15", true},
		{"day month name", "15 Jan 2024", "2024-01-15", true},
		{"epoch millis", json.Number("1705276800000"), "2024-01-15", true},
		{"fractional epoch millis", json.Number("1705276800000.9"), "2024-01-15", true},
		{"negative epoch millis", json.Number("-86400000"), "1969-12-31", true},
		{"float epoch millis", 1705276800000.0, "2024-01-15", true},
		{"last four digit year", json.Number("253402300799999"), "9999-12-31", true},
		{"year ten thousand", json.Number("253402300800000"), "", false},
		{"beyond date range", json.Number("9e15"), "", false},
		{"overflowing exponent", json.Number("1e20"), "", false},
		{"negative year", json.Number("-8.64e15"), "", false},
		{"infinite float", math.Inf(1), "", false},
		{"nan float", math.NaN(), "", false},
		{"impossible date", "2024-02-30", "", false},
		{"garbage", "invalid-date", "", false},
		{"blank", "  ", "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.expected, FormatDate(got))
			}
		})
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected []string
	}{
		{"comma string", "food, work ,", []string{"food", "work"}},
		{"array", []any{"a", " b ", "", nil}, []string{"a", "b"}},
		{"string slice", []string{"x"}, []string{"x"}},
		{"empty string", "", nil},
		{"only blanks", " , ,", nil},
		{"unsupported type", 12.0, nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseTags(tt.input))
		})
	}
}

func TestParseDayMonthYear(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"05-09-2025", "2025-09-05", true},
		{"31-12-1999", "1999-12-31", true},
		{"29-02-2024", "2024-02-29", true},
		{"30-02-2025", "", false},
		{"29-02-2025", "", false},
		{"32-01-2025", "", false},
		{"01-13-2025", "", false},
		{"01-01-1899", "", false},
		{"01-01-2101", "", false},
		{"2025-09-05", "", false},
		{"05/09/2025", "", false},
		{"aa-bb-cccc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDayMonthYear(tt.input)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.expected, FormatDate(got))
			}
		})
	}
}

func TestParseLocaleAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{`"9,166.67"`, 9.16667, true},
		{"-45.00", -4500, true},
		{"1.234,56", 1234.56, true},
		{"-20,50", -20.5, true},
		{`"1,150.00"`, 1.15, true},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLocaleAmount(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	got, ok := ParseTimestamp("2025-09-18T10:15:30.123Z")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 9, 18, 10, 15, 30, 123000000, time.UTC), got)

	got, ok = ParseTimestamp("2025-09-18")
	require.True(t, ok)
	assert.Equal(t, "2025-09-18", FormatDate(got))

	_, ok = ParseTimestamp("18/09/2025")
	assert.False(t, ok)

	_, ok = ParseTimestamp("")
	assert.False(t, ok)
}
