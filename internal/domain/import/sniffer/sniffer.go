// Package sniffer classifies raw statement text into one of the supported bank
// formats and detects the delimiter of delimited lines.
package sniffer

import (
	"strings"
)

// BankFormat tags the dialect a CSV statement is written in.
type BankFormat string

const (
	FormatGeneric       BankFormat = "generic"
	FormatIbercaja      BankFormat = "ibercaja"
	FormatTradeRepublic BankFormat = "traderepublic"
)

// maxProbeLines bounds how much of the file detection looks at.
const maxProbeLines = 10

// Ibercaja exports open with a fixed preamble; the title sits on line 2 and
// the column header on line 6.
const (
	ibercajaTitle       = "Consulta Movimientos de la Cuenta"
	ibercajaTitleLine   = 2
	ibercajaHeaderLine  = 6
	IbercajaOrderColumn = "Nº Orden"
	ibercajaDateColumn  = "Fecha Oper"
)

// TradeRepublicHeader is the fixed first line of a Trade Republic export.
const TradeRepublicHeader = "timestamp;formatted_timestamp;title;subtitle;value;currency"

const tradeRepublicPrefix = "timestamp;formatted_timestamp;title"

// Valid reports whether f is one of the known formats.
func (f BankFormat) Valid() bool {
	switch f {
	case FormatGeneric, FormatIbercaja, FormatTradeRepublic:
		return true
	}
	return false
}

func (f BankFormat) String() string { return string(f) }

// DetectFormat inspects the first lines of text and returns the bank format.
// Text without a known fingerprint is generic.
func DetectFormat(text string) BankFormat {
	lines := ProbeLines(text, maxProbeLines)

	if len(lines) > ibercajaTitleLine && strings.Contains(lines[ibercajaTitleLine], ibercajaTitle) {
		return FormatIbercaja
	}
	if len(lines) > ibercajaHeaderLine {
		header := lines[ibercajaHeaderLine]
		if strings.Contains(header, IbercajaOrderColumn) && strings.Contains(header, ibercajaDateColumn) {
			return FormatIbercaja
		}
	}

	for i, line := range lines {
		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), tradeRepublicPrefix) {
			return FormatTradeRepublic
		}
		break
	}

	return FormatGeneric
}

// ProbeLines splits text on newlines and returns at most n lines.
func ProbeLines(text string, n int) []string {
	lines := strings.SplitN(text, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}

// FindHeaderLine returns the index of the first line containing marker, or -1.
func FindHeaderLine(lines []string, marker string) int {
	for i, line := range lines {
		if strings.Contains(line, marker) {
			return i
		}
	}
	return -1
}

// FirstNonEmptyLine returns the index and cleaned content of the first line
// that has any content, or -1 when every line is blank.
func FirstNonEmptyLine(lines []string) (int, string) {
	for i, line := range lines {
		if cleaned := cleanLine(line, i == 0); cleaned != "" {
			return i, cleaned
		}
	}
	return -1, ""
}

// DetectDelimiter picks the candidate delimiter that occurs most often in line.
// It falls back to ',' when none occurs.
func DetectDelimiter(line string) rune {
	d, count := detectDelimiter(line)
	if count == 0 {
		return ','
	}
	return d
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

func detectDelimiter(line string) (rune, int) {
	delimiters := []rune{';', '\t', ',', '|'}
	bestDelimiter := rune(0)
	bestCount := 0
	for _, d := range delimiters {
		count := strings.Count(line, string(d))
		if count > bestCount {
			bestCount = count
			bestDelimiter = d
		}
	}
	return bestDelimiter, bestCount
}
