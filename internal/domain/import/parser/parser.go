// Package parser turns decoded statement text into normalized expense records.
// Each bank format has its own Parser; a Registry dispatches on the detected format.
package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/FACorreiaa/expense-importer/internal/domain/expense"
	"github.com/FACorreiaa/expense-importer/internal/domain/import/sniffer"
)

// Row failure reasons. They are user-facing and stable.
const (
	ReasonInvalidDate        = "Missing or invalid date"
	ReasonMissingDescription = "Missing description"
	ReasonInvalidAmount      = "Missing or invalid amount"
	ReasonInvalidData        = "Invalid data"

	ReasonInsufficientFields = "Insufficient fields in row"
	ReasonBadDateFormat      = "Invalid date format"
	ReasonBadAmountFormat    = "Invalid amount format"
	ReasonNoIbercajaHeader   = "Could not find header line in Ibercaja CSV format"
)

// Tags attached by the bank dialects.
const (
	TagBizum     = "bizum"
	TagTransfer  = "transfer"
	TagReference = "reference"
	TagInterest  = "interest"
)

// Literal account labels of the bank dialects.
const (
	AccountIbercaja      = "Ibercaja"
	AccountTradeRepublic = "Trade Republic"
)

var ErrUnknownFormat = errors.New("no parser registered for format")

// RowError reports why one input row produced no record. Row is 1-based;
// Row 0 marks a failure that concerns the whole file rather than one row.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	if e.Row <= 0 {
		return e.Reason
	}
	return fmt.Sprintf("Row %d: %s", e.Row, e.Reason)
}

// Result holds the records and row errors of one parse, both in input order.
type Result struct {
	Expenses []expense.Expense
	Errors   []RowError
}

// TotalRows counts every data row that produced either a record or an error.
func (r Result) TotalRows() int {
	return len(r.Expenses) + len(r.Errors)
}

// ErrorStrings renders the row errors as "Row N: reason" lines.
func (r Result) ErrorStrings() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Error()
	}
	return out
}

func (r *Result) add(exp *expense.Expense, rowErr *RowError) {
	if rowErr != nil {
		r.Errors = append(r.Errors, *rowErr)
		return
	}
	if exp != nil {
		r.Expenses = append(r.Expenses, *exp)
	}
}

// Parser converts the full text of a delimited statement into records.
// Implementations are stateless and safe for concurrent use.
type Parser interface {
	Parse(text string) Result
}

// Registry maps each bank format to the parser that understands it.
type Registry map[sniffer.BankFormat]Parser

// NewRegistry returns a registry with every built-in format.
func NewRegistry() Registry {
	return Registry{
		sniffer.FormatGeneric:       NewGenericParser(),
		sniffer.FormatIbercaja:      NewIbercajaParser(),
		sniffer.FormatTradeRepublic: NewTradeRepublicParser(),
	}
}

// Lookup returns the parser for format.
func (r Registry) Lookup(format sniffer.BankFormat) (Parser, error) {
	p, ok := r[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return p, nil
}

// readRecords splits text into records. Blank lines are dropped by the reader;
// a malformed line is returned as nil so callers can keep row numbering intact.
func readRecords(text string, delimiter rune) [][]string {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				records = append(records, nil)
				continue
			}
			break
		}
		records = append(records, record)
	}
	return records
}

// isEmptyLine reports whether record came from a line with no content at all.
// Lines holding only delimiters or spaces are data rows.
func isEmptyLine(record []string) bool {
	return len(record) == 1 && record[0] == ""
}

// isBlank reports whether every cell of record is empty or whitespace.
func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
