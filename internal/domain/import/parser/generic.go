package parser

import (
	"strings"

	"github.com/FACorreiaa/expense-importer/internal/domain/expense"
	"github.com/FACorreiaa/expense-importer/internal/domain/import/normalizer"
	"github.com/FACorreiaa/expense-importer/internal/domain/import/sniffer"
)

// DefaultGenericCurrency applies when a generic row names no currency.
const DefaultGenericCurrency = "USD"

// Fields is one generic input row keyed by column (CSV) or property (JSON) name.
type Fields map[string]any

// Accepted spellings per logical field, first match wins.
var fieldAliases = struct {
	date, description, amount, category, currency, account, tags []string
}{
	date:        []string{"date", "Date", "transaction_date", "Transaction Date"},
	description: []string{"description", "Description", "memo", "Memo", "details", "Details"},
	amount:      []string{"amount", "Amount", "value", "Value", "total", "Total"},
	category:    []string{"category", "Category", "type", "Type"},
	currency:    []string{"currency", "Currency"},
	account:     []string{"account", "Account", "account_name", "Account Name"},
	tags:        []string{"tags", "Tags"},
}

// lookup returns the first alias holding a usable value. Empty strings,
// false and nulls count as absent.
func (f Fields) lookup(aliases []string) any {
	for _, key := range aliases {
		v, ok := f[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if val == "" {
				continue
			}
		case bool:
			if !val {
				continue
			}
		}
		return v
	}
	return nil
}

// MapRow validates one generic row and builds its record. Checks run in the
// order date, description, amount; the first failure is reported.
func MapRow(row int, f Fields) (*expense.Expense, *RowError) {
	date, ok := normalizer.ParseDate(f.lookup(fieldAliases.date))
	if !ok {
		return nil, &RowError{Row: row, Reason: ReasonInvalidDate}
	}

	description, ok := normalizer.SanitizeText(f.lookup(fieldAliases.description))
	if !ok {
		return nil, &RowError{Row: row, Reason: ReasonMissingDescription}
	}

	amount, ok := normalizer.ParseAmount(f.lookup(fieldAliases.amount))
	if !ok {
		return nil, &RowError{Row: row, Reason: ReasonInvalidAmount}
	}

	category, ok := normalizer.SanitizeText(f.lookup(fieldAliases.category))
	if !ok {
		category = expense.DefaultCategory
	}
	currency, ok := normalizer.SanitizeText(f.lookup(fieldAliases.currency))
	if !ok {
		currency = DefaultGenericCurrency
	}
	account, _ := normalizer.SanitizeText(f.lookup(fieldAliases.account))

	return &expense.Expense{
		Date:        normalizer.FormatDate(date),
		Description: description,
		Amount:      amount,
		Category:    category,
		Currency:    currency,
		Account:     expense.StringPtr(account),
		Tags:        normalizer.ParseTags(f.lookup(fieldAliases.tags)),
	}, nil
}

// MapValue maps a decoded JSON element. Anything but an object is invalid data.
func MapValue(row int, v any) (*expense.Expense, *RowError) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &RowError{Row: row, Reason: ReasonInvalidData}
	}
	return MapRow(row, Fields(obj))
}

// GenericParser reads a delimited file whose first non-blank line names the columns.
type GenericParser struct{}

func NewGenericParser() *GenericParser {
	return &GenericParser{}
}

// Parse maps every data row after the header. Rows are numbered from 1,
// counting data rows only.
func (p *GenericParser) Parse(text string) Result {
	var result Result

	text = stripBOM(text)
	_, headerLine := sniffer.FirstNonEmptyLine(strings.Split(text, "\n"))
	if headerLine == "" {
		return result
	}

	records := readRecords(text, sniffer.DetectDelimiter(headerLine))
	if len(records) == 0 {
		return result
	}

	var header []string
	row := 0
	for _, record := range records {
		if header == nil {
			if record == nil || isBlank(record) {
				continue
			}
			header = make([]string, len(record))
			for i, h := range record {
				header[i] = strings.TrimSpace(h)
			}
			continue
		}
		if record != nil && isEmptyLine(record) {
			continue
		}

		row++
		if record == nil {
			result.add(nil, &RowError{Row: row, Reason: ReasonInvalidData})
			continue
		}
		result.add(MapRow(row, zipFields(header, record)))
	}

	return result
}

// zipFields pairs header names with cell values. Duplicate names keep the
// first column; cells beyond the header are ignored.
func zipFields(header, record []string) Fields {
	f := make(Fields, len(header))
	for i, name := range header {
		if name == "" || i >= len(record) {
			continue
		}
		if _, exists := f[name]; exists {
			continue
		}
		f[name] = record[i]
	}
	return f
}
