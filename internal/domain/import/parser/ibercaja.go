package parser

import (
	"regexp"
	"slices"
	"strings"

	"github.com/FACorreiaa/expense-importer/internal/domain/categorization"
	"github.com/FACorreiaa/expense-importer/internal/domain/expense"
	"github.com/FACorreiaa/expense-importer/internal/domain/import/normalizer"
	"github.com/FACorreiaa/expense-importer/internal/domain/import/sniffer"
)

// Ibercaja data row layout.
const (
	ibercajaColOrder = iota
	ibercajaColOperationDate
	ibercajaColValueDate
	ibercajaColConcept
	ibercajaColDescription
	ibercajaColReference
	ibercajaColAmount
	ibercajaColBalance
	ibercajaFieldCount
)

const ibercajaCurrency = "EUR"

var ibercajaReferenceRules = []categorization.Rule{
	{Keyword: "BIZUM", Tag: TagBizum},
	{Keyword: "TRANSFERENCIA", Tag: TagTransfer},
}

var referenceNumber = regexp.MustCompile(`\d{8,}`)

// IbercajaParser reads the "Consulta Movimientos" export of Ibercaja online banking.
type IbercajaParser struct {
	keywords *categorization.Engine
}

func NewIbercajaParser() *IbercajaParser {
	return &IbercajaParser{keywords: categorization.NewEngine(ibercajaReferenceRules)}
}

// Parse skips the preamble up to the "Nº Orden" header and maps every later
// non-blank row. Row numbers are record positions in the file, counted from 1.
func (p *IbercajaParser) Parse(text string) Result {
	var result Result

	lines := strings.Split(text, "\n")
	headerLine := sniffer.FindHeaderLine(lines, sniffer.IbercajaOrderColumn)
	if headerLine < 0 {
		result.Errors = append(result.Errors, RowError{Row: 0, Reason: ReasonNoIbercajaHeader})
		return result
	}

	records := readRecords(text, sniffer.DetectDelimiter(lines[headerLine]))
	headerIdx := slices.IndexFunc(records, func(record []string) bool {
		return slices.ContainsFunc(record, func(cell string) bool {
			return strings.Contains(cell, sniffer.IbercajaOrderColumn)
		})
	})
	if headerIdx < 0 {
		result.Errors = append(result.Errors, RowError{Row: 0, Reason: ReasonNoIbercajaHeader})
		return result
	}

	for i := headerIdx + 1; i < len(records); i++ {
		record := records[i]
		if record == nil {
			result.add(nil, &RowError{Row: i + 1, Reason: ReasonInvalidData})
			continue
		}
		if isBlank(record) {
			continue
		}
		result.add(p.mapRow(i+1, record))
	}

	return result
}

func (p *IbercajaParser) mapRow(row int, fields []string) (*expense.Expense, *RowError) {
	if len(fields) < ibercajaFieldCount {
		return nil, &RowError{Row: row, Reason: ReasonInsufficientFields}
	}

	date, ok := normalizer.ParseDayMonthYear(fields[ibercajaColOperationDate])
	if !ok {
		return nil, &RowError{Row: row, Reason: ReasonBadDateFormat}
	}

	amount, ok := normalizer.ParseLocaleAmount(fields[ibercajaColAmount])
	if !ok {
		return nil, &RowError{Row: row, Reason: ReasonBadAmountFormat}
	}

	concept := fields[ibercajaColConcept] + " " + fields[ibercajaColDescription]
	description, ok := normalizer.SanitizeText(strings.TrimSpace(concept))
	if !ok {
		return nil, &RowError{Row: row, Reason: ReasonMissingDescription}
	}

	return &expense.Expense{
		Date:        normalizer.FormatDate(date),
		Description: description,
		Amount:      amount,
		Category:    expense.DefaultCategory,
		Currency:    ibercajaCurrency,
		Account:     expense.StringPtr(AccountIbercaja),
		Tags:        p.referenceTags(fields[ibercajaColReference]),
	}, nil
}

// referenceTags returns bizum, transfer and reference tags, in that order.
func (p *IbercajaParser) referenceTags(reference string) []string {
	if strings.TrimSpace(reference) == "" {
		return nil
	}

	tags := p.keywords.Tags(reference)
	if referenceNumber.MatchString(reference) {
		tags = append(tags, TagReference)
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
