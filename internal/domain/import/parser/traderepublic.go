package parser

import (
	"slices"
	"strings"

	"github.com/FACorreiaa/expense-importer/internal/domain/categorization"
	"github.com/FACorreiaa/expense-importer/internal/domain/expense"
	"github.com/FACorreiaa/expense-importer/internal/domain/import/normalizer"
)

const (
	tradeRepublicDelimiter = ';'
	tradeRepublicCurrency  = "EUR"
)

var tradeRepublicRules = []categorization.Rule{
	{Keyword: "Bizum", Tag: TagBizum},
	{Keyword: "Interest", Tag: TagInterest},
}

// TradeRepublicParser reads the transaction export of the Trade Republic app.
type TradeRepublicParser struct {
	keywords  *categorization.Engine
	merchants *normalizer.MerchantTagger
}

func NewTradeRepublicParser() *TradeRepublicParser {
	return &TradeRepublicParser{
		keywords:  categorization.NewEngine(tradeRepublicRules),
		merchants: normalizer.NewMerchantTagger(),
	}
}

// tradeRepublicColumns holds column positions resolved from the header; -1 when absent.
type tradeRepublicColumns struct {
	timestamp, title, subtitle, value, currency int
}

func (c tradeRepublicColumns) get(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// Parse maps every row after the header line. Rows are numbered from 1,
// counting data rows only.
func (p *TradeRepublicParser) Parse(text string) Result {
	var result Result

	records := readRecords(stripBOM(text), tradeRepublicDelimiter)

	var cols *tradeRepublicColumns
	row := 0
	for _, record := range records {
		if cols == nil {
			if record == nil || isBlank(record) {
				continue
			}
			cols = resolveTradeRepublicColumns(record)
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
		result.add(p.mapRow(row, *cols, record))
	}

	return result
}

func resolveTradeRepublicColumns(header []string) *tradeRepublicColumns {
	index := func(name string) int {
		return slices.IndexFunc(header, func(h string) bool {
			return strings.EqualFold(strings.TrimSpace(h), name)
		})
	}
	return &tradeRepublicColumns{
		timestamp: index("timestamp"),
		title:     index("title"),
		subtitle:  index("subtitle"),
		value:     index("value"),
		currency:  index("currency"),
	}
}

func (p *TradeRepublicParser) mapRow(row int, cols tradeRepublicColumns, record []string) (*expense.Expense, *RowError) {
	date, ok := normalizer.ParseTimestamp(cols.get(record, cols.timestamp))
	if !ok {
		return nil, &RowError{Row: row, Reason: ReasonBadDateFormat}
	}

	title := cols.get(record, cols.title)
	subtitle := cols.get(record, cols.subtitle)
	raw := title
	if subtitle != "" {
		raw = title + " - " + subtitle
	}
	description, ok := normalizer.SanitizeText(raw)
	if !ok {
		return nil, &RowError{Row: row, Reason: ReasonMissingDescription}
	}

	amount, ok := normalizer.ParsePlainAmount(cols.get(record, cols.value))
	if !ok {
		return nil, &RowError{Row: row, Reason: ReasonBadAmountFormat}
	}

	currency := strings.ToUpper(cols.get(record, cols.currency))
	if currency == "" {
		currency = tradeRepublicCurrency
	}

	return &expense.Expense{
		Date:        normalizer.FormatDate(date),
		Description: description,
		Amount:      amount,
		Category:    expense.DefaultCategory,
		Currency:    currency,
		Account:     expense.StringPtr(AccountTradeRepublic),
		Tags:        p.tags(title, subtitle),
	}, nil
}

// tags classifies a row: bizum and interest from keywords, then merchant tags
// from the title. The order is fixed and tags are unique.
func (p *TradeRepublicParser) tags(title, subtitle string) []string {
	var tags []string
	if p.keywords.Has(subtitle, TagBizum) {
		tags = append(tags, TagBizum)
	}
	if p.keywords.Has(title, TagInterest) || p.keywords.Has(subtitle, TagInterest) {
		tags = append(tags, TagInterest)
	}
	for _, tag := range p.merchants.Tags(title) {
		if !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
