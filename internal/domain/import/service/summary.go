package service

import (
	"fmt"

	"github.com/FACorreiaa/expense-importer/internal/domain/expense"
	"github.com/FACorreiaa/expense-importer/pkg/money"
)

// Summary contains computed totals for the records of one import.
type Summary struct {
	Totals        []money.Totals `json:"totals"`
	EarliestDate  string         `json:"earliestDate,omitempty"`
	LatestDate    string         `json:"latestDate,omitempty"`
	Uncategorized int            `json:"uncategorized"`
	TagCounts     map[string]int `json:"tagCounts,omitempty"`
}

// Summarize computes per-currency totals and the date range of expenses.
// Dates are ISO calendar dates, so string order is date order.
func Summarize(expenses []expense.Expense) (*Summary, error) {
	var ledger money.Ledger
	s := &Summary{}

	for _, e := range expenses {
		if err := ledger.Add(e.Amount, e.Currency); err != nil {
			return nil, fmt.Errorf("failed to total %s: %w", e.Currency, err)
		}
		if s.EarliestDate == "" || e.Date < s.EarliestDate {
			s.EarliestDate = e.Date
		}
		if e.Date > s.LatestDate {
			s.LatestDate = e.Date
		}
		if e.Category == "" || e.Category == expense.DefaultCategory {
			s.Uncategorized++
		}
		for _, tag := range e.Tags {
			if s.TagCounts == nil {
				s.TagCounts = make(map[string]int)
			}
			s.TagCounts[tag]++
		}
	}

	s.Totals = ledger.Totals()
	return s, nil
}
