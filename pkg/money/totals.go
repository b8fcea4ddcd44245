package money

import (
	"slices"
)

// Totals sums the income and spending of one currency.
type Totals struct {
	Currency string `json:"currency"`
	Income   *Money `json:"income"`
	Expenses *Money `json:"expenses"` // absolute value of money out
	Net      *Money `json:"net"`
	Count    int    `json:"count"`
}

// Ledger accumulates signed amounts per currency. The zero value is ready to use.
// A Ledger is not safe for concurrent use.
type Ledger struct {
	byCode map[string]*Totals
}

// Add records one signed amount in major units. Zero amounts are counted but
// add to neither side.
func (l *Ledger) Add(amount float64, currencyCode string) error {
	if l.byCode == nil {
		l.byCode = make(map[string]*Totals)
	}

	code := normalizeCode(currencyCode)
	t, ok := l.byCode[code]
	if !ok {
		t = &Totals{Currency: code, Income: Zero(code), Expenses: Zero(code), Net: Zero(code)}
		l.byCode[code] = t
	}

	value := NewFromFloat(amount, code)
	net, err := t.Net.Add(value)
	if err != nil {
		return err
	}
	t.Net = net
	t.Count++

	switch {
	case value.IsNegative():
		t.Expenses, err = t.Expenses.Add(value.Abs())
	case !value.IsZero():
		t.Income, err = t.Income.Add(value)
	}
	return err
}

// Totals returns one entry per currency, sorted by currency code.
func (l *Ledger) Totals() []Totals {
	out := make([]Totals, 0, len(l.byCode))
	for _, t := range l.byCode {
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b Totals) int {
		if a.Currency < b.Currency {
			return -1
		}
		if a.Currency > b.Currency {
			return 1
		}
		return 0
	})
	return out
}
