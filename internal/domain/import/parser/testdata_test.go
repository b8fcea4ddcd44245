package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// statementGenerator builds realistic generic statement rows using gofakeit.
type statementGenerator struct {
	faker *gofakeit.Faker
}

func newStatementGenerator(seed int64) *statementGenerator {
	return &statementGenerator{faker: gofakeit.New(seed)}
}

var sampleCategories = []string{
	"Essentials", "Housing", "Fun", "Health", "Income", "Work", "Other",
}

var sampleDescriptions = []string{
	"Coffee and pastry",
	"Weekly groceries",
	"Gas station fill-up",
	"Online subscription",
	"Restaurant dinner",
	"Utility bill payment",
	"Gym membership",
	"Monthly salary deposit",
	"Dividend payment",
}

type generatedRow struct {
	Date        time.Time
	Description string
	Amount      float64
	Category    string
	Currency    string
	Account     string
}

func (g *statementGenerator) row() generatedRow {
	cents := g.faker.Number(-50000, 50000)
	return generatedRow{
		Date:        g.faker.DateRange(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)),
		Description: sampleDescriptions[g.faker.Number(0, len(sampleDescriptions)-1)] + " " + g.faker.Company(),
		Amount:      float64(cents) / 100,
		Category:    sampleCategories[g.faker.Number(0, len(sampleCategories)-1)],
		Currency:    g.faker.RandomString([]string{"EUR", "USD", "GBP"}),
		Account:     g.faker.RandomString([]string{"Checking", "Savings", ""}),
	}
}

// genericCSV renders n generated rows as a semicolon separated generic statement.
func (g *statementGenerator) genericCSV(n int) string {
	var b strings.Builder
	b.WriteString("Date;Description;Amount;Category;Currency;Account\n")
	for range n {
		r := g.row()
		fmt.Fprintf(&b, "%s;%s;%s;%s;%s;%s\n",
			r.Date.Format("2006-01-02"),
			strings.ReplaceAll(r.Description, ";", " "),
			strconv.FormatFloat(r.Amount, 'f', 2, 64),
			r.Category, r.Currency, r.Account)
	}
	return b.String()
}
