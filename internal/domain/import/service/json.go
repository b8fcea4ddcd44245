package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/FACorreiaa/expense-importer/internal/domain/expense"
	"github.com/FACorreiaa/expense-importer/internal/domain/import/parser"
)

// Properties searched, in order, when the document is an object.
var jsonRowKeys = []string{"expenses", "data"}

// parseJSON maps a JSON statement: a top-level array of rows, or an object
// whose "expenses" or "data" property holds one. Rows are numbered from 1.
func parseJSON(text string) (parser.Result, error) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimPrefix(text, "\uFEFF")))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return parser.Result{}, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return parser.Result{}, fmt.Errorf("%w: unexpected data after top-level value", ErrMalformedJSON)
	}

	rows, err := jsonRows(doc)
	if err != nil {
		return parser.Result{}, err
	}

	var res parser.Result
	for i, row := range rows {
		exp, rowErr := parser.MapValue(i+1, row)
		if rowErr != nil {
			res.Errors = append(res.Errors, *rowErr)
			continue
		}
		res.Expenses = append(res.Expenses, *exp)
	}
	return res, nil
}

// jsonRows extracts the row list. Object properties holding a falsy value
// (null, false, 0, "") are skipped; any other scalar document has no rows.
func jsonRows(doc any) ([]any, error) {
	switch v := doc.(type) {
	case nil:
		return nil, fmt.Errorf("%w: top-level value is null", ErrMalformedJSON)
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range jsonRowKeys {
			value := v[key]
			if falsy(value) {
				continue
			}
			rows, ok := value.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: %q is not an array", ErrMalformedJSON, key)
			}
			return rows, nil
		}
		return nil, nil
	default:
		return nil, nil
	}
}

func falsy(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return !val
	case string:
		return val == ""
	case json.Number:
		f, err := val.Float64()
		return err == nil && f == 0
	default:
		return false
	}
}

// MarshalJSON renders row errors as "Row N: reason" strings and never emits
// null lists.
func (r FileProcessingResult) MarshalJSON() ([]byte, error) {
	expenses := r.Expenses
	if expenses == nil {
		expenses = []expense.Expense{}
	}
	return json.Marshal(struct {
		Expenses []expense.Expense `json:"expenses"`
		Errors   []string          `json:"errors"`
		Metadata Metadata          `json:"metadata"`
	}{
		Expenses: expenses,
		Errors:   r.ErrorStrings(),
		Metadata: r.Metadata,
	})
}
