// Package expense holds the normalized expense record and its persistence.
package expense

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultCategory is assigned to every record whose source gives no category.
const DefaultCategory = "Uncategorized"

var (
	ErrNotFound     = errors.New("expense not found")
	ErrEmptyPatch   = errors.New("no fields to update")
	ErrUnknownLabel = errors.New("unknown category or subcategory")
)

// Expense is one normalized statement line.
// Parsers only fill Date through Tags; the persisted fields stay zero until stored.
type Expense struct {
	ID          uuid.UUID  `json:"id,omitzero"`
	Date        string     `json:"date"` // YYYY-MM-DD
	Description string     `json:"description"`
	Amount      float64    `json:"amount"` // Negative = money out
	Category    string     `json:"category"`
	Subcategory *string    `json:"subcategory,omitempty"`
	Currency    string     `json:"currency"`
	Account     *string    `json:"account,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Patch carries the mutable fields of an expense. Nil fields are left untouched.
type Patch struct {
	Description *string  `json:"description,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Subcategory *string  `json:"subcategory,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Description == nil && p.Amount == nil && p.Category == nil &&
		p.Subcategory == nil && p.Tags == nil
}

// ImportResult reports the outcome of persisting a batch of parsed expenses.
type ImportResult struct {
	Success        bool      `json:"success"`
	Data           []Expense `json:"data,omitempty"`
	Errors         []string  `json:"errors,omitempty"`
	TotalProcessed int       `json:"totalProcessed"`
	TotalImported  int       `json:"totalImported"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
