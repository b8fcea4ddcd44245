package expense

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const expenseColumns = `id, to_char(date, 'YYYY-MM-DD'), description, amount,
	COALESCE(category, ''), subcategory, currency, account, tags, created_at, updated_at`

// Repository handles database operations for expenses
type Repository struct {
	db DB
}

// NewRepository creates a new expense repository
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// InsertBatch stores expenses in one transaction and returns them with their
// generated id and timestamps.
func (r *Repository) InsertBatch(ctx context.Context, expenses []Expense) ([]Expense, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO expenses (id, date, description, amount, category, subcategory, currency, account, tags)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	stored := make([]Expense, 0, len(expenses))
	for i, e := range expenses {
		e.ID = uuid.New()
		if err := tx.QueryRow(ctx, query,
			e.ID, e.Date, e.Description, e.Amount, e.Category,
			e.Subcategory, e.Currency, e.Account, e.Tags,
		).Scan(&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to insert expense %d: %w", i+1, err)
		}
		stored = append(stored, e)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit expenses: %w", err)
	}
	return stored, nil
}

// List returns expenses newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Expense, error) {
	query := `SELECT ` + expenseColumns + `
		FROM expenses
		ORDER BY date DESC, created_at DESC
		LIMIT $1 OFFSET $2
	`
	return r.query(ctx, query, limit, offset)
}

// ListUncategorized returns expenses with no usable category, newest first.
func (r *Repository) ListUncategorized(ctx context.Context, limit int) ([]Expense, error) {
	query := `SELECT ` + expenseColumns + `
		FROM expenses
		WHERE category IS NULL OR category = '' OR category = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2
	`
	return r.query(ctx, query, DefaultCategory, limit)
}

// GetByID fetches a single expense.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

	e, err := scanExpense(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// Update applies the non-nil fields of p and bumps updated_at.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p Patch) (*Expense, error) {
	query := `
		UPDATE expenses SET
			description = COALESCE($2, description),
			amount      = COALESCE($3, amount),
			category    = COALESCE($4, category),
			subcategory = COALESCE($5, subcategory),
			tags        = COALESCE($6, tags),
			updated_at  = now()
		WHERE id = $1
		RETURNING ` + expenseColumns

	e, err := scanExpense(r.db.QueryRow(ctx, query,
		id, p.Description, p.Amount, p.Category, p.Subcategory, p.Tags))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// Delete removes an expense.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Expense, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

func scanExpense(row pgx.Row) (*Expense, error) {
	var e Expense
	if err := row.Scan(
		&e.ID,
		&e.Date,
		&e.Description,
		&e.Amount,
		&e.Category,
		&e.Subcategory,
		&e.Currency,
		&e.Account,
		&e.Tags,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}
