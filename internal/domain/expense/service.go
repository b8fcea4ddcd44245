package expense

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/expense-importer/internal/domain/categorization"
)

const (
	DefaultListLimit          = 100
	DefaultUncategorizedLimit = 10

	tracerName = "github.com/FACorreiaa/expense-importer/internal/domain/expense"
)

// Store is the persistence the service depends on. *Repository implements it.
type Store interface {
	InsertBatch(ctx context.Context, expenses []Expense) ([]Expense, error)
	List(ctx context.Context, limit, offset int) ([]Expense, error)
	ListUncategorized(ctx context.Context, limit int) ([]Expense, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	Update(ctx context.Context, id uuid.UUID, p Patch) (*Expense, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Cache holds serialized listings. Misses and failures look the same to callers.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte)
	Invalidate(ctx context.Context)
}

// Labels resolves user-entered category and subcategory names.
type Labels interface {
	ResolveCategory(name string) (categorization.Category, error)
	ResolveSubcategory(category, name string) (categorization.Subcategory, error)
}

// Service exposes the expense store operations.
type Service struct {
	store  Store
	labels Labels
	cache  Cache
	tracer trace.Tracer
	logger *slog.Logger
}

// NewService creates a new expense service
func NewService(store Store, labels Labels, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		labels: labels,
		tracer: otel.Tracer(tracerName),
		logger: logger,
	}
}

// WithCache enables cached listings.
func (s *Service) WithCache(c Cache) *Service {
	s.cache = c
	return s
}

// ImportExpenses persists a parsed batch. It never returns an error: failures
// are reported in the result with nothing imported.
func (s *Service) ImportExpenses(ctx context.Context, expenses []Expense) ImportResult {
	ctx, span := s.tracer.Start(ctx, "expense.ImportExpenses",
		trace.WithAttributes(attribute.Int("expenses.count", len(expenses))))
	defer span.End()

	if len(expenses) == 0 {
		return ImportResult{Success: true, Data: []Expense{}}
	}

	s.logger.InfoContext(ctx, "importing expenses", slog.Int("count", len(expenses)))

	stored, err := s.store.InsertBatch(ctx, expenses)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "failed to import expenses", slog.Any("error", err))
		return ImportResult{
			Success:        false,
			Errors:         []string{err.Error()},
			TotalProcessed: len(expenses),
		}
	}

	s.invalidate(ctx)
	return ImportResult{
		Success:        true,
		Data:           stored,
		TotalProcessed: len(expenses),
		TotalImported:  len(stored),
	}
}

// List returns a page of expenses, newest first. A non-positive limit means
// DefaultListLimit.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Expense, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	key := fmt.Sprintf("list:%d:%d", limit, offset)
	return s.cached(ctx, key, func() ([]Expense, error) {
		return s.store.List(ctx, limit, offset)
	})
}

// ListUncategorized returns the newest expenses still needing a category.
func (s *Service) ListUncategorized(ctx context.Context, limit int) ([]Expense, error) {
	if limit <= 0 {
		limit = DefaultUncategorizedLimit
	}

	key := fmt.Sprintf("uncategorized:%d", limit)
	return s.cached(ctx, key, func() ([]Expense, error) {
		return s.store.ListUncategorized(ctx, limit)
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Expense, error) {
	return s.store.GetByID(ctx, id)
}

// Update applies a patch. Category and subcategory names are resolved against
// the catalog and stored under their canonical names; DefaultCategory is
// always accepted.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p Patch) (*Expense, error) {
	ctx, span := s.tracer.Start(ctx, "expense.Update",
		trace.WithAttributes(attribute.String("expense.id", id.String())))
	defer span.End()

	if p.IsEmpty() {
		return nil, ErrEmptyPatch
	}

	if err := s.resolveLabels(ctx, id, &p); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, id, p)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.invalidate(ctx)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) resolveLabels(ctx context.Context, id uuid.UUID, p *Patch) error {
	category := ""
	if p.Category != nil {
		name := strings.TrimSpace(*p.Category)
		if name == "" || strings.EqualFold(name, DefaultCategory) {
			name = DefaultCategory
		} else {
			cat, err := s.labels.ResolveCategory(name)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrUnknownLabel, err)
			}
			name = cat.Name
		}
		p.Category = &name
		category = name
	}

	if p.Subcategory == nil {
		return nil
	}
	name := strings.TrimSpace(*p.Subcategory)
	if name == "" {
		p.Subcategory = &name
		return nil
	}

	if p.Category == nil {
		current, err := s.store.GetByID(ctx, id)
		if err != nil {
			return err
		}
		category = current.Category
	}
	if category == DefaultCategory {
		category = ""
	}

	sub, err := s.labels.ResolveSubcategory(category, name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnknownLabel, err)
	}
	p.Subcategory = &sub.Name
	return nil
}

func (s *Service) cached(ctx context.Context, key string, load func() ([]Expense, error)) ([]Expense, error) {
	if s.cache != nil {
		if payload, ok := s.cache.Get(ctx, key); ok {
			var expenses []Expense
			if err := json.Unmarshal(payload, &expenses); err == nil {
				return expenses, nil
			}
			s.logger.WarnContext(ctx, "discarding unreadable cache entry", slog.String("key", key))
		}
	}

	expenses, err := load()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(expenses); err == nil {
			s.cache.Set(ctx, key, payload)
		}
	}
	return expenses, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
