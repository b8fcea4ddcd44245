package expense

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/expense-importer/internal/domain/categorization"
)

// memoryStore is an in-memory Store.
type memoryStore struct {
	mu        sync.Mutex
	items     map[uuid.UUID]Expense
	insertErr error
	lists     int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: make(map[uuid.UUID]Expense)}
}

func (m *memoryStore) InsertBatch(_ context.Context, expenses []Expense) ([]Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		e.ID = uuid.New()
		m.items[e.ID] = e
		out = append(out, e)
	}
	return out, nil
}

func (m *memoryStore) List(_ context.Context, limit, offset int) ([]Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	out := []Expense{}
	for _, e := range m.items {
		out = append(out, e)
	}
	if offset >= len(out) {
		return []Expense{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) ListUncategorized(_ context.Context, limit int) ([]Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Expense{}
	for _, e := range m.items {
		if e.Category == "" || e.Category == DefaultCategory {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) GetByID(_ context.Context, id uuid.UUID) (*Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *memoryStore) Update(_ context.Context, id uuid.UUID, p Patch) (*Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Subcategory != nil {
		e.Subcategory = p.Subcategory
	}
	if p.Tags != nil {
		e.Tags = p.Tags
	}
	m.items[id] = e
	return &e, nil
}

func (m *memoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memoryCache struct {
	entries     map[string][]byte
	invalidated int
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *memoryCache) Set(_ context.Context, key string, payload []byte) {
	if c.entries == nil {
		c.entries = make(map[string][]byte)
	}
	c.entries[key] = payload
}

func (c *memoryCache) Invalidate(context.Context) {
	c.entries = nil
	c.invalidated++
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	catalog, err := categorization.DefaultCatalog()
	require.NoError(t, err)
	return NewService(store, catalog, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func fakeExpenses(n int) []Expense {
	faker := gofakeit.New(7)
	out := make([]Expense, n)
	for i := range out {
		out[i] = Expense{
			Date:        faker.Date().UTC().Format("2006-01-02"),
			Description: faker.Company(),
			Amount:      faker.Price(-500, 500),
			Category:    DefaultCategory,
			Currency:    "EUR",
		}
	}
	return out
}

func TestService_ImportExpenses(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(t, store)

	result := svc.ImportExpenses(context.Background(), fakeExpenses(5))

	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 5, result.TotalProcessed)
	assert.Equal(t, 5, result.TotalImported)
	require.Len(t, result.Data, 5)
	assert.NotEqual(t, uuid.Nil, result.Data[0].ID)
	assert.Len(t, store.items, 5)
}

func TestService_ImportExpenses_Empty(t *testing.T) {
	svc := newTestService(t, newMemoryStore())

	result := svc.ImportExpenses(context.Background(), nil)
	assert.Equal(t, ImportResult{Success: true, Data: []Expense{}}, result)
}

func TestService_ImportExpenses_StoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.insertErr = errors.New("connection refused")
	svc := newTestService(t, store)

	result := svc.ImportExpenses(context.Background(), fakeExpenses(3))

	assert.False(t, result.Success)
	assert.Equal(t, []string{"connection refused"}, result.Errors)
	assert.Equal(t, 3, result.TotalProcessed)
	assert.Zero(t, result.TotalImported)
	assert.Empty(t, result.Data)
}

func TestService_List_Defaults(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(t, store)
	svc.ImportExpenses(context.Background(), fakeExpenses(120))

	got, err := svc.List(context.Background(), 0, -3)
	require.NoError(t, err)
	assert.Len(t, got, DefaultListLimit)

	got, err = svc.ListUncategorized(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultUncategorizedLimit)
}

func TestService_ListIsCachedUntilWrite(t *testing.T) {
	store := newMemoryStore()
	cache := &memoryCache{}
	svc := newTestService(t, store).WithCache(cache)
	ctx := context.Background()

	imported := svc.ImportExpenses(ctx, fakeExpenses(2))
	require.True(t, imported.Success)

	first, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	second, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, store.lists)
	assert.ElementsMatch(t, first, second)
	assert.Contains(t, cache.entries, "list:10:0")

	require.NoError(t, svc.Delete(ctx, imported.Data[0].ID))
	assert.Nil(t, cache.entries)

	third, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, third, 1)
	assert.Equal(t, 2, store.lists)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	strPtr := func(s string) *string { return &s }

	tests := []struct {
		name            string
		patch           Patch
		wantCategory    string
		wantSubcategory *string
		wantErr         error
	}{
		{
			name:         "category resolved case-insensitively",
			patch:        Patch{Category: strPtr("housing")},
			wantCategory: "Housing",
		},
		{
			name:            "category and subcategory",
			patch:           Patch{Category: strPtr("Essentials"), Subcategory: strPtr("gas")},
			wantCategory:    "Essentials",
			wantSubcategory: strPtr("Gas"),
		},
		{
			name:         "default category accepted",
			patch:        Patch{Category: strPtr("uncategorized")},
			wantCategory: DefaultCategory,
		},
		{
			name:    "unknown category",
			patch:   Patch{Category: strPtr("zzzzqqqq")},
			wantErr: ErrUnknownLabel,
		},
		{
			name:    "unknown subcategory",
			patch:   Patch{Category: strPtr("Essentials"), Subcategory: strPtr("xylophone lessons")},
			wantErr: ErrUnknownLabel,
		},
		{
			name:    "empty patch",
			patch:   Patch{},
			wantErr: ErrEmptyPatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, newMemoryStore())
			imported := svc.ImportExpenses(ctx, fakeExpenses(1))
			require.True(t, imported.Success)
			id := imported.Data[0].ID

			got, err := svc.Update(ctx, id, tt.patch)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantSubcategory, got.Subcategory)
		})
	}
}

func TestService_Update_SubcategoryUsesStoredCategory(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	svc := newTestService(t, store)

	in := fakeExpenses(1)
	in[0].Category = "Housing"
	imported := svc.ImportExpenses(ctx, in)
	require.True(t, imported.Success)

	sub := "RENT"
	got, err := svc.Update(ctx, imported.Data[0].ID, Patch{Subcategory: &sub})
	require.NoError(t, err)
	require.NotNil(t, got.Subcategory)
	assert.Equal(t, "Rent", *got.Subcategory)
	assert.Equal(t, "Housing", got.Category)
}

func TestService_GetAndDelete_NotFound(t *testing.T) {
	svc := newTestService(t, newMemoryStore())
	id := uuid.New()

	_, err := svc.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), id), ErrNotFound)

	desc := "x"
	_, err = svc.Update(context.Background(), id, Patch{Description: &desc})
	assert.ErrorIs(t, err, ErrNotFound)
}
