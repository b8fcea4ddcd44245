// Package handler exposes the expense store over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/expense-importer/internal/domain/categorization"
	"github.com/FACorreiaa/expense-importer/internal/domain/expense"
	"github.com/FACorreiaa/expense-importer/pkg/api"
)

// ExpenseService is the subset of *expense.Service the handler uses.
type ExpenseService interface {
	List(ctx context.Context, limit, offset int) ([]expense.Expense, error)
	ListUncategorized(ctx context.Context, limit int) ([]expense.Expense, error)
	Get(ctx context.Context, id uuid.UUID) (*expense.Expense, error)
	Update(ctx context.Context, id uuid.UUID, p expense.Patch) (*expense.Expense, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryLister lists the reference categories.
type CategoryLister interface {
	Categories() []categorization.Category
}

// ExpenseHandler handles expense and category requests
type ExpenseHandler struct {
	svc        ExpenseService
	categories CategoryLister
	logger     *slog.Logger
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(svc ExpenseService, categories CategoryLister, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{svc: svc, categories: categories, logger: logger}
}

// Routes mounts the handler under /api.
func (h *ExpenseHandler) Routes(r chi.Router) {
	r.Get("/categories", h.Categories)
	r.Route("/expenses", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/uncategorized", h.Uncategorized)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /api/expenses?limit=&offset=
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}

	expenses, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		h.serverError(w, "failed to list expenses", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

// Uncategorized handles GET /api/expenses/uncategorized?limit=
func (h *ExpenseHandler) Uncategorized(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	expenses, err := h.svc.ListUncategorized(r.Context(), limit)
	if err != nil {
		h.serverError(w, "failed to list uncategorized expenses", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

// Get handles GET /api/expenses/{id}
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	e, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, "failed to get expense", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, e)
}

// Update handles PATCH /api/expenses/{id}
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var patch expense.Patch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	e, err := h.svc.Update(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, "failed to update expense", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, e)
}

// Delete handles DELETE /api/expenses/{id}
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, "failed to delete expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Categories handles GET /api/categories
func (h *ExpenseHandler) Categories(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]any{"categories": h.categories.Categories()})
}

func (h *ExpenseHandler) writeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, expense.ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, expense.ErrEmptyPatch), errors.Is(err, expense.ErrUnknownLabel):
		api.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		h.serverError(w, msg, err)
	}
}

func (h *ExpenseHandler) serverError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	api.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_parameter", "Invalid expense id")
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an optional non-negative integer parameter; zero means unset.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		api.WriteError(w, http.StatusBadRequest, "invalid_parameter", "Invalid "+name)
		return 0, false
	}
	return n, true
}
