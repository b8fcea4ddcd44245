package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/expense-importer/internal/domain/expense"
	importservice "github.com/FACorreiaa/expense-importer/internal/domain/import/service"
	"github.com/FACorreiaa/expense-importer/pkg/storage"
)

type recordingImporter struct {
	calls    int
	received []expense.Expense
}

func (r *recordingImporter) ImportExpenses(_ context.Context, expenses []expense.Expense) expense.ImportResult {
	r.calls++
	r.received = expenses
	return expense.ImportResult{Success: true, TotalProcessed: len(expenses), TotalImported: len(expenses)}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(importer Importer) *ImportHandler {
	return NewImportHandler(importservice.NewImportService(nil, discardLogger()), importer, discardLogger())
}

func uploadRequest(t *testing.T, target, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const genericCSV = "date,description,amount,category\n" +
	"2024-01-15,Salary,1500,Income\n" +
	"2024-01-16,Groceries,-45.20,\n" +
	"bad,Broken,1,\n"

func TestUpload_ProcessesWithoutCommit(t *testing.T) {
	importer := &recordingImporter{}
	rec := httptest.NewRecorder()

	newTestHandler(importer).Upload(rec, uploadRequest(t, "/api/imports", "statement.csv", genericCSV))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, importer.calls)

	var resp struct {
		Result struct {
			Expenses []expense.Expense      `json:"expenses"`
			Errors   []string               `json:"errors"`
			Metadata importservice.Metadata `json:"metadata"`
		} `json:"result"`
		Summary struct {
			Uncategorized int    `json:"uncategorized"`
			EarliestDate  string `json:"earliestDate"`
		} `json:"summary"`
		Import *expense.ImportResult `json:"import"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Len(t, resp.Result.Expenses, 2)
	assert.Equal(t, []string{"Row 3: Missing or invalid date"}, resp.Result.Errors)
	assert.Equal(t, 3, resp.Result.Metadata.TotalRows)
	assert.Equal(t, 1, resp.Summary.Uncategorized)
	assert.Equal(t, "2024-01-15", resp.Summary.EarliestDate)
	assert.Nil(t, resp.Import)
}

func TestUpload_CommitPersistsValidRows(t *testing.T) {
	importer := &recordingImporter{}
	rec := httptest.NewRecorder()

	newTestHandler(importer).Upload(rec, uploadRequest(t, "/api/imports?commit=true", "statement.csv", genericCSV))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, importer.calls)
	assert.Len(t, importer.received, 2)
	assert.Contains(t, rec.Body.String(), `"totalImported":2`)
}

func TestUpload_ArchivesAcceptedFiles(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	rec := httptest.NewRecorder()

	newTestHandler(&recordingImporter{}).WithStorage(store).
		Upload(rec, uploadRequest(t, "/api/imports", "statement.csv", genericCSV))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Upload *storage.FileInfo `json:"upload"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Upload)
	assert.NotEqual(t, uuid.Nil, resp.Upload.ID)

	files, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		filename string
		content  string
		status   int
		code     string
	}{
		{"unsupported type", "/api/imports", "statement.txt", "hello", http.StatusUnsupportedMediaType, "unsupported_file_type"},
		{"malformed json", "/api/imports", "statement.json", "{nope", http.StatusBadRequest, "malformed_json"},
		{"bad commit flag", "/api/imports?commit=maybe", "statement.csv", genericCSV, http.StatusBadRequest, "invalid_parameter"},
		{"unknown bank format", "/api/imports?format=ofx", "statement.csv", genericCSV, http.StatusBadRequest, "invalid_parameter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestHandler(&recordingImporter{}).Upload(rec, uploadRequest(t, tt.target, tt.filename, tt.content))

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":"`+tt.code+`"`)
		})
	}
}

func TestUpload_MissingFile(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/imports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	newTestHandler(&recordingImporter{}).Upload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_TooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	h := newTestHandler(&recordingImporter{}).WithMaxUploadBytes(64)

	h.Upload(rec, uploadRequest(t, "/api/imports", "big.csv", strings.Repeat("x", 4096)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUpload_FormatOverride(t *testing.T) {
	body := "value;title;timestamp\n-4.20;Carrefour Express;2025-07-01T08:00:00Z\n"
	rec := httptest.NewRecorder()

	newTestHandler(&recordingImporter{}).Upload(rec, uploadRequest(t, "/api/imports?format=traderepublic", "tr.csv", body))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Result struct {
			Expenses []expense.Expense      `json:"expenses"`
			Metadata importservice.Metadata `json:"metadata"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, "traderepublic", resp.Result.Metadata.BankFormat)
	require.Len(t, resp.Result.Expenses, 1)
}

func newArchiveRouter(t *testing.T) (http.Handler, storage.Storage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	r := chi.NewRouter()
	newTestHandler(&recordingImporter{}).WithStorage(store).Routes(r)
	return r, store
}

func TestUploads_DownloadAndMetadata(t *testing.T) {
	router, store := newArchiveRouter(t)
	info, err := store.Upload(context.Background(), "statement.csv", "text/csv", strings.NewReader(genericCSV))
	require.NoError(t, err)

	t.Run("download streams the archived file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/"+info.ID.String(), nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, genericCSV, rec.Body.String())
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename=statement.csv`, rec.Header().Get("Content-Disposition"))
	})

	t.Run("metadata", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/"+info.ID.String()+"/metadata", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var got storage.FileInfo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, info.ID, got.ID)
		assert.Equal(t, "statement.csv", got.Name)
		assert.Equal(t, int64(len(genericCSV)), got.Size)
	})
}

func TestUploads_Errors(t *testing.T) {
	router, _ := newArchiveRouter(t)

	disabled := chi.NewRouter()
	newTestHandler(&recordingImporter{}).Routes(disabled)

	tests := []struct {
		name   string
		router http.Handler
		target string
		status int
	}{
		{"unknown id", router, "/uploads/" + uuid.NewString(), http.StatusNotFound},
		{"unknown id metadata", router, "/uploads/" + uuid.NewString() + "/metadata", http.StatusNotFound},
		{"invalid id", router, "/uploads/not-a-uuid", http.StatusBadRequest},
		{"archiving disabled", disabled, "/uploads/" + uuid.NewString(), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
