package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/expense-importer/internal/domain/expense"
	importservice "github.com/FACorreiaa/expense-importer/internal/domain/import/service"
	"github.com/FACorreiaa/expense-importer/internal/domain/import/sniffer"
	"github.com/FACorreiaa/expense-importer/pkg/api"
	"github.com/FACorreiaa/expense-importer/pkg/storage"
)

const defaultMaxUploadBytes = 10 << 20

// Processor parses uploaded statements.
type Processor interface {
	ProcessFile(ctx context.Context, f importservice.File) (*importservice.FileProcessingResult, error)
}

// Importer persists parsed expenses.
type Importer interface {
	ImportExpenses(ctx context.Context, expenses []expense.Expense) expense.ImportResult
}

// ImportResponse is the body of a successful upload.
type ImportResponse struct {
	Result  *importservice.FileProcessingResult `json:"result"`
	Summary *importservice.Summary              `json:"summary"`
	Upload  *storage.FileInfo                   `json:"upload,omitempty"`
	Import  *expense.ImportResult               `json:"import,omitempty"`
}

// ImportHandler handles statement uploads
type ImportHandler struct {
	importSvc      Processor
	importer       Importer
	storage        storage.Storage
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(importSvc Processor, importer Importer, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importSvc:      importSvc,
		importer:       importer,
		maxUploadBytes: defaultMaxUploadBytes,
		logger:         logger,
	}
}

// WithStorage archives every accepted upload.
func (h *ImportHandler) WithStorage(s storage.Storage) *ImportHandler {
	h.storage = s
	return h
}

func (h *ImportHandler) WithMaxUploadBytes(n int64) *ImportHandler {
	if n > 0 {
		h.maxUploadBytes = n
	}
	return h
}

// Routes mounts the upload endpoint and the archive readers.
func (h *ImportHandler) Routes(r chi.Router) {
	r.Post("/imports", h.Upload)
	r.Route("/uploads/{id}", func(r chi.Router) {
		r.Get("/", h.DownloadUpload)
		r.Get("/metadata", h.UploadInfo)
	})
}

// Upload handles POST /api/imports. The statement is sent as the multipart
// field "file"; ?commit=true also stores the valid expenses and ?format=
// forces a CSV dialect instead of detecting it.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	commit := false
	if v := r.URL.Query().Get("commit"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid_parameter", "Invalid commit flag")
			return
		}
		commit = parsed
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.WriteError(w, http.StatusRequestEntityTooLarge, "file_too_large", "Uploaded file exceeds the size limit")
			return
		}
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Failed to parse multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_parameter", "Missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Failed to read file")
		return
	}

	ctx := r.Context()
	result, err := h.importSvc.ProcessFile(ctx, importservice.File{
		Filename:   header.Filename,
		Data:       data,
		BankFormat: sniffer.BankFormat(r.URL.Query().Get("format")),
	})
	if err != nil {
		h.writeProcessError(w, err)
		return
	}

	summary, err := importservice.Summarize(result.Expenses)
	if err != nil {
		h.logger.Error("failed to summarize import", slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to summarize import")
		return
	}

	resp := ImportResponse{Result: result, Summary: summary}

	if h.storage != nil {
		info, err := h.storage.Upload(ctx, header.Filename, header.Header.Get("Content-Type"), bytes.NewReader(data))
		if err != nil {
			h.logger.Warn("failed to archive upload",
				slog.String("file", header.Filename),
				slog.Any("error", err),
			)
		} else {
			resp.Upload = info
		}
	}

	if commit {
		imported := h.importer.ImportExpenses(ctx, result.Expenses)
		resp.Import = &imported
	}

	api.WriteJSON(w, http.StatusOK, resp)
}

func (h *ImportHandler) writeProcessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, importservice.ErrUnsupportedFileType):
		api.WriteError(w, http.StatusUnsupportedMediaType, "unsupported_file_type", err.Error())
	case errors.Is(err, importservice.ErrMalformedJSON):
		api.WriteError(w, http.StatusBadRequest, "malformed_json", err.Error())
	case errors.Is(err, importservice.ErrUnknownBankFormat):
		api.WriteError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
	default:
		h.logger.Error("failed to process statement", slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to process file")
	}
}

// DownloadUpload handles GET /api/uploads/{id} and streams the archived file.
func (h *ImportHandler) DownloadUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uploadID(w, r)
	if !ok {
		return
	}

	rc, info, err := h.storage.Download(r.Context(), id)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.Name}))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream upload", slog.String("id", id.String()), slog.Any("error", err))
	}
}

// UploadInfo handles GET /api/uploads/{id}/metadata.
func (h *ImportHandler) UploadInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uploadID(w, r)
	if !ok {
		return
	}

	info, err := h.storage.GetInfo(r.Context(), id)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, info)
}

// uploadID validates the path id; without an archive every id is unknown.
func (h *ImportHandler) uploadID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_parameter", "Invalid upload id")
		return uuid.Nil, false
	}
	if h.storage == nil {
		api.WriteError(w, http.StatusNotFound, "not_found", "Upload archiving is disabled")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ImportHandler) writeStorageError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrFileNotFound) {
		api.WriteError(w, http.StatusNotFound, "not_found", "Upload not found")
		return
	}
	h.logger.Error("failed to read upload", slog.Any("error", err))
	api.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to read upload")
}
