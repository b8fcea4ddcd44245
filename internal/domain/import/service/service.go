// Package service provides the import orchestration logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/expense-importer/internal/domain/expense"
	"github.com/FACorreiaa/expense-importer/internal/domain/import/parser"
	"github.com/FACorreiaa/expense-importer/internal/domain/import/sniffer"
	"github.com/FACorreiaa/expense-importer/pkg/metrics"
)

const tracerName = "github.com/FACorreiaa/expense-importer/internal/domain/import/service"

var (
	ErrUnsupportedFileType = errors.New("Unsupported file type. Only CSV and JSON files are supported.")
	ErrMalformedJSON       = errors.New("JSON parsing error")
	ErrUnknownBankFormat   = errors.New("unknown bank format")
)

// FileType is the container format of an uploaded statement.
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeJSON FileType = "json"
)

// Metadata summarizes one processed file. ValidRows + InvalidRows == TotalRows.
type Metadata struct {
	TotalRows   int                `json:"totalRows"`
	ValidRows   int                `json:"validRows"`
	InvalidRows int                `json:"invalidRows"`
	FileType    FileType           `json:"fileType"`
	BankFormat  sniffer.BankFormat `json:"bankFormat,omitempty"` // empty for JSON
}

// FileProcessingResult holds the records and row errors of one file.
type FileProcessingResult struct {
	Expenses []expense.Expense
	Errors   []parser.RowError
	Metadata Metadata
}

// ErrorStrings renders the row errors as "Row N: reason" lines.
func (r *FileProcessingResult) ErrorStrings() []string {
	return parser.Result{Errors: r.Errors}.ErrorStrings()
}

func newResult(res parser.Result, fileType FileType, format sniffer.BankFormat) *FileProcessingResult {
	return &FileProcessingResult{
		Expenses: res.Expenses,
		Errors:   res.Errors,
		Metadata: Metadata{
			TotalRows:   res.TotalRows(),
			ValidRows:   len(res.Expenses),
			InvalidRows: len(res.Errors),
			FileType:    fileType,
			BankFormat:  format,
		},
	}
}

// ImportService turns uploaded statements into normalized records. It holds no
// per-call state and is safe for concurrent use.
type ImportService struct {
	registry parser.Registry
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewImportService creates a new import service
func NewImportService(registry parser.Registry, logger *slog.Logger) *ImportService {
	if registry == nil {
		registry = parser.NewRegistry()
	}
	return &ImportService{
		registry: registry,
		tracer:   otel.Tracer(tracerName),
		logger:   logger,
	}
}

// WithMetrics records per-file counters and timings.
func (s *ImportService) WithMetrics(m *metrics.Metrics) *ImportService {
	s.metrics = m
	return s
}

// ProcessFile parses an in-memory statement.
func (s *ImportService) ProcessFile(ctx context.Context, f File) (*FileProcessingResult, error) {
	return s.Process(ctx, f)
}

// Process dispatches on the file extension: CSV goes through format detection
// and the matching dialect parser, JSON through the generic row mapper.
// Unsupported types, decode failures and malformed JSON fail the whole file.
func (s *ImportService) Process(ctx context.Context, src Source) (*FileProcessingResult, error) {
	ctx, span := s.tracer.Start(ctx, "ImportService.Process",
		trace.WithAttributes(attribute.String("file.name", src.Name())))
	defer span.End()

	start := time.Now()
	fileType := fileTypeOf(src.Name())
	span.SetAttributes(attribute.String("file.type", string(fileType)))

	result, err := s.process(ctx, src, fileType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.ObserveFile(string(fileType), "", outcome(err), 0, 0, time.Since(start))
		s.logger.WarnContext(ctx, "statement rejected",
			slog.String("file", src.Name()),
			slog.Any("error", err),
		)
		return nil, err
	}

	md := result.Metadata
	span.SetAttributes(
		attribute.String("import.bank_format", string(md.BankFormat)),
		attribute.Int("import.rows_valid", md.ValidRows),
		attribute.Int("import.rows_invalid", md.InvalidRows),
	)
	s.metrics.ObserveFile(string(fileType), string(md.BankFormat), "ok", md.ValidRows, md.InvalidRows, time.Since(start))
	s.logger.InfoContext(ctx, "statement processed",
		slog.String("file", src.Name()),
		slog.String("file_type", string(md.FileType)),
		slog.String("bank_format", string(md.BankFormat)),
		slog.Int("total_rows", md.TotalRows),
		slog.Int("valid_rows", md.ValidRows),
		slog.Int("invalid_rows", md.InvalidRows),
	)
	return result, nil
}

func (s *ImportService) process(ctx context.Context, src Source, fileType FileType) (*FileProcessingResult, error) {
	if fileType != FileTypeCSV && fileType != FileTypeJSON {
		return nil, ErrUnsupportedFileType
	}

	var forced sniffer.BankFormat
	if o, ok := src.(formatOverride); ok && o.Format() != "" {
		forced = o.Format()
		if !forced.Valid() {
			return nil, fmt.Errorf("%w %q", ErrUnknownBankFormat, forced)
		}
	}

	text, err := src.Text(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.Name(), err)
	}

	if fileType == FileTypeJSON {
		res, err := parseJSON(text)
		if err != nil {
			return nil, err
		}
		return newResult(res, FileTypeJSON, ""), nil
	}

	format := forced
	if format == "" {
		format = sniffer.DetectFormat(text)
		s.logger.DebugContext(ctx, "detected bank format",
			slog.String("file", src.Name()),
			slog.String("bank_format", string(format)),
		)
	}

	p, err := s.registry.Lookup(format)
	if err != nil {
		return nil, err
	}
	return newResult(p.Parse(text), FileTypeCSV, format), nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedFileType):
		return "unsupported"
	case errors.Is(err, ErrMalformedJSON):
		return "malformed"
	case errors.Is(err, ErrUnknownBankFormat):
		return "unknown_format"
	default:
		return "error"
	}
}
