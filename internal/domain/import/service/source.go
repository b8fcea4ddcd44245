package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/FACorreiaa/expense-importer/internal/domain/import/sniffer"
)

// Source is a named statement whose text can be decoded on demand.
type Source interface {
	Name() string
	Text(ctx context.Context) (string, error)
}

// File is an uploaded statement held in memory. BankFormat, when set, skips
// detection for CSV files; JSON files ignore it.
type File struct {
	Filename   string
	Data       []byte
	BankFormat sniffer.BankFormat
}

// formatOverride is implemented by sources that already know their dialect.
type formatOverride interface {
	Format() sniffer.BankFormat
}

var (
	_ Source         = File{}
	_ formatOverride = File{}
)

func (f File) Name() string { return f.Filename }

func (f File) Format() sniffer.BankFormat { return f.BankFormat }

// Text decodes the file as UTF-8, falling back to Windows-1252 for bytes that
// are not valid UTF-8. Spanish bank exports are commonly cp1252.
func (f File) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return DecodeText(f.Data)
}

// DecodeText turns raw statement bytes into text. A leading BOM is kept; the
// detector and parsers strip it.
func DecodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode statement: %w", err)
	}
	return string(decoded), nil
}

// fileTypeOf returns the lower-cased text after the last "." of name, or the
// whole name when it has no ".".
func fileTypeOf(name string) FileType {
	return FileType(strings.ToLower(name[strings.LastIndex(name, ".")+1:]))
}
