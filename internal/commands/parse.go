package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/expense-importer/internal/domain/expense"
	importservice "github.com/FACorreiaa/expense-importer/internal/domain/import/service"
	"github.com/FACorreiaa/expense-importer/internal/domain/import/sniffer"
)

type parseOptions struct {
	output   string
	format   string
	summary  bool
	logLevel string
}

func newParseCommand() *cobra.Command {
	opts := parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a statement file and print the normalized expenses",
		Long: `Parse a CSV or JSON statement. Ibercaja and Trade Republic exports are
detected automatically; any other CSV goes through the generic column mapper.

Row errors are printed to stderr in csv mode and included in the document
in json mode.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "json", "output format: json or csv")
	cmd.Flags().StringVar(&opts.format, "format", "", "skip detection and parse CSV as generic, ibercaja or traderepublic")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "print per-currency totals to stderr")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level for diagnostics on stderr")

	return cmd
}

func runParse(cmd *cobra.Command, path string, opts parseOptions) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	if opts.output != "json" && opts.output != "csv" {
		return fmt.Errorf("invalid --output %q: want json or csv", opts.output)
	}
	format := sniffer.BankFormat(opts.format)
	if format != "" && !format.Valid() {
		return fmt.Errorf("invalid --format %q: want %s, %s or %s",
			opts.format, sniffer.FormatGeneric, sniffer.FormatIbercaja, sniffer.FormatTradeRepublic)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	svc := importservice.NewImportService(nil, newLogger(cmd.ErrOrStderr(), level))
	result, err := svc.ProcessFile(cmd.Context(), importservice.File{
		Filename:   filepath.Base(path),
		Data:       data,
		BankFormat: format,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.output == "csv" {
		if err := writeCSV(out, result.Expenses); err != nil {
			return err
		}
		for _, line := range result.ErrorStrings() {
			fmt.Fprintln(cmd.ErrOrStderr(), line)
		}
	} else {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	}

	if opts.summary {
		summary, err := importservice.Summarize(result.Expenses)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.ErrOrStderr())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return nil
}

type csvRow struct {
	Date        string  `csv:"date"`
	Description string  `csv:"description"`
	Amount      float64 `csv:"amount"`
	Category    string  `csv:"category"`
	Subcategory string  `csv:"subcategory"`
	Currency    string  `csv:"currency"`
	Account     string  `csv:"account"`
	Tags        string  `csv:"tags"`
}

func writeCSV(w io.Writer, expenses []expense.Expense) error {
	rows := make([]csvRow, len(expenses))
	for i, e := range expenses {
		rows[i] = csvRow{
			Date:        e.Date,
			Description: e.Description,
			Amount:      e.Amount,
			Category:    e.Category,
			Subcategory: deref(e.Subcategory),
			Currency:    e.Currency,
			Account:     deref(e.Account),
			Tags:        strings.Join(e.Tags, "|"),
		}
	}
	return gocsv.Marshal(rows, w)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
