package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trStatement = "timestamp;formatted_timestamp;title;subtitle;value;currency\n" +
	"2025-09-18T10:15:30.000Z;18 Sep 2025;Lupe;Bizum;-20.00;EUR\n" +
	"2025-09-19T10:15:30.000Z;19 Sep 2025;;;-3.00;EUR\n"

func writeStatement(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestParse_JSON(t *testing.T) {
	path := writeStatement(t, "expenses.csv", "date,description,amount\n2024-01-15,Coffee,-2.50\n")

	stdout, _, err := runCLI(t, "parse", path)
	require.NoError(t, err)

	var doc struct {
		Expenses []map[string]any `json:"expenses"`
		Errors   []string         `json:"errors"`
		Metadata map[string]any   `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	require.Len(t, doc.Expenses, 1)
	assert.Equal(t, "Coffee", doc.Expenses[0]["description"])
	assert.NotContains(t, doc.Expenses[0], "id")
	assert.Equal(t, "generic", doc.Metadata["bankFormat"])
	assert.Empty(t, doc.Errors)
}

func TestParse_CSVOutput(t *testing.T) {
	path := writeStatement(t, "tr.csv", trStatement)

	stdout, stderr, err := runCLI(t, "parse", "--output", "csv", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,description,amount,category,subcategory,currency,account,tags", lines[0])
	assert.Equal(t, "2025-09-18,Lupe - Bizum,-20,Uncategorized,,EUR,Trade Republic,bizum", lines[1])
	assert.Contains(t, stderr, "Row 2: Missing description")
}

func TestParse_Summary(t *testing.T) {
	path := writeStatement(t, "expenses.json", `[{"date": "2024-01-15", "description": "Pay", "amount": 100, "currency": "EUR"}]`)

	_, stderr, err := runCLI(t, "parse", "--summary", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, `"currency": "EUR"`)
}

func TestParse_FormatOverride(t *testing.T) {
	path := writeStatement(t, "reordered.csv", "value;title;timestamp\n-4.20;Carrefour Express;2025-07-01T08:00:00Z\n")

	stdout, _, err := runCLI(t, "parse", "--format", "traderepublic", path)
	require.NoError(t, err)

	var doc struct {
		Expenses []map[string]any `json:"expenses"`
		Metadata map[string]any   `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	require.Len(t, doc.Expenses, 1)
	assert.Equal(t, "traderepublic", doc.Metadata["bankFormat"])
	assert.Equal(t, []any{"groceries"}, doc.Expenses[0]["tags"])
}

func TestParse_Failures(t *testing.T) {
	txt := writeStatement(t, "notes.txt", "hello")

	_, _, err := runCLI(t, "parse", txt)
	assert.EqualError(t, err, "Unsupported file type. Only CSV and JSON files are supported.")

	_, _, err = runCLI(t, "parse", "--output", "xml", txt)
	assert.ErrorContains(t, err, "invalid --output")

	_, _, err = runCLI(t, "parse", "--format", "ofx", txt)
	assert.ErrorContains(t, err, `invalid --format "ofx"`)

	_, _, err = runCLI(t, "parse", filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
