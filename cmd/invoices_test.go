package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookrecon/internal/invoice"
)

var receiptLines = []string{
	"MwSt. 5,00 %",
	"Netto",
	"0,50",
	"Rechnungsbetrag gesamt brutto",
	"11,20",
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestFindInvoiceFilesPrefersText(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "RE_20230115_31234_R2023001234.pdf", "%PDF-1.4")
	writeFile(t, dir, "RE_20230115_31234_R2023001234.txt", strings.Join(receiptLines, "\n"))
	writeFile(t, dir, "31234-20230117-2023000002.pdf", "%PDF-1.4")
	writeFile(t, dir, "notes.md", "ignored")

	sources, err := findInvoiceFiles(dir)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	assert.Equal(t, "31234-20230117-2023000002.pdf", sources[0].Name)
	assert.False(t, sources[0].Text)

	assert.Equal(t, "RE_20230115_31234_R2023001234.pdf", sources[1].Name)
	assert.True(t, sources[1].Text)
	assert.Equal(t, filepath.Join(dir, "RE_20230115_31234_R2023001234.txt"), sources[1].Path)
}

func TestProcessInvoicesInParallel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "RE_20230115_31234_R2023001234.txt", strings.Join(receiptLines, "\r\n")+"\n\n")
	writeFile(t, dir, "31234-20230116-2023000001.txt", "Hallo\nWelt\n")
	writeFile(t, dir, "31234-20230117-2023000002.pdf", "%PDF-1.4")

	sources, err := findInvoiceFiles(dir)
	require.NoError(t, err)
	require.Len(t, sources, 3)

	bar := progressbar.NewOptions(len(sources), progressbar.OptionSetWriter(io.Discard))
	results := processInvoicesInParallel(context.Background(), sources, invoice.NewParser(), nil, 2, bar, zerolog.Nop(), true)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, sources[i].Name, r.Filename)
	}

	empty := results[0]
	assert.Equal(t, statusError, empty.Status)
	assert.ErrorIs(t, empty.Error, invoice.ErrEmptyDocument)

	noOCR := results[1]
	assert.Equal(t, statusError, noOCR.Status)
	assert.Nil(t, noOCR.Invoice)
	assert.Contains(t, noOCR.Error.Error(), "no OCR extractor")

	receipt := results[2]
	require.NoError(t, receipt.Error)
	assert.Equal(t, statusSuccess, receipt.Status)
	require.NotNil(t, receipt.Invoice)
	assert.Equal(t, "R2023001234", receipt.Invoice.ID)
	assert.Equal(t, "2023-01-15", receipt.Invoice.Date)
	assert.Equal(t, "11.20", receipt.Invoice.GrossTotal)
	assert.Equal(t, "RE_20230115_31234_R2023001234.pdf", receipt.Invoice.File)
}

func TestProcessSingleInvoiceWarning(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "R2023009999.txt", strings.Join(receiptLines, "\n"))

	sources, err := findInvoiceFiles(dir)
	require.NoError(t, err)
	require.Len(t, sources, 1)

	result := processSingleInvoice(context.Background(), sources[0], invoice.NewParser(), nil)
	assert.Equal(t, statusWarning, result.Status)
	assert.ErrorIs(t, result.Error, invoice.ErrPartialDocument)
	require.NotNil(t, result.Invoice)
	assert.Equal(t, "11.20", result.Invoice.GrossTotal)
	assert.Contains(t, result.Invoice.Fallbacks, invoice.FieldDate)
}
