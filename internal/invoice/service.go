// Package invoice extracts monetary and tax fields from the text lines of invoice
// documents.
//
// Two layouts are supported and selected by the invoice number:
//   - receipt layout: numbers starting with "R". Values are read at fixed offsets
//     after anchor phrases such as "Rechnungsbetrag gesamt brutto".
//   - ledger layout: all other numbers. Tax amounts are read from the costs window,
//     the lines between "Nettobetrag" and "Gesamtbetrag".
//
// Input lines must already be trimmed with blank lines removed (see ocr.SplitLines).
// Anchors that are missing never fail a document: the field keeps its default
// (models.NotAvailable for totals, "0.00" for shipping) and the field name is
// reported through a *ParseError returned next to the document.
package invoice

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bookrecon/internal/logger"
	"bookrecon/internal/normalize"
	"bookrecon/pkg/models"
)

// Field names reported in ParseError.Fields
const (
	FieldGrossTotal   = "gross_total"
	FieldShippingCost = "shipping_cost"
	FieldTaxBreakdown = "tax_breakdown"
	FieldCoupons      = "coupons"
	FieldDate         = "date"
)

// Parser converts extracted text lines into invoice documents.
type Parser struct {
	log zerolog.Logger
}

// NewParser creates a parser logging under the "invoice-parser" component.
func NewParser() *Parser {
	return &Parser{log: logger.WithComponent("invoice-parser")}
}

// Parse reads an invoice document from its text lines. The returned document is
// never nil; err is a *ParseError when fields fell back to defaults.
func (p *Parser) Parse(documentID string, lines []string) (*models.InvoiceDocument, error) {
	const op = "Parse"

	doc := &models.InvoiceDocument{
		ID:           documentID,
		Date:         models.NotAvailable,
		GrossTotal:   models.NotAvailable,
		ShippingCost: "0.00",
		TaxBreakdown: map[string]models.TaxShare{},
	}

	var res result
	if isReceipt(documentID) {
		doc.Family = models.FamilyReceipt
		res = p.parseReceipt(doc, lines)
	} else {
		doc.Family = models.FamilyLedger
		res = p.parseLedger(doc, lines)
	}

	if len(res.fallbacks) == 0 {
		return doc, nil
	}

	doc.Fallbacks = res.fallbacks
	empty := !doc.HasTotal() && len(doc.TaxBreakdown) == 0 && !res.shippingFound

	p.log.Warn().
		Str("invoice", documentID).
		Str("family", string(doc.Family)).
		Strs("fallbacks", res.fallbacks).
		Bool("empty", empty).
		Msg("Invoice fields fell back to defaults")

	return doc, NewParseError(op, documentID, res.fallbacks, empty)
}

// ParseFile parses a document whose invoice number and date are encoded in its
// file name, e.g. "31234-20230115-2023001234.pdf" or "RE_20230115_31234_R2023001234.pdf".
func (p *Parser) ParseFile(filename string, lines []string) (*models.InvoiceDocument, error) {
	const op = "ParseFile"

	number := NumberFromFilename(filename)
	doc, err := p.Parse(number, lines)
	doc.File = filepath.Base(filename)

	date, dateErr := DateFromFilename(filename)
	if dateErr == nil {
		doc.Date = date
		return doc, err
	}

	p.log.Warn().Err(dateErr).Str("file", filename).Msg("Invoice date not readable from file name")

	fields := append([]string{FieldDate}, doc.Fallbacks...)
	doc.Fallbacks = fields

	empty := false
	var pe *ParseError
	if errors.As(err, &pe) {
		empty = pe.Empty()
	}
	return doc, NewParseError(op, number, fields, empty)
}

// NumberFromFilename returns the invoice number encoded in a file name.
func NumberFromFilename(filename string) string {
	parts := splitFilename(filename)
	return strings.TrimSuffix(parts[len(parts)-1], ".pdf")
}

// DateFromFilename returns the ISO issue date encoded in a file name.
func DateFromFilename(filename string) (string, error) {
	const op = "DateFromFilename"

	parts := splitFilename(filename)
	if len(parts) < 2 {
		return "", fmt.Errorf("%s: %q: %w", op, filename, ErrInvalidFilename)
	}

	date, err := time.Parse("20060102", strings.TrimSuffix(parts[1], ".pdf"))
	if err != nil {
		return "", fmt.Errorf("%s: %q: %w", op, filename, ErrInvalidFilename)
	}
	return date.Format(normalize.ISODate), nil
}

// splitFilename splits on hyphens, or on underscores when there are none.
func splitFilename(filename string) []string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name)) + strings.ToLower(filepath.Ext(name))

	delimiter := "-"
	if !strings.Contains(name, delimiter) {
		delimiter = "_"
	}
	return strings.Split(name, delimiter)
}

func isReceipt(documentID string) bool {
	return strings.HasPrefix(documentID, "R")
}

// result collects bookkeeping shared by both layouts.
type result struct {
	fallbacks     []string
	shippingFound bool
}

func (r *result) fallback(field string) {
	for _, f := range r.fallbacks {
		if f == field {
			return
		}
	}
	r.fallbacks = append(r.fallbacks, field)
}

// amount strips the currency marker and normalizes s.
func amount(s string) (string, bool) {
	v, err := normalize.Amount(strings.ReplaceAll(s, "EUR", ""))
	if err != nil {
		return "", false
	}
	return v, true
}

// amountAt normalizes lines[i], reporting false when i is out of range.
func amountAt(lines []string, i int) (string, bool) {
	if i < 0 || i >= len(lines) {
		return "", false
	}
	return amount(lines[i])
}

// indexOf returns the index of the first line equal to s, or -1.
func indexOf(lines []string, s string) int {
	for i, line := range lines {
		if line == s {
			return i
		}
	}
	return -1
}

// indexContaining returns the index of the first line containing s, or -1.
func indexContaining(lines []string, s string) int {
	for i, line := range lines {
		if strings.Contains(line, s) {
			return i
		}
	}
	return -1
}

// lastIndexContaining returns the index of the last line containing s, or -1.
func lastIndexContaining(lines []string, s string) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], s) {
			return i
		}
	}
	return -1
}
