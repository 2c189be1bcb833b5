package invoice_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookrecon/internal/invoice"
	"bookrecon/pkg/models"
)

func TestParseLedgerCostsWindows(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{
			name: "short window with totals line",
			lines: []string{
				"Rechnung 123",
				"Nettobetrag 7%:",
				"Nettobetrag 19%:",
				"20,00 EUR",
				"10,00 EUR",
				"MwSt. gesamt: 1,40 1,90",
				"1,90 EUR",
				"Gesamtbetrag 33,30 EUR",
			},
		},
		{
			name: "nine lines",
			lines: []string{
				"Rechnung",
				"Nettobetrag 7%:",
				"Nettobetrag 19%:",
				"20,00 EUR",
				"10,00 EUR",
				"MwSt. 7%: 1,40",
				"1,90",
				"Zwischensumme",
				"33,30 EUR",
				"Gesamtbetrag 33,30 EUR",
			},
		},
		{
			name: "nine lines with totals line",
			lines: []string{
				"Nettobetrag 7%:",
				"Nettobetrag 19%:",
				"20,00 EUR",
				"10,00 EUR",
				"Steuer",
				"MwSt. gesamt: 1,40 1,90",
				"Zwischensumme",
				"33,30 EUR",
				"Gesamtbetrag 33,30 EUR",
			},
		},
		{
			name: "ten lines",
			lines: []string{
				"Nettobetrag 7%:",
				"Nettobetrag 19%:",
				"20,00 EUR",
				"10,00 EUR",
				"Summe netto",
				"30,00 EUR",
				"MwSt. 7%: 1,40 EUR",
				"1,90 EUR",
				"Summe MwSt. 3,30 EUR",
				"Gesamtbetrag 33,30 EUR",
			},
		},
		{
			name: "eight lines with totals line",
			lines: []string{
				"Nettobetrag 7%:",
				"Nettobetrag 19%:",
				"20,00 EUR",
				"10,00 EUR",
				"Summe",
				"MwSt. gesamt: 1,40",
				"1,90 EUR",
				"Gesamtbetrag 33,30 EUR",
			},
		},
		{
			name: "long window",
			lines: []string{
				"Nettobetrag 7%:",
				"Nettobetrag 19%:",
				"20,00 EUR 1,90 EUR",
				"10,00 EUR",
				"Steuer",
				"1,40 EUR",
				"Zahlbar sofort",
				"ohne Abzug",
				"Bankverbindung",
				"IBAN DE00 0000",
				"BIC XXXXX",
				"Gesamtbetrag 33,30 EUR",
			},
		},
		{
			name: "reverse layout",
			lines: []string{
				"Gesamtbetrag 33,30 EUR",
				"Nettobetrag 7%:",
				"Nettobetrag 19%:",
				"20,00 EUR",
				"10,00 EUR",
				"MwSt. gesamt: 1,40 1,90 3,30",
				"3,30 EUR",
				"Vielen Dank",
			},
		},
	}

	parser := invoice.NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parser.Parse("2023001234", tt.lines)
			require.NoError(t, err)

			assert.Equal(t, models.FamilyLedger, doc.Family)
			assert.Equal(t, "33.30", doc.GrossTotal)
			assert.Equal(t, "0.00", doc.ShippingCost)
			assert.Equal(t, map[string]string{"7%": "1.40", "19%": "1.90"}, doc.Taxes())
			assert.Equal(t, models.NotAvailable, doc.TaxBreakdown["7%"].Net)
		})
	}
}

func TestParseLedgerShipping(t *testing.T) {
	lines := []string{
		"Versandkosten: 2,00 EUR",
		"Nettobetrag 7%:",
		"Nettobetrag 19%:",
		"20,00 EUR",
		"10,00 EUR",
		"MwSt. gesamt: 1,40 1,90",
		"1,90 EUR",
		"Gesamtbetrag 35,30 EUR",
	}

	doc, err := invoice.NewParser().Parse("2023001234", lines)
	require.NoError(t, err)
	assert.Equal(t, "2.00", doc.ShippingCost)
	assert.Equal(t, "35.30", doc.GrossTotal)
}

func TestCostsWindow(t *testing.T) {
	_, ok := invoice.CostsWindow([]string{"Gesamtbetrag 1,00 EUR"})
	assert.False(t, ok)

	costs, ok := invoice.CostsWindow([]string{"Kopf", "Nettobetrag 7%:", "1,00 EUR", "Gesamtbetrag 1,07 EUR", "Fuß"})
	require.True(t, ok)
	assert.Equal(t, []string{"Nettobetrag 7%:", "1,00 EUR", "Gesamtbetrag 1,07 EUR"}, costs)

	_, ok = invoice.CostsWindowTaxes([]string{"Nettobetrag 7%:", "Nettobetrag 19%:"})
	assert.False(t, ok)
}

func TestParseReceipt(t *testing.T) {
	lines := []string{
		"Rechnung",
		"1",
		"Gutschein",
		"Wert",
		"10,00",
		"MwSt. 7,00 %",
		"Netto",
		"1,31",
		"MwSt. 19,00 %",
		"Netto",
		"0,48",
		"Versandpauschale",
		"Standard",
		"2,50",
		"Gesamt:",
		"Rechnungsbetrag gesamt brutto",
		"23,24",
		"2",
		"Gutschein",
		"Geschenk",
		"25,00",
	}

	doc, err := invoice.NewParser().Parse("R2023001234", lines)
	require.NoError(t, err)

	assert.Equal(t, models.FamilyReceipt, doc.Family)
	assert.Equal(t, "23.24", doc.GrossTotal)
	assert.Equal(t, "2.50", doc.ShippingCost)
	assert.Equal(t, map[string]string{"7%": "1.31", "19%": "0.48"}, doc.Taxes())
	assert.Equal(t, []models.Coupon{{Count: 1, Value: "10.00"}}, doc.Coupons)
}

func TestParseReceiptKeepsFirstRatePerClass(t *testing.T) {
	lines := []string{
		"MwSt. 5,00 %",
		"Netto",
		"0,50",
		"MwSt. 7,00 %",
		"Netto",
		"0,70",
		"Rechnungsbetrag gesamt brutto",
		"11,20",
	}

	doc, err := invoice.NewParser().Parse("R1", lines)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"5%": "0.50"}, doc.Taxes())
}

func TestParseEmptyDocument(t *testing.T) {
	doc, err := invoice.NewParser().Parse("2023000001", []string{"Hallo", "Welt"})
	require.Error(t, err)
	assert.ErrorIs(t, err, invoice.ErrEmptyDocument)

	require.NotNil(t, doc)
	assert.Equal(t, models.NotAvailable, doc.GrossTotal)
	assert.Equal(t, "0.00", doc.ShippingCost)
	assert.Empty(t, doc.TaxBreakdown)
}

func TestParsePartialDocument(t *testing.T) {
	lines := []string{
		"Versandkosten: frei",
		"Gesamtbetrag 12,00 EUR",
	}

	doc, err := invoice.NewParser().Parse("2023000002", lines)
	require.Error(t, err)
	assert.ErrorIs(t, err, invoice.ErrPartialDocument)

	var pe *invoice.ParseError
	require.True(t, errors.As(err, &pe))
	assert.False(t, pe.Empty())
	assert.Equal(t, []string{invoice.FieldShippingCost, invoice.FieldTaxBreakdown}, pe.Fields)

	assert.Equal(t, "12.00", doc.GrossTotal)
	assert.Equal(t, "0.00", doc.ShippingCost)
	assert.Equal(t, pe.Fields, doc.Fallbacks)
}

func TestParseIsDeterministic(t *testing.T) {
	lines := []string{"Rechnungsbetrag gesamt brutto", "9,99"}
	parser := invoice.NewParser()

	first, _ := parser.Parse("R7", lines)
	second, _ := parser.Parse("R7", lines)
	assert.Equal(t, first, second)
}

func TestFilenameMetadata(t *testing.T) {
	tests := []struct {
		file   string
		number string
		date   string
	}{
		{"31234-20230115-2023001234.pdf", "2023001234", "2023-01-15"},
		{"RE_20230115_31234_R2023001234.pdf", "R2023001234", "2023-01-15"},
		{"archiv/2023/31234-20231231-2023009999.PDF", "2023009999", "2023-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.number, invoice.NumberFromFilename(tt.file))

			date, err := invoice.DateFromFilename(tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.date, date)
		})
	}

	_, err := invoice.DateFromFilename("rechnung.pdf")
	assert.ErrorIs(t, err, invoice.ErrInvalidFilename)
}

func TestParseFile(t *testing.T) {
	lines := []string{"Rechnungsbetrag gesamt brutto", "9,99", "MwSt. 7,00 %", "Netto", "0,65"}
	parser := invoice.NewParser()

	doc, err := parser.ParseFile("scans/RE_20230115_31234_R2023001234.pdf", lines)
	require.NoError(t, err)
	assert.Equal(t, "R2023001234", doc.ID)
	assert.Equal(t, "2023-01-15", doc.Date)
	assert.Equal(t, "RE_20230115_31234_R2023001234.pdf", doc.File)

	doc, err = parser.ParseFile("R5.pdf", lines)
	assert.ErrorIs(t, err, invoice.ErrPartialDocument)
	assert.Equal(t, models.NotAvailable, doc.Date)
	assert.Equal(t, []string{invoice.FieldDate}, doc.Fallbacks)
}
