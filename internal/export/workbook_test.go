package export_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bookrecon/internal/export"
	"bookrecon/internal/reconciliation"
	"bookrecon/pkg/models"
)

func TestWriteWorkbook(t *testing.T) {
	cfg := reconciliation.DefaultConfig()
	cfg.OrderPrefix = "31234"
	cfg.Blocklist = []string{"Finanzamt"}

	payments := []models.Payment{
		{
			Kind:   models.KindBankTransfer,
			Date:   "10.01.2023",
			Amount: "10,00",
			Name:   "Max Muster",
			Bank:   &models.BankDetails{Reference: "Rechnung 20230000001"},
		},
		{
			Kind:   models.KindBankTransfer,
			Date:   "11.01.2023",
			Amount: "99,00",
			Name:   "Finanzamt Berlin",
			Bank:   &models.BankDetails{Reference: "Erstattung"},
		},
		{
			Kind:   models.KindBankTransfer,
			Date:   "irgendwann",
			Amount: "1,00",
			Bank:   &models.BankDetails{},
		},
	}
	invoices := []models.InvoiceDocument{
		{ID: "R20230000001", Date: "2023-01-09", GrossTotal: "10.00"},
	}

	res, err := reconciliation.Reconcile(cfg, payments, nil, nil, invoices)
	require.NoError(t, err)
	require.Len(t, res.Payments, 1)
	require.Len(t, res.Blocked, 1)
	require.Len(t, res.Errors, 1)

	path := filepath.Join(t.TempDir(), "abgleich.xlsx")
	require.NoError(t, export.WriteWorkbook(path, res))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.SheetPayments, export.SheetBlocked, export.SheetErrors, export.SheetRevenue}, f.GetSheetList())

	value := func(sheet, cell string) string {
		v, err := f.GetCellValue(sheet, cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Datum", value(export.SheetPayments, "A1"))
	assert.Equal(t, "2023-01-10", value(export.SheetPayments, "A2"))
	assert.Equal(t, "10.00", value(export.SheetPayments, "E2"))
	assert.Equal(t, "sicher", value(export.SheetPayments, "F2"))
	assert.Equal(t, models.NotAssigned, value(export.SheetPayments, "G2"))
	assert.Equal(t, "R20230000001", value(export.SheetPayments, "H2"))

	assert.Equal(t, "Finanzamt Berlin", value(export.SheetBlocked, "D2"))
	assert.Equal(t, "#2", value(export.SheetErrors, "A2"))

	assert.Equal(t, "2023", value(export.SheetRevenue, "A2"))
	assert.Equal(t, "1", value(export.SheetRevenue, "B2"))
	assert.Equal(t, "10.00", value(export.SheetRevenue, "C2"))
	assert.Equal(t, "12", value(export.SheetRevenue, "B13"))
	assert.Equal(t, "0.00", value(export.SheetRevenue, "C13"))
}
