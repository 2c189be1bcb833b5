package dataset_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookrecon/internal/dataset"
	"bookrecon/pkg/models"
)

func TestGatewayPayment(t *testing.T) {
	payment, err := dataset.GatewayPayment(dataset.GatewayRow{
		Date:            "10.01.2023",
		Name:            " Max Muster ",
		Type:            "Website-Zahlung",
		Currency:        "EUR",
		Gross:           "1.234,50",
		Fee:             "-0,35",
		Net:             "1.234,15",
		Email:           "max@example.org",
		TransactionCode: "9XY123",
		Phone:           "1701234567.0",
	})
	require.NoError(t, err)

	assert.Equal(t, "9XY123", payment.ID)
	assert.Equal(t, models.KindGateway, payment.Kind)
	assert.Equal(t, "2023-01-10", payment.Date)
	assert.Equal(t, "1234.50", payment.Amount)
	assert.Equal(t, "Max Muster", payment.Name)
	require.NotNil(t, payment.Gateway)
	assert.Equal(t, models.MethodShopOrder, payment.Gateway.Method)
	assert.Equal(t, "01701234567", payment.Gateway.Phone)
	assert.Equal(t, "-0.35", payment.Gateway.Fee)
	assert.Nil(t, payment.Bank)
}

func TestGatewayPaymentTransferAndErrors(t *testing.T) {
	payment, err := dataset.GatewayPayment(dataset.GatewayRow{
		Date: "2023-01-10", Type: dataset.TypeGeneralPayment, Gross: "-5,00", TransactionCode: "A1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MethodTransfer, payment.Gateway.Method)
	assert.Equal(t, "-5.00", payment.Amount)

	_, err = dataset.GatewayPayment(dataset.GatewayRow{Date: "2023-01-10", Gross: "5,00"})
	assert.ErrorIs(t, err, dataset.ErrMissingField)

	_, err = dataset.GatewayPayment(dataset.GatewayRow{Date: "gestern", Gross: "5,00", TransactionCode: "A1"})
	assert.Error(t, err)
}

func TestBankPayment(t *testing.T) {
	payment, err := dataset.BankPayment(dataset.BankRow{
		BookingDate: "10.01.2023",
		Name:        "Max Muster",
		Purpose:     "Gutschrift\nRechnung 2023000\n0001",
		Currency:    "EUR",
		Amount:      "10,00",
		DebitCredit: "H",
	})
	require.NoError(t, err)

	assert.Equal(t, models.KindBankTransfer, payment.Kind)
	assert.Empty(t, payment.ID)
	assert.Equal(t, "2023-01-10", payment.Date)
	assert.Equal(t, "10.00", payment.Amount)
	assert.Equal(t, "Rechnung 20230000001", payment.Reference())
}

func TestBankPaymentSkipsNonCustomerRows(t *testing.T) {
	tests := []struct {
		name string
		row  dataset.BankRow
	}{
		{"debit", dataset.BankRow{BookingDate: "10.01.2023", Amount: "5,00", DebitCredit: "S", Purpose: "Lastschrift\nMiete"}},
		{"opening balance", dataset.BankRow{CustomerReference: "Anfangssaldo", Amount: "100,00", DebitCredit: "H"}},
		{"closing balance", dataset.BankRow{CustomerReference: "Endsaldo", Amount: "100,00", DebitCredit: "H"}},
		{"account closing", dataset.BankRow{BookingDate: "31.03.2023", Amount: "1,00", DebitCredit: "H", Purpose: "Abschluss\nZinsen"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dataset.BankPayment(tt.row)
			assert.ErrorIs(t, err, dataset.ErrSkippedRow)
		})
	}
}

func TestGatewayPaymentsDropsDuplicates(t *testing.T) {
	rows := []dataset.GatewayRow{
		{Date: "10.01.2023", Gross: "10,00", TransactionCode: "A1"},
		{Date: "10.01.2023", Gross: "10,00", TransactionCode: "A1"},
		{Date: "kaputt", Gross: "10,00", TransactionCode: "A2"},
		{Date: "11.01.2023", Gross: "12,00", TransactionCode: "A3"},
	}

	payments := dataset.GatewayPayments("test", rows)
	require.Len(t, payments, 2)
	assert.Equal(t, "A1", payments[0].ID)
	assert.Equal(t, "A3", payments[1].ID)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, dataset.WriteJSON(filepath.Join(dir, dataset.FileGateway), []dataset.GatewayRow{
		{Date: "10.01.2023", Name: "Max Muster", Gross: "10,00", TransactionCode: "A1"},
	}))
	require.NoError(t, dataset.WriteJSON(filepath.Join(dir, dataset.FileBank), []dataset.BankRow{
		{BookingDate: "12.01.2023", Name: "Erika", Amount: "20,00", DebitCredit: "H", Purpose: "Gutschrift\n31234-000002"},
		{CustomerReference: "Endsaldo", Amount: "1,00"},
	}))
	require.NoError(t, dataset.WriteJSON(filepath.Join(dir, dataset.FileOrders), []models.Order{
		{ID: "31234-000001", Date: "2023-01-09", GrossTotal: "10.00"},
	}))

	in, err := dataset.LoadDir(dir)
	require.NoError(t, err)

	require.Len(t, in.Payments, 2)
	assert.Equal(t, models.KindGateway, in.Payments[0].Kind)
	assert.Equal(t, models.KindBankTransfer, in.Payments[1].Kind)
	assert.Equal(t, "31234-000002", in.Payments[1].Reference())
	require.Len(t, in.Orders, 1)
	assert.Empty(t, in.Fulfillment)
	assert.Empty(t, in.Invoices)
}

func TestLoadDirRejectsBrokenJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.FileOrders), []byte("{"), 0o644))

	_, err := dataset.LoadDir(dir)
	assert.Error(t, err)
}

func TestLoadInvoices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "invoices.json")
	require.NoError(t, dataset.WriteJSON(path, []models.InvoiceDocument{{ID: "R20230000001", GrossTotal: "10.00"}}))

	invoices, err := dataset.LoadInvoices(path)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "R20230000001", invoices[0].ID)

	_, err = dataset.LoadInvoices(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type fakeSheets map[string][][]interface{}

func (f fakeSheets) ReadRange(_ context.Context, rangeSpec string) ([][]interface{}, error) {
	values, ok := f[rangeSpec]
	if !ok {
		return nil, errors.New("unknown range " + rangeSpec)
	}
	return values, nil
}

func TestSheetsReader(t *testing.T) {
	header := []interface{}{"header"}
	sheets := fakeSheets{
		"PayPal!A:N": {
			header,
			{"10.01.2023", "Max Muster", "Website-Zahlung", "EUR", "10,00", "-0,35", "9,65", "max@example.org", "A1"},
		},
		"Bank!A:G": {
			header,
			{"12.01.2023", "Erika Muster", "", "Gutschrift\nRechnung 20230000002", "EUR", "20,00", "H"},
			{"12.01.2023", "Vermieter", "", "Lastschrift\nMiete", "EUR", "500,00", "S"},
		},
		"Bestellungen!A:U": {
			header,
			{"31234-000001", "09.01.2023", "Herr", "Max", "Muster", "max@example.org", "", "", "", "", "10,00", "2,50", "PayPal", "A1", "1", "978-1", "Faust", "2", "3,75", "7", "0,49"},
			{"31234-000001", "09.01.2023", "Herr", "Max", "Muster", "max@example.org", "", "", "", "", "10,00", "2,50", "PayPal", "A1", "2", "978-2", "Werther", "", "", "", ""},
			{"31234-000002", "kaputt"},
		},
		"Rechnungen!A:B": {
			header,
			{"31234-000001", "R20230000001"},
			{"31234-000001", "R20230000002"},
			{"31234-000003"},
		},
	}

	in, err := dataset.NewSheetsReader(sheets).ReadInput(context.Background(), dataset.DefaultSheetNames())
	require.NoError(t, err)

	require.Len(t, in.Payments, 2)
	assert.Equal(t, "A1", in.Payments[0].ID)
	assert.Equal(t, "Rechnung 20230000002", in.Payments[1].Reference())

	require.Len(t, in.Orders, 1)
	order := in.Orders[0]
	assert.Equal(t, "2023-01-09", order.Date)
	assert.Equal(t, "10.00", order.GrossTotal)
	assert.Equal(t, "A1", order.Settlement.TransactionCode)
	require.Len(t, order.LineItems, 2)
	assert.Equal(t, models.LineItem{ID: "1", SKU: "978-1", Title: "Faust", Quantity: 2, UnitPrice: "3.75", TaxRate: "7%", TaxAmount: "0.49"}, order.LineItems[0])
	assert.Equal(t, 1, order.LineItems[1].Quantity)

	require.Len(t, in.Fulfillment, 1)
	assert.Equal(t, []string{"R20230000001", "R20230000002"}, in.Fulfillment[0].InvoiceNumbers())
}

func TestSheetsReaderEmptySheet(t *testing.T) {
	reader := dataset.NewSheetsReader(fakeSheets{"Bank!A:G": {}})

	_, err := reader.ReadBankPayments(context.Background(), "Bank")
	assert.ErrorIs(t, err, dataset.ErrEmptySheet)
}
