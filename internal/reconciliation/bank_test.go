package reconciliation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookrecon/internal/reconciliation"
	"bookrecon/pkg/models"
)

func TestExtractInvoiceNumbers(t *testing.T) {
	tests := []struct {
		reference string
		want      []string
	}{
		{"Rechnungen 20230000001/20230000002", []string{"R20230000001", "R20230000002"}},
		{"Rg. 2023 000 0003", []string{"R20230000003"}},
		{"Kd 912345678901", []string{"912345678901"}},
		{"RE 20230000001, RE 20230000001", []string{"R20230000001"}},
		{"Vielen Dank", nil},
	}

	for _, tt := range tests {
		t.Run(tt.reference, func(t *testing.T) {
			assert.Equal(t, tt.want, reconciliation.ExtractInvoiceNumbers(tt.reference))
		})
	}
}

func TestExtractOrderNumbers(t *testing.T) {
	got := reconciliation.ExtractOrderNumbers("VKN 31234 Bestellung 31234-123456, 654321 und 12345", "31234")
	assert.Equal(t, []string{"31234-123456", "31234-654321"}, got)

	assert.Nil(t, reconciliation.ExtractOrderNumbers("Bestellung 654321", ""))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "01701234567", reconciliation.NormalizePhone("1701234567.0"))
	assert.Equal(t, "01701234567", reconciliation.NormalizePhone("0170 / 123 45-67"))
	assert.Equal(t, "+49170123", reconciliation.NormalizePhone("+49 170 123"))
	assert.Equal(t, "", reconciliation.NormalizePhone(" "))
}

func TestBankMatching(t *testing.T) {
	orders := []models.Order{
		testOrder("31234-000001", "2023-01-02", "10.00", "Max", "Muster"),
		testOrder("31234-000002", "2023-01-03", "20.00", "Max", "Muster"),
		testOrder("31234-000003", "2023-01-04", "15.00", "Max", "Muster"),
	}
	records := []models.FulfillmentRecord{
		fulfillment("31234-000002", "R20230000002"),
		fulfillment("31234-000003", "R20230000003"),
	}
	invoices := []models.InvoiceDocument{
		testInvoice("R20230000001", "2023-01-02", "10.00"),
		testInvoice("R20230000002", "2023-01-03", "20.00"),
		testInvoice("R20230000003", "2023-01-04", "12.00"),
	}

	tests := []struct {
		name       string
		reference  string
		amount     string
		confidence models.Confidence
		orders     []string
		invoices   []string
		unresolved []string
	}{
		{
			name:       "explicit invoice",
			reference:  "Rechnung 20230000001 Bestellung 31234-000001",
			amount:     "10.00",
			confidence: models.Sicher,
			orders:     []string{"31234-000001"},
			invoices:   []string{"R20230000001"},
		},
		{
			name:       "order resolved through fulfillment",
			reference:  "Bestellnr 000002",
			amount:     "20.00",
			confidence: models.FastSicher,
			orders:     []string{"31234-000002"},
			invoices:   []string{"R20230000002"},
		},
		{
			name:       "order total reconciles",
			reference:  "31234-000003",
			amount:     "15.00",
			confidence: models.FastSicher,
			orders:     []string{"31234-000003"},
			invoices:   []string{"R20230000003"},
		},
		{
			name:       "totals differ",
			reference:  "Rechnung 20230000001 und 20239999999",
			amount:     "11.00",
			confidence: models.Unsicher,
			orders:     []string{},
			invoices:   []string{"R20230000001"},
			unresolved: []string{"R20239999999"},
		},
		{
			name:       "nothing in memo",
			reference:  "Danke",
			amount:     "10.00",
			confidence: models.Unsicher,
			orders:     []string{},
			invoices:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := reconcile(t, testConfig(), reconciliation.Input{
				Payments:    []models.Payment{bankPayment("2023-01-10", tt.amount, "Max Muster", tt.reference)},
				Orders:      orders,
				Fulfillment: records,
				Invoices:    invoices,
			})

			require.Len(t, res.Payments, 1)
			p := res.Payments[0]
			assert.Equal(t, tt.confidence, p.Confidence)
			assert.Equal(t, tt.orders, p.OrderIDs)
			assert.Equal(t, tt.invoices, p.InvoiceIDs)
			assert.Equal(t, tt.unresolved, p.Unresolved)
		})
	}
}

func TestBankPaymentIdentifier(t *testing.T) {
	in := reconciliation.Input{
		Payments: []models.Payment{bankPayment("2023-01-10", "10.00", "Max Muster", "Danke")},
	}

	first := reconcile(t, testConfig(), in)
	second := reconcile(t, testConfig(), in)

	id := first.Payments[0].ID
	assert.NotEmpty(t, id)
	assert.Equal(t, id, second.Payments[0].ID)
	assert.Equal(t, models.BankIdentifier("2023-01-10", "Max Muster", "10.00", "Danke"), id)
	assert.Empty(t, in.Payments[0].ID)
}
