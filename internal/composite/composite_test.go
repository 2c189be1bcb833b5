package composite_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookrecon/internal/composite"
	"bookrecon/pkg/models"
)

func payment(id, date, amount string) models.Payment {
	return models.Payment{
		ID:         id,
		Kind:       models.KindBankTransfer,
		Date:       date,
		Amount:     amount,
		Bank:       &models.BankDetails{},
		Confidence: models.Unsicher,
	}
}

func order(id, date, email string, items ...models.LineItem) models.Order {
	return models.Order{
		ID:         id,
		Date:       date,
		FirstName:  "Anna",
		LastName:   id,
		Email:      email,
		GrossTotal: "10.00",
		LineItems:  items,
	}
}

func invoiceDoc(id, date, total string, taxes map[string]string) models.InvoiceDocument {
	breakdown := map[string]models.TaxShare{}
	for rate, tax := range taxes {
		breakdown[rate] = models.TaxShare{Net: models.NotAvailable, Tax: tax}
	}
	return models.InvoiceDocument{ID: id, Date: date, GrossTotal: total, TaxBreakdown: breakdown}
}

func TestAddRemoveMaintainsParent(t *testing.T) {
	tree := composite.NewTree()
	p := composite.NewPaymentNode(payment("p1", "2023-01-10", "10.00"))
	o := composite.NewOrderNode(order("31234-000001", "2023-01-09", "a@example.org"))

	tree.Add(p)
	p.Add(o)

	assert.Same(t, tree, p.Parent())
	assert.Same(t, p, o.Parent())
	assert.True(t, p.Has("31234-000001"))

	other := composite.NewPaymentNode(payment("p2", "2023-01-11", "10.00"))
	other.Add(o)
	assert.Equal(t, 0, p.Len())
	assert.Same(t, other, o.Parent())

	assert.True(t, other.Remove(o))
	assert.Nil(t, o.Parent())
	assert.False(t, other.Remove(o))
}

func TestExportSortedByDate(t *testing.T) {
	tree := composite.NewTree()
	tree.Add(composite.NewPaymentNode(payment("late", "2023-03-01", "5.00")))
	tree.Add(composite.NewPaymentNode(payment("early", "2023-01-01", "5.00")))
	tree.Add(composite.NewPaymentNode(payment("same", "2023-01-01", "5.00")))

	records := tree.Export()
	require.Len(t, records, 3)
	assert.Equal(t, "early", records[0].ID)
	assert.Equal(t, "same", records[1].ID)
	assert.Equal(t, "late", records[2].ID)
	assert.Equal(t, models.NotAssigned, records[0].InvoiceNumbers)
}

func TestPaymentTaxes(t *testing.T) {
	pay := payment("p1", "2023-02-01", "30.00")
	pay.InvoiceIDs = []string{"R1", "R2"}

	p := composite.NewPaymentNode(pay)
	p.Add(composite.NewOrderNode(order("31234-000001", "2023-01-30", "a@example.org",
		models.LineItem{TaxRate: "7%", TaxAmount: "9.99"})))
	p.Add(composite.NewInvoiceNode(invoiceDoc("R1", "2023-01-31", "10.70", map[string]string{"7%": "0.70"})))
	p.Add(composite.NewInvoiceNode(invoiceDoc("R2", "2023-01-31", "19.30", map[string]string{"7%": "0.50", "19%": "1.90"})))

	assert.Equal(t, map[string]string{"7%": "1.20", "19%": "1.90"}, p.Taxes())
	assert.Equal(t, "30.00", p.InvoicesAmount())
	assert.Equal(t, "R1;R2", p.InvoiceNumbers())

	record := p.Export()
	assert.Len(t, record.Orders, 1)
	assert.Len(t, record.Invoices, 2)
}

func TestPaymentTaxesFallBackToOrders(t *testing.T) {
	p := composite.NewPaymentNode(payment("p1", "2023-02-01", "30.00"))
	p.Add(composite.NewOrderNode(order("31234-000001", "2023-01-30", "a@example.org",
		models.LineItem{TaxRate: "7%", TaxAmount: "0.65"},
		models.LineItem{TaxRate: "7%", TaxAmount: "0.35"},
		models.LineItem{TaxRate: "19%", TaxAmount: "1.90"})))

	assert.Equal(t, map[string]string{"7%": "1.00", "19%": "1.90"}, p.Taxes())
}

func TestRevenueReportFillsEveryMonth(t *testing.T) {
	tree := composite.NewTree()
	tree.Add(composite.NewPaymentNode(payment("a", "2023-02-03", "10.00")))
	tree.Add(composite.NewPaymentNode(payment("b", "2023-02-20", "5.50")))
	tree.Add(composite.NewPaymentNode(payment("c", "2023-11-01", "1.00")))
	tree.Add(composite.NewPaymentNode(payment("d", "2022-02-01", "99.00")))

	report, err := tree.RevenueReport("2023", 0)
	require.NoError(t, err)
	assert.Len(t, report, 12)
	for month := 1; month <= 12; month++ {
		assert.Contains(t, report, month)
	}
	assert.Equal(t, "15.50", report[2])
	assert.Equal(t, "1.00", report[11])
	assert.Equal(t, "0.00", report[1])

	report, err = tree.RevenueReport("2023", 4)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{10: "0.00", 11: "1.00", 12: "0.00"}, report)

	empty, err := composite.NewTree().RevenueReport("2024", 0)
	require.NoError(t, err)
	assert.Len(t, empty, 12)

	_, err = tree.RevenueReport("2023", 5)
	assert.ErrorIs(t, err, composite.ErrInvalidQuarter)
}

func TestRanking(t *testing.T) {
	tree := composite.NewTree()
	tree.Add(composite.NewOrderNode(order("o1", "2023-01-01", "",
		models.LineItem{SKU: "978-1", Title: "Faust", Quantity: 1},
		models.LineItem{SKU: "978-2", Title: "Werther", Quantity: 2})))
	tree.Add(composite.NewOrderNode(order("o2", "2023-01-02", "",
		models.LineItem{SKU: "978-1", Title: "Faust", Quantity: 2},
		models.LineItem{SKU: "978-3", Title: "Effi Briest", Quantity: 1})))

	ranking := tree.Ranking(0)
	require.Len(t, ranking, 3)
	assert.Equal(t, composite.RankEntry{SKU: "978-1", Title: "Faust", Quantity: 3}, ranking[0])
	assert.Equal(t, "978-2", ranking[1].SKU)
	assert.Equal(t, "978-3", ranking[2].SKU)

	assert.Len(t, tree.Ranking(2), 2)
}

func TestContacts(t *testing.T) {
	tree := composite.NewTree()
	tree.Add(composite.NewOrderNode(order("Alt", "2020-01-01", "old@example.org")))
	tree.Add(composite.NewOrderNode(order("Erst", "2023-01-01", "anna@example.org")))
	tree.Add(composite.NewOrderNode(order("Neu", "2023-05-01", "Anna@example.org")))
	tree.Add(composite.NewOrderNode(order("Sperre", "2023-06-01", "shop@example.org")))
	tree.Add(composite.NewOrderNode(order("Ohne", "2023-06-01", "")))

	cutoff := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	contacts := tree.Contacts(cutoff, []string{"shop@example.org"})

	require.Len(t, contacts, 1)
	assert.Equal(t, "Neu", contacts[0].LastName)
	assert.Equal(t, "01.05.2023", contacts[0].LastOrder)
}

func TestDefaultCutoff(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC), composite.DefaultCutoff(now))
}
