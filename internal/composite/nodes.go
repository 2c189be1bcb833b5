package composite

import (
	"strings"

	"github.com/shopspring/decimal"

	"bookrecon/internal/normalize"
	"bookrecon/pkg/models"
)

// PaymentNode wraps a reconciled payment. Its children are the linked orders
// and invoices.
type PaymentNode struct {
	Composite
	parentLink

	Payment models.Payment
}

// NewPaymentNode creates a payment node without children.
func NewPaymentNode(payment models.Payment) *PaymentNode {
	n := &PaymentNode{Payment: payment}
	n.owner = n
	return n
}

func (n *PaymentNode) Identifier() string { return n.Payment.Identifier() }
func (n *PaymentNode) Date() string       { return n.Payment.Date }
func (n *PaymentNode) Amount() string     { return n.Payment.Amount }

func (n *PaymentNode) Year() string {
	year, _ := yearMonth(n.Payment.Date)
	return year
}

func (n *PaymentNode) Month() int {
	_, month := yearMonth(n.Payment.Date)
	return month
}

// Orders returns the linked order children.
func (n *PaymentNode) Orders() []*OrderNode {
	var orders []*OrderNode
	for _, child := range n.children {
		if o, ok := child.(*OrderNode); ok {
			orders = append(orders, o)
		}
	}
	return orders
}

// Invoices returns the linked invoice children.
func (n *PaymentNode) Invoices() []*InvoiceNode {
	var invoices []*InvoiceNode
	for _, child := range n.children {
		if i, ok := child.(*InvoiceNode); ok {
			invoices = append(invoices, i)
		}
	}
	return invoices
}

// Taxes sums the taxes of the linked invoices, or of the linked orders when
// no invoice is attached.
func (n *PaymentNode) Taxes() map[string]string {
	var nodes []Node
	for _, i := range n.Invoices() {
		nodes = append(nodes, i)
	}
	if len(nodes) == 0 {
		for _, o := range n.Orders() {
			nodes = append(nodes, o)
		}
	}
	return sumTaxes(nodes)
}

// InvoicesAmount sums the gross totals of the linked invoices.
func (n *PaymentNode) InvoicesAmount() string {
	total := decimal.Zero
	for _, i := range n.Invoices() {
		if d, err := normalize.Decimal(i.Amount()); err == nil {
			total = total.Add(d)
		}
	}
	return normalize.Format(total)
}

// OrderNumbers returns the linked order numbers joined by ";", or
// models.NotAssigned.
func (n *PaymentNode) OrderNumbers() string {
	return joinOrNotAssigned(n.Payment.OrderIDs)
}

// InvoiceNumbers returns the linked invoice numbers joined by ";", or
// models.NotAssigned.
func (n *PaymentNode) InvoiceNumbers() string {
	return joinOrNotAssigned(n.Payment.InvoiceIDs)
}

func (n *PaymentNode) Export() Record {
	var orders, invoices []Node
	for _, o := range n.Orders() {
		orders = append(orders, o)
	}
	for _, i := range n.Invoices() {
		invoices = append(invoices, i)
	}

	return Record{
		Kind:           KindPayment,
		ID:             n.Identifier(),
		Date:           n.Date(),
		Amount:         n.Amount(),
		Name:           n.Payment.Name,
		Confidence:     string(n.Payment.Confidence),
		OrderNumbers:   n.OrderNumbers(),
		InvoiceNumbers: n.InvoiceNumbers(),
		Taxes:          n.Taxes(),
		Orders:         exportSorted(orders),
		Invoices:       exportSorted(invoices),
	}
}

// OrderNode wraps an order. Invoices billed for it may be added as children.
type OrderNode struct {
	Composite
	parentLink

	Order models.Order
}

// NewOrderNode creates an order node without children.
func NewOrderNode(order models.Order) *OrderNode {
	n := &OrderNode{Order: order}
	n.owner = n
	return n
}

func (n *OrderNode) Identifier() string { return n.Order.ID }
func (n *OrderNode) Date() string       { return n.Order.Date }
func (n *OrderNode) Amount() string     { return n.Order.GrossTotal }

func (n *OrderNode) Year() string {
	year, _ := yearMonth(n.Order.Date)
	return year
}

func (n *OrderNode) Month() int {
	_, month := yearMonth(n.Order.Date)
	return month
}

// Taxes sums the line item tax amounts per rate.
func (n *OrderNode) Taxes() map[string]string {
	totals := make(map[string]decimal.Decimal)
	for _, item := range n.Order.LineItems {
		if item.TaxRate == "" {
			continue
		}
		d, err := normalize.Decimal(item.TaxAmount)
		if err != nil {
			continue
		}
		totals[item.TaxRate] = totals[item.TaxRate].Add(d)
	}
	return formatTaxes(totals)
}

func (n *OrderNode) Export() Record {
	name := n.Order.Name
	if name == "" {
		name = strings.TrimSpace(n.Order.FirstName + " " + n.Order.LastName)
	}

	return Record{
		Kind:     KindOrder,
		ID:       n.Identifier(),
		Date:     n.Date(),
		Amount:   n.Amount(),
		Name:     name,
		Taxes:    n.Taxes(),
		Invoices: n.Records(),
	}
}

// InvoiceNode wraps a parsed invoice document. It has no children.
type InvoiceNode struct {
	parentLink

	Invoice models.InvoiceDocument
}

// NewInvoiceNode creates an invoice node.
func NewInvoiceNode(invoice models.InvoiceDocument) *InvoiceNode {
	return &InvoiceNode{Invoice: invoice}
}

func (n *InvoiceNode) Identifier() string       { return n.Invoice.ID }
func (n *InvoiceNode) Date() string             { return n.Invoice.Date }
func (n *InvoiceNode) Amount() string           { return n.Invoice.GrossTotal }
func (n *InvoiceNode) Taxes() map[string]string { return n.Invoice.Taxes() }

func (n *InvoiceNode) Year() string {
	year, _ := yearMonth(n.Invoice.Date)
	return year
}

func (n *InvoiceNode) Month() int {
	_, month := yearMonth(n.Invoice.Date)
	return month
}

func (n *InvoiceNode) Export() Record {
	return Record{
		Kind:   KindInvoice,
		ID:     n.Identifier(),
		Date:   n.Date(),
		Amount: n.Amount(),
		Taxes:  n.Taxes(),
	}
}

func sumTaxes(nodes []Node) map[string]string {
	totals := make(map[string]decimal.Decimal)
	for _, n := range nodes {
		for rate, amount := range n.Taxes() {
			d, err := normalize.Decimal(amount)
			if err != nil {
				continue
			}
			totals[rate] = totals[rate].Add(d)
		}
	}
	return formatTaxes(totals)
}

func formatTaxes(totals map[string]decimal.Decimal) map[string]string {
	taxes := make(map[string]string, len(totals))
	for rate, total := range totals {
		taxes[rate] = normalize.Format(total)
	}
	return taxes
}

func joinOrNotAssigned(ids []string) string {
	if len(ids) == 0 {
		return models.NotAssigned
	}
	return strings.Join(ids, ";")
}
