package models

type Order struct {
	// Core identifiers
	ID   string `json:"id"`   // e.g. "31234-123456"
	Date string `json:"date"` // ISO date

	// Customer contact
	Salutation string `json:"salutation,omitempty"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Street     string `json:"street,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`

	// Amounts as 2-decimal strings
	GrossTotal   string `json:"gross_total"`
	ShippingCost string `json:"shipping_cost"`

	LineItems  []LineItem `json:"line_items"`
	Settlement Settlement `json:"settlement"`
}

// LineItem is one purchased product of an order.
type LineItem struct {
	ID        string `json:"id"`
	SKU       string `json:"sku"` // ISBN for books
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	TaxRate   string `json:"tax_rate"` // "7%", "19%"
	TaxAmount string `json:"tax_amount"`
}

// Settlement names the gateway that settled an order.
type Settlement struct {
	Gateway         string `json:"gateway"`
	TransactionCode string `json:"transaction_code"` // "none" when settled outside a gateway
}

// HasTransactionCode reports whether the settlement carries a usable code.
func (s Settlement) HasTransactionCode() bool {
	return s.TransactionCode != "" && s.TransactionCode != "none"
}

// FulfillmentRecord correlates one order with the invoices issued for it.
type FulfillmentRecord struct {
	OrderID  string              `json:"order_id"`
	Invoices []InvoiceAllocation `json:"invoices"`
}

// InvoiceAllocation lists the line items billed on one invoice.
type InvoiceAllocation struct {
	Number      string   `json:"number"`
	LineItemIDs []string `json:"line_item_ids,omitempty"`
}

// InvoiceNumbers returns the invoice numbers in record order.
func (f FulfillmentRecord) InvoiceNumbers() []string {
	numbers := make([]string, 0, len(f.Invoices))
	for _, inv := range f.Invoices {
		numbers = append(numbers, inv.Number)
	}
	return numbers
}
