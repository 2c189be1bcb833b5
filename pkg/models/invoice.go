package models

// NotAvailable marks a field whose anchor was missing from the source document.
const NotAvailable = "keine Angabe"

// DocumentFamily identifies which invoice layout produced a document.
type DocumentFamily string

const (
	FamilyReceipt DocumentFamily = "receipt" // identifier starts with "R"
	FamilyLedger  DocumentFamily = "ledger"  // all other identifiers
)

// TaxRates is the fixed set of labels a tax breakdown may use.
var TaxRates = []string{"0%", "5%", "7%", "16%", "19%"}

// IsTaxRate reports whether label is one of the known tax rate labels.
func IsTaxRate(label string) bool {
	for _, rate := range TaxRates {
		if rate == label {
			return true
		}
	}
	return false
}

// IsReducedRate reports whether label belongs to the reduced rate class (0%, 5%, 7%).
func IsReducedRate(label string) bool {
	return label == "0%" || label == "5%" || label == "7%"
}

type InvoiceDocument struct {
	// Core identifiers
	ID     string         `json:"id"`             // Invoice number (Vorgang)
	Date   string         `json:"date"`           // ISO date, taken from the file name
	File   string         `json:"file,omitempty"` // Source file name
	Family DocumentFamily `json:"document_family"`

	// Amounts as 2-decimal strings, or NotAvailable
	GrossTotal   string `json:"gross_total"`   // Gesamtbetrag
	ShippingCost string `json:"shipping_cost"` // Versandkosten

	// Breakdown by tax rate label ("7%", "19%", ...)
	TaxBreakdown map[string]TaxShare `json:"tax_breakdown"`
	Coupons      []Coupon            `json:"coupons,omitempty"`

	// Fields that fell back to a default while parsing
	Fallbacks []string `json:"fallbacks,omitempty"`
}

// TaxShare holds the net and tax amount of one rate. Net is NotAvailable when the
// layout only prints tax amounts.
type TaxShare struct {
	Net string `json:"net_share"`
	Tax string `json:"tax_share"`
}

// Coupon is a voucher redeemed on an invoice.
type Coupon struct {
	Count int    `json:"count"`
	Value string `json:"value"`
}

// HasTotal reports whether the gross total could be read from the document.
func (d *InvoiceDocument) HasTotal() bool {
	return d.GrossTotal != "" && d.GrossTotal != NotAvailable
}

// Taxes returns the tax share per rate label.
func (d *InvoiceDocument) Taxes() map[string]string {
	taxes := make(map[string]string, len(d.TaxBreakdown))
	for label, share := range d.TaxBreakdown {
		taxes[label] = share.Tax
	}
	return taxes
}
