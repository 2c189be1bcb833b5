package models

import (
	"strings"

	"github.com/google/uuid"
)

// NotAssigned is rendered for order or invoice numbers of unmatched payments.
const NotAssigned = "nicht zugeordnet"

// PaymentKind discriminates the payment source, resolved once at ingestion.
type PaymentKind string

const (
	KindGateway      PaymentKind = "gateway" // payment provider export (PayPal)
	KindBankTransfer PaymentKind = "bank"    // bank statement line (Volksbank)
)

// PaymentMethod distinguishes shop checkouts from plain transfers on a gateway.
type PaymentMethod string

const (
	MethodShopOrder PaymentMethod = "Shopbestellung"
	MethodTransfer  PaymentMethod = "Überweisung"
)

type Payment struct {
	// Core identifiers
	ID       string      `json:"id"`
	Kind     PaymentKind `json:"kind"`
	Date     string      `json:"date"`   // ISO date
	Amount   string      `json:"amount"` // 2-decimal string
	Currency string      `json:"currency,omitempty"`
	Name     string      `json:"name"` // Payer

	// Exactly one of these is set, matching Kind
	Gateway *GatewayDetails `json:"gateway,omitempty"`
	Bank    *BankDetails    `json:"bank,omitempty"`

	// Match results
	Confidence Confidence `json:"confidence"`
	OrderIDs   []string   `json:"linked_order_ids"`
	InvoiceIDs []string   `json:"linked_invoice_ids"`
	Unresolved []string   `json:"unresolved_invoice_ids,omitempty"` // referenced but not available
	Ambiguous  bool       `json:"ambiguous,omitempty"`              // top candidates tied on score
}

// GatewayDetails carries the contact fields a payment provider exports.
type GatewayDetails struct {
	Provider        string        `json:"provider"`
	TransactionCode string        `json:"transaction_code,omitempty"`
	Method          PaymentMethod `json:"method,omitempty"`
	Email           string        `json:"email,omitempty"`
	Phone           string        `json:"phone,omitempty"`
	Address         string        `json:"address,omitempty"` // free-text address line
	PostalCode      string        `json:"postal_code,omitempty"`
	City            string        `json:"city,omitempty"`
	Country         string        `json:"country,omitempty"`
	Fee             string        `json:"fee,omitempty"`
	Net             string        `json:"net,omitempty"`
}

// BankDetails carries the free-text memo of a bank statement line.
type BankDetails struct {
	Reference string `json:"reference"`
}

// Identifier returns the transaction code of gateway payments and the ID otherwise.
func (p *Payment) Identifier() string {
	if p.Kind == KindGateway && p.Gateway != nil && p.Gateway.TransactionCode != "" {
		return p.Gateway.TransactionCode
	}
	return p.ID
}

// Reference returns the free-text memo, empty for gateway payments.
func (p *Payment) Reference() string {
	if p.Bank == nil {
		return ""
	}
	return p.Bank.Reference
}

// Raise sets the confidence to c when c ranks above the current value.
// A manually confirmed payment keeps its confidence.
func (p *Payment) Raise(c Confidence) {
	if p.Confidence == Manuell {
		return
	}
	if !p.Confidence.Valid() || c.Stronger(p.Confidence) {
		p.Confidence = c
	}
}

// Confirm marks the payment as manually confirmed.
func (p *Payment) Confirm() {
	p.Confidence = Manuell
}

// Assigned reports whether the match needs no further review.
func (p *Payment) Assigned() bool {
	return p.Confidence == Sicher || p.Confidence == Manuell
}

// Clone returns a deep copy so matching never writes to caller-owned records.
func (p Payment) Clone() Payment {
	c := p
	c.OrderIDs = append([]string(nil), p.OrderIDs...)
	c.InvoiceIDs = append([]string(nil), p.InvoiceIDs...)
	c.Unresolved = append([]string(nil), p.Unresolved...)
	if p.Gateway != nil {
		g := *p.Gateway
		c.Gateway = &g
	}
	if p.Bank != nil {
		b := *p.Bank
		c.Bank = &b
	}
	return c
}

// BankIdentifier derives a stable identifier for a bank statement line.
func BankIdentifier(date, name, amount, reference string) string {
	key := strings.Join([]string{date, name, amount, reference}, "\x1f")
	return uuid.NewMD5(uuid.NameSpaceOID, []byte(key)).String()
}
