package reconciliation

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"bookrecon/internal/normalize"
	"bookrecon/pkg/models"
)

var (
	// "20" + 9 digits (receipt invoices, stored with an "R" prefix) or "9" + 11 digits
	invoicePattern = regexp.MustCompile(`20\d{9}|9\d{11}`)

	bareOrderPattern = regexp.MustCompile(`^\d{6}$`)
)

// ExtractOrderNumbers finds order numbers in a memo: tokens containing
// "<prefix>-", and bare 6-digit tokens which get the prefix prepended.
func ExtractOrderNumbers(reference, prefix string) []string {
	if prefix == "" {
		return nil
	}

	var numbers []string
	for _, token := range strings.Fields(reference) {
		token = strings.Trim(token, ".,;:()[]")
		switch {
		case token == prefix:
			continue
		case strings.Contains(token, prefix+"-"):
			numbers = appendUnique(numbers, token)
		case bareOrderPattern.MatchString(token):
			numbers = appendUnique(numbers, prefix+"-"+token)
		}
	}
	return numbers
}

// ExtractInvoiceNumbers finds invoice numbers in a memo. Numbers split by
// spaces ("2023 0012 345") are found by a second pass over the joined text.
func ExtractInvoiceNumbers(reference string) []string {
	text := stripPunctuation(strings.ReplaceAll(reference, "/", " "))

	matches := invoicePattern.FindAllString(text, -1)
	if len(matches) == 0 {
		joined := strings.Join(strings.Fields(text), "")
		matches = invoicePattern.FindAllString(joined, -1)
	}

	var numbers []string
	for _, match := range matches {
		if strings.HasPrefix(match, "2") {
			match = "R" + match
		}
		numbers = appendUnique(numbers, match)
	}
	return numbers
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 128 && strings.ContainsRune("!\"#$%&'()*+,-.:;<=>?@[\\]^_`{|}~", r) {
			return -1
		}
		return r
	}, s)
}

// matchBank links a bank payment through the numbers written in its memo.
func (e *Engine) matchBank(payment *models.Payment, p *pool, log zerolog.Logger) {
	reference := payment.Reference()

	explicit, unresolved := p.resolve(ExtractInvoiceNumbers(reference))
	payment.Unresolved = unresolved
	p.logUnresolved(log, "", unresolved)

	var orders []*models.Order
	for _, number := range ExtractOrderNumbers(reference, e.cfg.OrderPrefix) {
		if order, ok := p.orderByID[number]; ok {
			orders = append(orders, order)
			payment.OrderIDs = append(payment.OrderIDs, order.ID)
		}
	}

	// Invoices named in the memo that add up to the amount are a one-to-one hit.
	if len(explicit) > 0 && p.invoicesTotalEquals(explicit, payment.Amount) {
		payment.InvoiceIDs = explicit
		payment.Raise(models.Sicher)
		return
	}

	var derived []string
	for _, order := range orders {
		resolved, unresolved := p.resolve(p.fulfillment[order.ID])
		derived = appendUnique(derived, resolved...)
		payment.Unresolved = appendUnique(payment.Unresolved, unresolved...)
		p.logUnresolved(log, order.ID, unresolved)
	}

	switch {
	case len(derived) > 0 && p.invoicesTotalEquals(derived, payment.Amount):
		payment.InvoiceIDs = derived
		payment.Raise(models.FastSicher)
	case len(orders) > 0 && ordersTotalEquals(orders, payment.Amount):
		payment.InvoiceIDs = derived
		payment.Raise(models.FastSicher)
	case len(explicit) > 0:
		payment.InvoiceIDs = explicit
	default:
		payment.InvoiceIDs = derived
	}
}

func ordersTotalEquals(orders []*models.Order, amount string) bool {
	totals := make([]string, 0, len(orders))
	for _, order := range orders {
		totals = append(totals, order.GrossTotal)
	}
	sum, err := normalize.Sum(totals...)
	return err == nil && normalize.Equal(sum, amount)
}
