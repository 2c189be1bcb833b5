package invoice

import (
	"strconv"
	"strings"

	"bookrecon/pkg/models"
)

// receiptTaxRates are probed in this order; the first hit per rate class wins.
var receiptTaxRates = []string{"0", "5", "7", "16", "19"}

// parseReceipt reads documents whose number starts with "R".
func (p *Parser) parseReceipt(doc *models.InvoiceDocument, lines []string) result {
	var res result
	shippingOK := false

	for _, line := range lines {
		// Offsets are taken from the first identical line.
		at := indexOf(lines, line)

		if strings.Contains(line, "Rechnungsbetrag gesamt brutto") {
			if v, ok := amountAt(lines, at+1); ok {
				doc.GrossTotal = v
			}
		}

		// "versandt an" is followed by two address lines before the cost
		if strings.Contains(line, "Versandpauschale") || strings.Contains(line, "Versandkosten") || strings.Contains(line, "versandt an") {
			res.shippingFound = true
			if v, ok := amountAt(lines, at+2); ok {
				doc.ShippingCost = v
				shippingOK = true
			}
		}
	}

	if !doc.HasTotal() {
		res.fallback(FieldGrossTotal)
	}
	if res.shippingFound && !shippingOK {
		res.fallback(FieldShippingCost)
	}

	p.receiptTaxes(doc, lines, &res)
	p.receiptCoupons(doc, lines, &res)

	return res
}

func (p *Parser) receiptTaxes(doc *models.InvoiceDocument, lines []string, res *result) {
	reduced, full := false, false

	for _, rate := range receiptTaxRates {
		at := indexOf(lines, "MwSt. "+rate+",00 %")
		if at < 0 {
			continue
		}

		v, ok := amountAt(lines, at+2)
		if !ok {
			res.fallback(FieldTaxBreakdown)
			continue
		}

		label := rate + "%"
		class := &full
		if models.IsReducedRate(label) {
			class = &reduced
		}
		if *class {
			p.log.Debug().Str("invoice", doc.ID).Str("rate", label).Msg("Skipping second tax rate of the same class")
			continue
		}
		*class = true

		doc.TaxBreakdown[label] = models.TaxShare{Net: models.NotAvailable, Tax: v}
	}

	if len(doc.TaxBreakdown) == 0 {
		res.fallback(FieldTaxBreakdown)
	}
}

// receiptCoupons collects vouchers redeemed on the invoice. Voucher lines after the
// total belong to purchased vouchers and are skipped.
func (p *Parser) receiptCoupons(doc *models.InvoiceDocument, lines []string, res *result) {
	if indexOf(lines, "Gutschein") < 0 {
		return
	}

	checkpoint := 0
	if indexOf(lines, "Gesamt:") >= 0 {
		checkpoint = indexContaining(lines, "Gesamt:")
	}
	if indexOf(lines, "Gesamtbetrag") >= 0 {
		checkpoint = indexContaining(lines, "Gesamtbetrag")
	}

	for i, line := range lines {
		if line != "Gutschein" || i > checkpoint {
			continue
		}

		if i == 0 {
			res.fallback(FieldCoupons)
			continue
		}
		count, err := strconv.Atoi(lines[i-1])
		value, ok := amountAt(lines, i+2)
		if err != nil || !ok {
			res.fallback(FieldCoupons)
			continue
		}

		doc.Coupons = append(doc.Coupons, models.Coupon{Count: count, Value: value})
	}
}
