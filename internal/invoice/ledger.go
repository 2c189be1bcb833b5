package invoice

import (
	"strings"

	"bookrecon/pkg/models"
)

// parseLedger reads documents whose number does not start with "R".
func (p *Parser) parseLedger(doc *models.InvoiceDocument, lines []string) result {
	var res result
	shippingOK := false

	for _, line := range lines {
		if strings.Contains(line, "Versandkosten:") {
			res.shippingFound = true
			if v, ok := amount(strings.ReplaceAll(line, "Versandkosten:", "")); ok {
				doc.ShippingCost = v
				shippingOK = true
			}
		}

		if strings.Contains(line, "Gesamtbetrag") {
			value := strings.TrimLeft(strings.ReplaceAll(line, "Gesamtbetrag", ""), ": ")
			if v, ok := amount(value); ok {
				doc.GrossTotal = v
			}
		}
	}

	if !doc.HasTotal() {
		res.fallback(FieldGrossTotal)
	}
	if res.shippingFound && !shippingOK {
		res.fallback(FieldShippingCost)
	}

	if !p.ledgerTaxes(doc, lines) {
		res.fallback(FieldTaxBreakdown)
	}

	return res
}

// ledgerTaxes fills the tax breakdown from the costs window.
func (p *Parser) ledgerTaxes(doc *models.InvoiceDocument, lines []string) bool {
	costs, ok := CostsWindow(lines)
	if !ok || len(costs) < 2 {
		return false
	}

	labels := [2]string{taxLabel(costs[0]), taxLabel(costs[1])}
	tokens, ok := CostsWindowTaxes(costs)
	if !ok {
		p.log.Debug().Str("invoice", doc.ID).Int("window", len(costs)).Msg("Costs window does not match any known layout")
		return false
	}

	for i, label := range labels {
		if !models.IsTaxRate(label) {
			return false
		}
		v, ok := amount(tokens[i])
		if !ok {
			return false
		}
		doc.TaxBreakdown[label] = models.TaxShare{Net: models.NotAvailable, Tax: v}
	}
	return true
}

// CostsWindow returns the lines from the first "Nettobetrag" to the first
// "Gesamtbetrag". Documents laid out in reverse end at the last "EUR" instead.
func CostsWindow(lines []string) ([]string, bool) {
	start := indexContaining(lines, "Nettobetrag")
	end := indexContaining(lines, "Gesamtbetrag")
	if start < 0 || end < 0 {
		return nil, false
	}

	if start > end {
		end = lastIndexContaining(lines, "EUR")
	}
	if end < start {
		return nil, false
	}

	return lines[start : end+1], true
}

// CostsWindowTaxes selects the reduced and full tax tokens of a costs window.
// The offsets depend on the window length; each bucket is a layout variant seen
// in issued documents.
func CostsWindowTaxes(costs []string) ([2]string, bool) {
	var reduced, full string
	var ok bool

	switch n := len(costs); {
	case n < 8:
		fields := strings.Fields(strings.ReplaceAll(lineAt(costs, 4), "MwSt. gesamt:", ""))
		reduced, ok = token(fields, 0)
		if len(fields) >= 3 {
			full = fields[1]
		} else {
			full, ok = lineOK(costs, 5, ok)
		}

	case n == 9:
		reduced = afterColon(costs[4])
		full = costs[5]
		ok = true

		if strings.Contains(costs[5], "MwSt. gesamt") {
			fields := strings.Fields(afterColon(costs[5]))
			reduced, ok = token(fields, 0)
			full, ok = tokenOK(fields, 1, ok)
		}
		if strings.Contains(costs[6], "MwSt. gesamt") {
			reduced = afterColon(costs[6])
			full = costs[7]
			ok = true
		}

	case n == 10 || n == 11:
		at := 5
		if strings.Contains(costs[6], "MwSt.") {
			at = 6
		}
		reduced, ok = token(strings.Fields(afterColon(costs[at])), 0)
		full, ok = tokenOK(strings.Fields(costs[at+1]), 0, ok)

	default:
		reduced, ok = token(strings.Fields(lineAt(costs, 5)), 0)
		if reduced == "MwSt." {
			reduced = afterColon(costs[5])
			full, ok = lineOK(costs, 6, ok)
		} else {
			full, ok = tokenOK(strings.Fields(lineAt(costs, 2)), 2, ok)
		}
	}

	return [2]string{reduced, full}, ok
}

// taxLabel turns "Nettobetrag 7%:" into "7%".
func taxLabel(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return ""
	}
	label := strings.ReplaceAll(string(runes[:len(runes)-1]), "Nettobetrag", "")
	label = strings.ReplaceAll(label, " ", "")
	label = strings.Replace(label, ",00", "", 1)
	if label != "" && !strings.HasSuffix(label, "%") {
		label += "%"
	}
	return label
}

func afterColon(s string) string {
	return s[strings.LastIndex(s, ":")+1:]
}

// lineAt returns costs[i] or "" when i is out of range.
func lineAt(costs []string, i int) string {
	if i < 0 || i >= len(costs) {
		return ""
	}
	return costs[i]
}

func lineOK(costs []string, i int, ok bool) (string, bool) {
	if i < 0 || i >= len(costs) {
		return "", false
	}
	return costs[i], ok
}

func token(fields []string, i int) (string, bool) {
	return tokenOK(fields, i, true)
}

func tokenOK(fields []string, i int, ok bool) (string, bool) {
	if i < 0 || i >= len(fields) {
		return "", false
	}
	return fields[i], ok
}
