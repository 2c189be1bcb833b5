package reconciliation

import (
	"sort"
	"strings"

	"bookrecon/pkg/models"
)

// Hit points awarded when a payment detail equals the order detail.
const (
	scoreFirstName  = 1
	scoreLastName   = 2
	scoreEmail      = 5
	scorePhone      = 5
	scoreStreet     = 2
	scorePostalCode = 1
)

// candidate is an order that passed the amount gate and the date window.
type candidate struct {
	order *models.Order
	score int
}

// Score rates how well a gateway payment's contact details fit an order.
// The payer name is split on whitespace; its first and last word are compared.
func Score(payment *models.Payment, order *models.Order) int {
	score := 0

	names := strings.Fields(payment.Name)
	if len(names) > 0 {
		if strings.EqualFold(names[0], order.FirstName) {
			score += scoreFirstName
		}
		if strings.EqualFold(names[len(names)-1], order.LastName) {
			score += scoreLastName
		}
	}

	details := payment.Gateway
	if details == nil {
		return score
	}

	if details.Email != "" && strings.EqualFold(details.Email, order.Email) {
		score += scoreEmail
	}
	if phone := NormalizePhone(details.Phone); phone != "" && phone == NormalizePhone(order.Phone) {
		score += scorePhone
	}
	if order.Street != "" && strings.Contains(strings.ToLower(details.Address), strings.ToLower(order.Street)) {
		score += scoreStreet
	}
	if details.PostalCode != "" && details.PostalCode == order.PostalCode {
		score += scorePostalCode
	}

	return score
}

// rank orders candidates by score, keeping input order among equal scores.
// It reports whether the two best candidates tied.
func rank(candidates []candidate) (best candidate, tied bool) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > 1 && candidates[0].score == candidates[1].score {
		tied = true
	}
	return candidates[0], tied
}

// NormalizePhone strips separators and reinstates the leading zero that
// spreadsheet exports drop ("1701234567.0" becomes "01701234567").
func NormalizePhone(phone string) string {
	phone = strings.TrimSuffix(strings.TrimSpace(phone), ".0")

	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || (r == '+' && b.Len() == 0) {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if digits == "" {
		return ""
	}
	if !strings.HasPrefix(digits, "0") && !strings.HasPrefix(digits, "+") {
		digits = "0" + digits
	}
	return digits
}
