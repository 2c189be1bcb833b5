package reconciliation

import (
	"time"

	"github.com/rs/zerolog"

	"bookrecon/internal/normalize"
	"bookrecon/pkg/models"
)

// matchGateway links a gateway payment to an order, or to an invoice when no
// order qualifies.
func (e *Engine) matchGateway(payment *models.Payment, p *pool, log zerolog.Logger) {
	// The transaction code identifies the order regardless of date and amount.
	if code := payment.Gateway.TransactionCode; code != "" {
		if order, ok := p.orderByCode[code]; ok {
			payment.Raise(models.Sicher)
			e.linkOrder(payment, order, p, log)
			return
		}
	}

	paymentDate, _ := normalize.ParseDate(payment.Date)

	if best, tied, ok := e.bestOrder(payment, paymentDate, p); ok {
		if tied {
			payment.Ambiguous = true
			log.Warn().
				Err(ErrAmbiguousMatch).
				Str("order", best.order.ID).
				Int("score", best.score).
				Msg("Order candidates tied, keeping the first one")
		}
		e.linkOrder(payment, best.order, p, log)
	} else if invoice, ok := e.firstInvoice(payment, paymentDate, p); ok {
		payment.InvoiceIDs = []string{invoice.ID}
	}

	if !payment.Assigned() && len(payment.InvoiceIDs) > 0 && p.invoicesTotalEquals(payment.InvoiceIDs, payment.Amount) {
		payment.Raise(models.FastSicher)
	}
}

// bestOrder collects the orders passing the amount gate and the date window and
// returns the highest scoring one.
func (e *Engine) bestOrder(payment *models.Payment, paymentDate time.Time, p *pool) (candidate, bool, bool) {
	var candidates []candidate

	for _, entry := range p.orders {
		if !normalize.Equal(entry.order.GrossTotal, payment.Amount) {
			continue
		}
		if !e.inOrderWindow(paymentDate, entry.date) {
			continue
		}
		candidates = append(candidates, candidate{
			order: entry.order,
			score: Score(payment, entry.order),
		})
	}

	if len(candidates) == 0 {
		return candidate{}, false, false
	}

	best, tied := rank(candidates)
	return best, tied, true
}

func (e *Engine) inOrderWindow(paymentDate, orderDate time.Time) bool {
	if e.cfg.Direction == PaymentBeforeOrder {
		return normalize.WithinDays(paymentDate, orderDate, e.cfg.GatewayWindowDays)
	}
	return normalize.WithinDays(orderDate, paymentDate, e.cfg.GatewayWindowDays)
}

// firstInvoice returns the earliest invoice whose total equals the payment amount
// and which was issued at most InvoiceWindowDays before the payment.
func (e *Engine) firstInvoice(payment *models.Payment, paymentDate time.Time, p *pool) (*models.InvoiceDocument, bool) {
	for _, entry := range p.chronological {
		if !entry.invoice.HasTotal() || !normalize.Equal(entry.invoice.GrossTotal, payment.Amount) {
			continue
		}
		if normalize.WithinDays(entry.date, paymentDate, e.cfg.InvoiceWindowDays) {
			return entry.invoice, true
		}
	}
	return nil, false
}

// linkOrder attaches the order and its resolvable invoices to the payment.
func (e *Engine) linkOrder(payment *models.Payment, order *models.Order, p *pool, log zerolog.Logger) {
	payment.OrderIDs = []string{order.ID}

	resolved, unresolved := p.resolve(p.fulfillment[order.ID])
	payment.InvoiceIDs = resolved
	payment.Unresolved = unresolved
	p.logUnresolved(log, order.ID, unresolved)
}
