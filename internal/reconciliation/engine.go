// Package reconciliation links payments to the orders and invoices they settle.
//
// Every payment passes the same stages:
//  1. validation: unreadable amounts or dates and missing kind details route the
//     payment to Result.Errors.
//  2. screening: withdrawals and blocklisted payers or memos go to Result.Blocked
//     before any matching is attempted.
//  3. matching: gateway payments by transaction code, then by scored candidates
//     within the order window, then by the first invoice within the invoice window.
//     Bank payments by the order and invoice numbers written in their memo.
//
// Inputs are never modified. Each run works on copies and returns them together
// with a composite tree of the matched payments.
package reconciliation

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bookrecon/internal/composite"
	"bookrecon/internal/logger"
	"bookrecon/internal/normalize"
	"bookrecon/pkg/models"
)

// Input bundles the records of one reconciliation run.
type Input struct {
	Payments    []models.Payment
	Orders      []models.Order
	Fulfillment []models.FulfillmentRecord
	Invoices    []models.InvoiceDocument
}

// Result holds the reconciled payments in input order.
type Result struct {
	RunID    string
	Payments []models.Payment
	Blocked  []models.Payment
	Errors   []*RecordError
	Tree     *composite.Tree
}

// Counts returns the number of reconciled payments per confidence.
func (r *Result) Counts() map[models.Confidence]int {
	counts := make(map[models.Confidence]int)
	for _, p := range r.Payments {
		counts[p.Confidence]++
	}
	return counts
}

// Engine matches payments using one fixed configuration. It holds no state
// between runs and may be shared by concurrent callers.
type Engine struct {
	cfg       Config
	blocklist Blocklist
}

// NewEngine validates cfg and creates an engine.
func NewEngine(cfg Config) (*Engine, error) {
	const op = "NewEngine"

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidConfig, err)
	}

	return &Engine{
		cfg:       cfg,
		blocklist: NewBlocklist(cfg.Blocklist),
	}, nil
}

// Reconcile is a shorthand for NewEngine(cfg) followed by Engine.Reconcile.
func Reconcile(cfg Config, payments []models.Payment, orders []models.Order, records []models.FulfillmentRecord, invoices []models.InvoiceDocument) (*Result, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return engine.Reconcile(Input{
		Payments:    payments,
		Orders:      orders,
		Fulfillment: records,
		Invoices:    invoices,
	}), nil
}

// Reconcile matches every payment of the input. Payments are processed in input
// order, which decides ties between equally scored candidates.
func (e *Engine) Reconcile(in Input) *Result {
	runID := uuid.NewString()
	log := logger.ForRun("reconciliation", runID)
	startTime := time.Now()

	p := newPool(in.Orders, in.Fulfillment, in.Invoices)
	res := &Result{
		RunID:    runID,
		Payments: make([]models.Payment, 0, len(in.Payments)),
		Tree:     composite.NewTree(),
	}

	log.Info().
		Int("payments", len(in.Payments)).
		Int("orders", len(in.Orders)).
		Int("invoices", len(in.Invoices)).
		Msg("Starting reconciliation")

	for i := range in.Payments {
		payment := in.Payments[i].Clone()

		if err := validatePayment(i, &payment); err != nil {
			err.Payment = in.Payments[i].Clone()
			log.Error().Err(err).Int("index", i).Msg("Payment routed to errors")
			res.Errors = append(res.Errors, err)
			continue
		}

		manual := payment.Confidence == models.Manuell
		if !manual {
			reset(&payment)
		}

		if reason, blocked := e.screen(&payment); blocked {
			log.Info().Str("payment", payment.Identifier()).Str("reason", reason).Msg("Payment blocked")
			res.Blocked = append(res.Blocked, payment)
			continue
		}

		plog := log.With().Str("payment", payment.Identifier()).Str("kind", string(payment.Kind)).Logger()
		if manual {
			plog.Debug().Msg("Keeping manually confirmed match")
		} else {
			switch payment.Kind {
			case models.KindGateway:
				e.matchGateway(&payment, p, plog)
			case models.KindBankTransfer:
				e.matchBank(&payment, p, plog)
			}
		}
		ensureLinks(&payment)

		plog.Debug().
			Str("confidence", string(payment.Confidence)).
			Strs("orders", payment.OrderIDs).
			Strs("invoices", payment.InvoiceIDs).
			Msg("Payment reconciled")

		res.Payments = append(res.Payments, payment)
		res.Tree.Add(p.node(payment))
	}

	counts := res.Counts()
	log.Info().
		Int("reconciled", len(res.Payments)).
		Int("blocked", len(res.Blocked)).
		Int("errors", len(res.Errors)).
		Int("sicher", counts[models.Sicher]).
		Int("fast_sicher", counts[models.FastSicher]).
		Int("unsicher", counts[models.Unsicher]).
		Dur("duration", time.Since(startTime)).
		Msg("Reconciliation completed")

	return res
}

// validatePayment normalizes amount and date in place and checks the kind.
func validatePayment(index int, payment *models.Payment) *RecordError {
	const op = "validatePayment"

	id := payment.Identifier()
	if id == "" {
		id = fmt.Sprintf("#%d", index)
	}

	amount, err := normalize.Amount(payment.Amount)
	if err != nil {
		return NewRecordError(op, id, fmt.Sprintf("amount %q", payment.Amount))
	}
	payment.Amount = amount

	date, err := normalize.Date(payment.Date)
	if err != nil {
		return NewRecordError(op, id, fmt.Sprintf("date %q", payment.Date))
	}
	payment.Date = date

	switch payment.Kind {
	case models.KindGateway:
		if payment.Gateway == nil {
			return NewRecordError(op, id, "gateway payment without gateway details")
		}
	case models.KindBankTransfer:
		if payment.Bank == nil {
			return NewRecordError(op, id, "bank payment without memo")
		}
		if payment.ID == "" {
			payment.ID = models.BankIdentifier(payment.Date, payment.Name, payment.Amount, payment.Bank.Reference)
		}
	default:
		return NewRecordError(op, id, fmt.Sprintf("unknown payment kind %q", payment.Kind))
	}

	return nil
}

// reset drops match results of an earlier run so reconciling twice gives the same output.
func reset(payment *models.Payment) {
	payment.Confidence = models.Unsicher
	payment.OrderIDs = []string{}
	payment.InvoiceIDs = []string{}
	payment.Unresolved = nil
	payment.Ambiguous = false
}

func ensureLinks(payment *models.Payment) {
	if payment.OrderIDs == nil {
		payment.OrderIDs = []string{}
	}
	if payment.InvoiceIDs == nil {
		payment.InvoiceIDs = []string{}
	}
}

// screen reports whether the payment is excluded from matching.
func (e *Engine) screen(payment *models.Payment) (string, bool) {
	if d, err := normalize.Decimal(payment.Amount); err == nil && d.IsNegative() {
		return "withdrawal", true
	}
	if entity, ok := e.blocklist.Match(payment); ok {
		return "blocklist: " + entity, true
	}
	return "", false
}

// pool indexes the read-only order and invoice records of a run.
type pool struct {
	orders        []orderEntry
	orderByID     map[string]*models.Order
	orderByCode   map[string]*models.Order
	invoices      map[string]*models.InvoiceDocument
	chronological []invoiceEntry
	fulfillment   map[string][]string
}

type orderEntry struct {
	order *models.Order
	date  time.Time
}

type invoiceEntry struct {
	invoice *models.InvoiceDocument
	date    time.Time
}

func newPool(orders []models.Order, records []models.FulfillmentRecord, invoices []models.InvoiceDocument) *pool {
	p := &pool{
		orderByID:   make(map[string]*models.Order, len(orders)),
		orderByCode: make(map[string]*models.Order),
		invoices:    make(map[string]*models.InvoiceDocument, len(invoices)),
		fulfillment: make(map[string][]string, len(records)),
	}

	for i := range orders {
		order := &orders[i]
		if _, ok := p.orderByID[order.ID]; !ok {
			p.orderByID[order.ID] = order
		}
		if order.Settlement.HasTransactionCode() {
			if _, ok := p.orderByCode[order.Settlement.TransactionCode]; !ok {
				p.orderByCode[order.Settlement.TransactionCode] = order
			}
		}
		// Orders with unreadable dates can still match by code or number.
		if date, err := normalize.ParseDate(order.Date); err == nil {
			p.orders = append(p.orders, orderEntry{order: order, date: date})
		}
	}

	for i := range invoices {
		invoice := &invoices[i]
		if _, ok := p.invoices[invoice.ID]; ok {
			continue
		}
		p.invoices[invoice.ID] = invoice
		if date, err := normalize.ParseDate(invoice.Date); err == nil {
			p.chronological = append(p.chronological, invoiceEntry{invoice: invoice, date: date})
		}
	}
	sort.SliceStable(p.chronological, func(i, j int) bool {
		return p.chronological[i].date.Before(p.chronological[j].date)
	})

	for _, record := range records {
		p.fulfillment[record.OrderID] = appendUnique(p.fulfillment[record.OrderID], record.InvoiceNumbers()...)
	}

	return p
}

// resolve splits invoice numbers into those with a parsed document and the rest.
func (p *pool) resolve(numbers []string) (resolved, unresolved []string) {
	for _, number := range numbers {
		if _, ok := p.invoices[number]; ok {
			resolved = appendUnique(resolved, number)
		} else {
			unresolved = appendUnique(unresolved, number)
		}
	}
	return resolved, unresolved
}

// invoicesTotalEquals reports whether the gross totals of the invoices add up to amount.
func (p *pool) invoicesTotalEquals(ids []string, amount string) bool {
	totals := make([]string, 0, len(ids))
	for _, id := range ids {
		invoice, ok := p.invoices[id]
		if !ok || !invoice.HasTotal() {
			return false
		}
		totals = append(totals, invoice.GrossTotal)
	}
	sum, err := normalize.Sum(totals...)
	return err == nil && normalize.Equal(sum, amount)
}

// node builds the composite subtree of a reconciled payment.
func (p *pool) node(payment models.Payment) *composite.PaymentNode {
	node := composite.NewPaymentNode(payment)
	for _, id := range payment.OrderIDs {
		if order, ok := p.orderByID[id]; ok {
			node.Add(composite.NewOrderNode(*order))
		}
	}
	for _, id := range payment.InvoiceIDs {
		if invoice, ok := p.invoices[id]; ok {
			node.Add(composite.NewInvoiceNode(*invoice))
		}
	}
	return node
}

func (p *pool) logUnresolved(log zerolog.Logger, orderID string, numbers []string) {
	for _, number := range numbers {
		log.Warn().
			Err(ErrUnresolvedReference).
			Str("order", orderID).
			Str("invoice", number).
			Msg("Invoice number has no parsed document")
	}
}

// appendUnique appends the values not yet present, keeping first-seen order.
func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, existing := range list {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			list = append(list, v)
		}
	}
	return list
}
