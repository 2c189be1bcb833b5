package composite

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bookrecon/internal/normalize"
)

// ErrInvalidQuarter is returned for a quarter outside 1..4.
var ErrInvalidQuarter = errors.New("quarter must be between 1 and 4")

// Tree is the root container of one reconciliation run.
type Tree struct {
	Composite
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	t := &Tree{}
	t.owner = t
	return t
}

// Export flattens the tree into records sorted by date.
func (t *Tree) Export() []Record {
	return t.Records()
}

// Months returns the months covered by quarter; 0 selects the whole year.
func Months(quarter int) ([]int, error) {
	if quarter < 0 || quarter > 4 {
		return nil, fmt.Errorf("Months: %d: %w", quarter, ErrInvalidQuarter)
	}

	if quarter == 0 {
		return []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, nil
	}

	first := 1 + 3*(quarter-1)
	return []int{first, first + 1, first + 2}, nil
}

// RevenueReport sums the amounts of the children per month of year. Quarter 0
// covers the whole year. Every month of the range is present, with "0.00" when
// nothing was booked.
func (c *Composite) RevenueReport(year string, quarter int) (map[int]string, error) {
	const op = "RevenueReport"

	months, err := Months(quarter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	totals := make(map[int]decimal.Decimal, len(months))
	for _, m := range months {
		totals[m] = decimal.Zero
	}

	for _, n := range c.children {
		if n.Year() != year {
			continue
		}
		total, ok := totals[n.Month()]
		if !ok {
			continue
		}
		d, err := normalize.Decimal(n.Amount())
		if err != nil {
			continue
		}
		totals[n.Month()] = total.Add(d)
	}

	report := make(map[int]string, len(totals))
	for m, total := range totals {
		report[m] = normalize.Format(total)
	}
	return report, nil
}

// Orders returns the order nodes held directly or below payment nodes. An
// order linked from several payments is returned once.
func (c *Composite) Orders() []*OrderNode {
	var orders []*OrderNode
	seen := make(map[string]bool)

	add := func(o *OrderNode) {
		if seen[o.Identifier()] {
			return
		}
		seen[o.Identifier()] = true
		orders = append(orders, o)
	}

	for _, n := range c.children {
		switch node := n.(type) {
		case *OrderNode:
			add(node)
		case *PaymentNode:
			for _, o := range node.Orders() {
				add(o)
			}
		}
	}
	return orders
}

// RankEntry is the sold quantity of one product.
type RankEntry struct {
	SKU      string `json:"sku"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

// Ranking sums the purchased quantity per product across all orders and sorts
// by quantity, highest first. Products below minQuantity are left out. Products are
// keyed by SKU, or by title when the SKU is missing.
func (c *Composite) Ranking(minQuantity int) []RankEntry {
	var entries []RankEntry
	index := make(map[string]int)

	for _, o := range c.Orders() {
		for _, item := range o.Order.LineItems {
			key := item.SKU
			if key == "" {
				key = item.Title
			}

			i, ok := index[key]
			if !ok {
				i = len(entries)
				index[key] = i
				entries = append(entries, RankEntry{SKU: item.SKU, Title: item.Title})
			}
			entries[i].Quantity += item.Quantity
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Quantity > entries[j].Quantity
	})

	ranking := entries[:0]
	for _, e := range entries {
		if e.Quantity >= minQuantity {
			ranking = append(ranking, e)
		}
	}
	return ranking
}

// Contact is a customer address for newsletters.
type Contact struct {
	Salutation string `json:"salutation"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	LastOrder  string `json:"last_order"` // DD.MM.YYYY
}

// DefaultCutoff returns the date two years before now.
func DefaultCutoff(now time.Time) time.Time {
	return now.AddDate(-2, 0, 0)
}

// Contacts collects one contact per email address from orders placed on or
// after cutoff, keeping the newest order. Blocklisted addresses are skipped.
// Contacts are sorted by last order and last name, newest first.
func (c *Composite) Contacts(cutoff time.Time, blocklist []string) []Contact {
	blocked := make(map[string]bool, len(blocklist))
	for _, email := range blocklist {
		blocked[strings.ToLower(strings.TrimSpace(email))] = true
	}

	type dated struct {
		contact Contact
		date    string
	}

	orders := c.Orders()
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Date() > orders[j].Date()
	})

	var contacts []dated
	seen := make(map[string]bool)
	minDate := cutoff.Format(normalize.ISODate)

	for _, o := range orders {
		email := strings.ToLower(strings.TrimSpace(o.Order.Email))
		if email == "" || blocked[email] || seen[email] {
			continue
		}
		if o.Date() < minDate {
			continue
		}

		lastOrder, err := normalize.GermanDate(o.Date())
		if err != nil {
			continue
		}

		seen[email] = true
		contacts = append(contacts, dated{
			contact: Contact{
				Salutation: o.Order.Salutation,
				FirstName:  o.Order.FirstName,
				LastName:   o.Order.LastName,
				Email:      o.Order.Email,
				LastOrder:  lastOrder,
			},
			date: o.Date(),
		})
	}

	sort.SliceStable(contacts, func(i, j int) bool {
		if contacts[i].date != contacts[j].date {
			return contacts[i].date > contacts[j].date
		}
		return contacts[i].contact.LastName > contacts[j].contact.LastName
	})

	result := make([]Contact, 0, len(contacts))
	for _, d := range contacts {
		result = append(result, d.contact)
	}
	return result
}
