// Package composite arranges reconciled payments, orders and invoices in a tree
// and computes the rollups reporting needs: monthly revenue, best sellers and
// customer contacts.
//
// Containers own their children. A child's parent handle is a lookup link set
// by Add and cleared by Remove; nodes never own their parent.
package composite

import (
	"sort"
	"time"

	"bookrecon/internal/normalize"
)

// Node is one element of the tree.
type Node interface {
	Identifier() string
	Date() string // ISO date
	Year() string
	Month() int
	Amount() string
	Taxes() map[string]string
	Export() Record

	// Parent returns the container holding this node, or nil.
	Parent() Container
	setParent(Container)
}

// Container is a node or tree that holds children.
type Container interface {
	Add(child Node)
	Remove(child Node) bool
	Children() []Node
}

// Record is the flattened form of a node.
type Record struct {
	Kind           string            `json:"kind"`
	ID             string            `json:"id"`
	Date           string            `json:"date"`
	Amount         string            `json:"amount"`
	Name           string            `json:"name,omitempty"`
	Confidence     string            `json:"confidence,omitempty"`
	OrderNumbers   string            `json:"order_numbers,omitempty"`
	InvoiceNumbers string            `json:"invoice_numbers,omitempty"`
	Taxes          map[string]string `json:"taxes,omitempty"`
	Orders         []Record          `json:"orders,omitempty"`
	Invoices       []Record          `json:"invoices,omitempty"`
}

// Record kinds
const (
	KindPayment = "payment"
	KindOrder   = "order"
	KindInvoice = "invoice"
)

// Composite holds an ordered list of children. It is embedded by every
// container type, which registers itself as owner.
type Composite struct {
	owner    Container
	children []Node
}

// Add appends child and points its parent handle at the owner. A child still
// attached elsewhere is detached first.
func (c *Composite) Add(child Node) {
	if old := child.Parent(); old != nil {
		old.Remove(child)
	}
	c.children = append(c.children, child)
	child.setParent(c.owner)
}

// Remove detaches child. It reports false when child is not held here.
func (c *Composite) Remove(child Node) bool {
	for i, n := range c.children {
		if n == child {
			c.children = append(c.children[:i], c.children[i+1:]...)
			child.setParent(nil)
			return true
		}
	}
	return false
}

// Children returns the children in insertion order.
func (c *Composite) Children() []Node {
	return append([]Node(nil), c.children...)
}

// Len returns the number of children.
func (c *Composite) Len() int {
	return len(c.children)
}

// Get returns the first child with the given identifier.
func (c *Composite) Get(id string) (Node, bool) {
	for _, n := range c.children {
		if n.Identifier() == id {
			return n, true
		}
	}
	return nil, false
}

// Has reports whether a child with the given identifier exists.
func (c *Composite) Has(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// Filter returns the children for which keep returns true.
func (c *Composite) Filter(keep func(Node) bool) []Node {
	var nodes []Node
	for _, n := range c.children {
		if keep(n) {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Records exports all children sorted by date. Children with equal dates keep
// their insertion order.
func (c *Composite) Records() []Record {
	return exportSorted(c.children)
}

func exportSorted(nodes []Node) []Record {
	sorted := append([]Node(nil), nodes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date() < sorted[j].Date()
	})

	records := make([]Record, 0, len(sorted))
	for _, n := range sorted {
		records = append(records, n.Export())
	}
	return records
}

type parentLink struct {
	parent Container
}

func (l *parentLink) Parent() Container {
	return l.parent
}

func (l *parentLink) setParent(c Container) {
	l.parent = c
}

// yearMonth splits an ISO date; unreadable dates give "" and 0.
func yearMonth(iso string) (string, int) {
	date, err := time.Parse(normalize.ISODate, iso)
	if err != nil {
		return "", 0
	}
	return date.Format("2006"), int(date.Month())
}
