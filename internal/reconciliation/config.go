package reconciliation

import (
	"fmt"
	"strings"
)

// Direction states which side of a match is expected to lag.
type Direction int

const (
	// PaymentAfterOrder accepts payments dated from the order date up to W days later.
	PaymentAfterOrder Direction = iota

	// PaymentBeforeOrder accepts payments dated up to W days before the order date.
	PaymentBeforeOrder
)

// ParseDirection converts "after" or "before" to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "after":
		return PaymentAfterOrder, nil
	case "before":
		return PaymentBeforeOrder, nil
	default:
		return PaymentAfterOrder, fmt.Errorf("unknown window direction %q (want after or before)", s)
	}
}

func (d Direction) String() string {
	if d == PaymentBeforeOrder {
		return "before"
	}
	return "after"
}

// Config holds the matching heuristics of one reconciliation run.
type Config struct {
	// OrderPrefix is the known prefix of order numbers, e.g. "31234" in "31234-123456".
	OrderPrefix string

	// Blocklist holds payer names or memo fragments excluded from matching.
	Blocklist []string

	// GatewayWindowDays bounds the distance between order and payment date.
	GatewayWindowDays int

	// InvoiceWindowDays bounds the distance between invoice and payment date.
	InvoiceWindowDays int

	// Direction applies to the order window; invoices always precede their payment.
	Direction Direction
}

// DefaultConfig returns the windows used in production.
func DefaultConfig() Config {
	return Config{
		GatewayWindowDays: 14,
		InvoiceWindowDays: 60,
		Direction:         PaymentAfterOrder,
	}
}

// Validate checks the configuration for values the engine cannot work with.
func (c Config) Validate() error {
	if c.GatewayWindowDays < 0 {
		return fmt.Errorf("gateway window must not be negative, got %d", c.GatewayWindowDays)
	}
	if c.InvoiceWindowDays < 0 {
		return fmt.Errorf("invoice window must not be negative, got %d", c.InvoiceWindowDays)
	}
	if c.Direction != PaymentAfterOrder && c.Direction != PaymentBeforeOrder {
		return fmt.Errorf("unknown window direction %d", c.Direction)
	}
	return nil
}
