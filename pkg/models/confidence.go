package models

import "fmt"

// Confidence describes how certain a payment match is.
type Confidence string

const (
	Sicher     Confidence = "sicher"      // exact key match
	FastSicher Confidence = "fast sicher" // heuristic match whose totals reconcile
	Unsicher   Confidence = "unsicher"    // candidate without reconciling totals, or none at all
	Manuell    Confidence = "manuell"     // confirmed by a human
)

// rank orders the ladder from weakest to strongest.
func (c Confidence) rank() int {
	switch c {
	case Sicher:
		return 4
	case FastSicher:
		return 3
	case Unsicher:
		return 2
	case Manuell:
		return 1
	default:
		return 0
	}
}

// Valid reports whether c is a value of the confidence ladder.
func (c Confidence) Valid() bool {
	return c.rank() > 0
}

// Stronger reports whether c ranks above other on the ladder.
func (c Confidence) Stronger(other Confidence) bool {
	return c.rank() > other.rank()
}

// ParseConfidence converts a label to a Confidence.
func ParseConfidence(s string) (Confidence, error) {
	c := Confidence(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown confidence %q", s)
	}
	return c, nil
}
