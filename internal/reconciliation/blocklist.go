package reconciliation

import (
	"strings"

	"bookrecon/pkg/models"
)

// Blocklist matches payer names and memos against excluded entities.
type Blocklist struct {
	entities []string
}

// NewBlocklist lowercases the entities once; empty entries are dropped.
func NewBlocklist(entities []string) Blocklist {
	var b Blocklist
	for _, entity := range entities {
		entity = strings.ToLower(strings.TrimSpace(entity))
		if entity != "" {
			b.entities = append(b.entities, entity)
		}
	}
	return b
}

// Match returns the first entity contained in the payer name or the memo.
func (b Blocklist) Match(payment *models.Payment) (string, bool) {
	name := strings.ToLower(payment.Name)
	reference := strings.ToLower(payment.Reference())

	for _, entity := range b.entities {
		if strings.Contains(name, entity) || strings.Contains(reference, entity) {
			return entity, true
		}
	}
	return "", false
}
