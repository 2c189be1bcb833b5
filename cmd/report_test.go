package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookrecon/internal/reconciliation"
	"bookrecon/pkg/models"
)

func TestOrderTree(t *testing.T) {
	in := reconciliation.Input{Orders: []models.Order{
		{ID: "31234-000002", Date: "2023-02-01", LineItems: []models.LineItem{{SKU: "978-1", Title: "Faust", Quantity: 1}}},
		{ID: "31234-000001", Date: "2023-01-01", LineItems: []models.LineItem{{SKU: "978-1", Title: "Faust", Quantity: 2}}},
	}}

	tree := orderTree(in)
	require.Equal(t, 2, tree.Len())
	assert.Equal(t, "31234-000002", in.Orders[0].ID, "input order must not be reordered")

	records := tree.Export()
	require.Len(t, records, 2)
	assert.Equal(t, "31234-000001", records[0].ID)

	ranking := tree.Ranking(3)
	require.Len(t, ranking, 1)
	assert.Equal(t, 3, ranking[0].Quantity)
	assert.Empty(t, tree.Ranking(4))
}
