package store

import (
	"testing"

	"mealmate/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuote(t *testing.T) {
	items := []model.StoreItem{{ID: "a", Cost: 19.99}, {ID: "b", Cost: 5.01}}

	q, err := BuildQuote(items, 0.07, "USD")
	require.NoError(t, err)
	assert.Equal(t, 25.0, q.Subtotal)
	assert.Equal(t, 1.75, q.Tax)
	assert.Equal(t, 26.75, q.Total)
	assert.Equal(t, 0.07, q.TaxRate)
	assert.Contains(t, q.FormattedTotal, "26.75")
	assert.Contains(t, q.FormattedTotal, "$")
	assert.Len(t, q.Items, 2)
}

func TestBuildQuoteRounding(t *testing.T) {
	q, err := BuildQuote([]model.StoreItem{{Cost: 0.1}, {Cost: 0.2}}, 0.07, "USD")
	require.NoError(t, err)
	assert.Equal(t, 0.3, q.Subtotal, "cents avoid float drift")
	assert.Equal(t, 0.02, q.Tax)
	assert.Equal(t, 0.32, q.Total)
}

func TestBuildQuoteEmptyAndErrors(t *testing.T) {
	q, err := BuildQuote(nil, 0.07, "EUR")
	require.NoError(t, err)
	assert.Zero(t, q.Total)
	assert.NotNil(t, q.Items)
	assert.Contains(t, q.FormattedTotal, "0.00")

	_, err = BuildQuote(nil, 0.07, "XYZW")
	assert.Error(t, err)
}
