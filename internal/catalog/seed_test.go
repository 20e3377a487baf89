package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedItemsMatchReferenceCatalog(t *testing.T) {
	want := []struct {
		name, description, category string
		price                       int64
	}{
		{"T-Shirt", "Cotton T-Shirt", "Clothing", 500},
		{"Laptop", "Gaming Laptop", "Electronics", 70000},
		{"Shoes", "Running Shoes", "Footwear", 2000},
		{"Watch", "Smart watches", "Electronics", 1000},
	}

	items := SeedItems()
	require.Len(t, items, len(want))
	for i, w := range want {
		assert.Equal(t, w.name, items[i].Name)
		assert.Equal(t, w.description, items[i].Description)
		assert.Equal(t, w.category, items[i].Category)
		assert.True(t, items[i].Price.Equal(decimal.NewFromInt(w.price)), "price of %s", w.name)
	}
}
