package catalog

import "github.com/shopspring/decimal"

// SeedItems returns the reference catalog loaded by cmd/seed.
func SeedItems() []Item {
	return []Item{
		{Name: "T-Shirt", Description: "Cotton T-Shirt", Category: "Clothing", Price: decimal.NewFromInt(500)},
		{Name: "Laptop", Description: "Gaming Laptop", Category: "Electronics", Price: decimal.NewFromInt(70000)},
		{Name: "Shoes", Description: "Running Shoes", Category: "Footwear", Price: decimal.NewFromInt(2000)},
		{Name: "Watch", Description: "Smart watches", Category: "Electronics", Price: decimal.NewFromInt(1000)},
	}
}
