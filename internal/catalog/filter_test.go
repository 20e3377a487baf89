package catalog

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewListFilterIgnoresBlankAndNonNumeric(t *testing.T) {
	f := NewListFilter(ListParams{
		Category: "   ",
		Query:    "",
		MinPrice: "abc",
		MaxPrice: "NaN",
	})
	assert.Nil(t, f.Category)
	assert.Nil(t, f.Query)
	assert.Nil(t, f.MinPrice)
	assert.Nil(t, f.MaxPrice)
	assert.Equal(t, bson.D{}, f.BSON())
}

func TestNewListFilterTrimsAndParses(t *testing.T) {
	f := NewListFilter(ListParams{
		Category: "  Electronics ",
		Query:    " lap ",
		MinPrice: " 1000 ",
		MaxPrice: "2500.50",
	})
	require.NotNil(t, f.Category)
	require.NotNil(t, f.Query)
	require.NotNil(t, f.MinPrice)
	require.NotNil(t, f.MaxPrice)
	assert.Equal(t, "Electronics", *f.Category)
	assert.Equal(t, "lap", *f.Query)
	assert.True(t, f.MinPrice.Equal(decimal.NewFromInt(1000)))
	assert.True(t, f.MaxPrice.Equal(decimal.RequireFromString("2500.5")))
}

func TestListFilterBSON(t *testing.T) {
	f := NewListFilter(ListParams{Category: "Electronics", Query: "pro", MinPrice: "1000"})

	got := f.BSON()
	want := bson.D{
		{Key: "category", Value: primitive.Regex{Pattern: "^Electronics$", Options: "i"}},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: primitive.Regex{Pattern: "pro", Options: "i"}}},
			bson.D{{Key: "description", Value: primitive.Regex{Pattern: "pro", Options: "i"}}},
		}},
		{Key: "price", Value: bson.D{{Key: "$gte", Value: float64(1000)}}},
	}
	assert.Equal(t, want, got)
}

func TestListFilterBSONHalfOpenUpperBound(t *testing.T) {
	got := NewListFilter(ListParams{MaxPrice: "999"}).BSON()
	assert.Equal(t, bson.D{{Key: "price", Value: bson.D{{Key: "$lte", Value: float64(999)}}}}, got)
}

func TestListFilterBSONQuotesUserText(t *testing.T) {
	got := NewListFilter(ListParams{Category: "a.b*", Query: "(x|y)"}).BSON()
	require.Len(t, got, 2)

	category := got[0].Value.(primitive.Regex)
	assert.Equal(t, `^a\.b\*$`, category.Pattern)

	or := got[1].Value.(bson.A)
	name := or[0].(bson.D)[0].Value.(primitive.Regex)
	assert.Equal(t, `\(x\|y\)`, name.Pattern)
}

// matches evaluates a filter in memory with the same rules the Mongo query
// expresses, so the composition rules can be checked without a server.
func matches(f ListFilter, item Item) bool {
	if f.Category != nil && !strings.EqualFold(item.Category, *f.Category) {
		return false
	}
	if f.Query != nil {
		q := strings.ToLower(*f.Query)
		if !strings.Contains(strings.ToLower(item.Name), q) && !strings.Contains(strings.ToLower(item.Description), q) {
			return false
		}
	}
	if f.MinPrice != nil && item.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && item.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

func TestFilterCompositionNarrowsResults(t *testing.T) {
	items := seedItems()

	names := func(f ListFilter) []string {
		var out []string
		for _, item := range items {
			if matches(f, item) {
				out = append(out, item.Name)
			}
		}
		return out
	}

	assert.ElementsMatch(t, []string{"Laptop", "Watch"}, names(NewListFilter(ListParams{Category: "electronics"})))
	assert.ElementsMatch(t, []string{"Laptop", "Watch"}, names(NewListFilter(ListParams{Category: "Electronics", MinPrice: "1000"})))
	assert.ElementsMatch(t, []string{"Laptop"}, names(NewListFilter(ListParams{Category: "Electronics", MinPrice: "1001"})))
	assert.Len(t, names(NewListFilter(ListParams{})), len(items))
}

func seedItems() []Item {
	items := SeedItems()
	for i := range items {
		items[i].ID = primitive.NewObjectID()
	}
	return items
}
