package catalog

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListParams carries the raw query string values of GET /items.
type ListParams struct {
	Category string
	Query    string
	MinPrice string
	MaxPrice string
}

// ListFilter is the validated form of ListParams. Nil fields are not applied.
type ListFilter struct {
	Category *string
	Query    *string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// NewListFilter trims the raw parameters and drops blank or non-numeric
// values. It never fails: an empty filter matches every item.
func NewListFilter(p ListParams) ListFilter {
	var f ListFilter
	if v := strings.TrimSpace(p.Category); v != "" {
		f.Category = &v
	}
	if v := strings.TrimSpace(p.Query); v != "" {
		f.Query = &v
	}
	f.MinPrice = parsePrice(p.MinPrice)
	f.MaxPrice = parsePrice(p.MaxPrice)
	return f
}

func parsePrice(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}

// BSON translates the filter into a Mongo query document. User text is
// matched literally.
func (f ListFilter) BSON() bson.D {
	filter := bson.D{}
	if f.Category != nil {
		filter = append(filter, bson.E{Key: "category", Value: primitive.Regex{
			Pattern: "^" + regexp.QuoteMeta(*f.Category) + "$",
			Options: "i",
		}})
	}
	if f.Query != nil {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(*f.Query), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: pattern}},
			bson.D{{Key: "description", Value: pattern}},
		}})
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.D{}
		if f.MinPrice != nil {
			price = append(price, bson.E{Key: "$gte", Value: f.MinPrice.InexactFloat64()})
		}
		if f.MaxPrice != nil {
			price = append(price, bson.E{Key: "$lte", Value: f.MaxPrice.InexactFloat64()})
		}
		filter = append(filter, bson.E{Key: "price", Value: price})
	}
	return filter
}
