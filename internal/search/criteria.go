package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrUnknownSortKey = errors.New("unknown sort key")

type SortKey string

const (
	SortPriceAsc     SortKey = "price_asc"
	SortPriceDesc    SortKey = "price_desc"
	SortDistanceAsc  SortKey = "distance_asc"
	SortDistanceDesc SortKey = "distance_desc"
	SortRatingDesc   SortKey = "rating_desc"
	SortNewest       SortKey = "newest"
	SortTotalCostAsc SortKey = "total_cost_asc"

	DefaultSortKey = SortTotalCostAsc

	// AllCategories disables the category filter.
	AllCategories = "all"
)

var sortKeys = map[SortKey]struct{}{
	SortPriceAsc:     {},
	SortPriceDesc:    {},
	SortDistanceAsc:  {},
	SortDistanceDesc: {},
	SortRatingDesc:   {},
	SortNewest:       {},
	SortTotalCostAsc: {},
}

// ParseSortKey maps user input to a SortKey; an empty string selects DefaultSortKey.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultSortKey, nil
	}
	key := SortKey(s)
	if _, ok := sortKeys[key]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
	}
	return key, nil
}

// Criteria narrows and orders a catalog search. Zero-valued fields are inactive.
type Criteria struct {
	TextQuery         string           `json:"q,omitempty"`
	Category          string           `json:"category,omitempty"`
	MaxPrice          *decimal.Decimal `json:"max_price,omitempty"`
	SupplierNameQuery string           `json:"supplier,omitempty"`
	SortKey           SortKey          `json:"sort,omitempty"`
}
