package search

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"supplymarket_api/internal/core/models"
	"supplymarket_api/internal/geo"
)

// Evaluator prices one offer for a buyer. *pricing.Engine satisfies it.
type Evaluator interface {
	Evaluate(offer models.Offer, buyer geo.Coordinate) (models.EvaluatedOffer, error)
}

// Ranker filters, prices and orders catalog snapshots. It keeps no state
// between calls.
type Ranker struct {
	evaluator Evaluator
}

func NewRanker(evaluator Evaluator) *Ranker {
	return &Ranker{evaluator: evaluator}
}

// Search returns the offers matching every active filter in criteria, priced
// for buyer and sorted by criteria.SortKey. Offers with equal keys keep their
// catalog order. The catalog slice is not modified.
func (r *Ranker) Search(catalog []models.Offer, criteria Criteria, buyer geo.Coordinate) ([]models.EvaluatedOffer, error) {
	if err := buyer.Validate(); err != nil {
		return nil, err
	}
	key, err := ParseSortKey(string(criteria.SortKey))
	if err != nil {
		return nil, err
	}

	match := newMatcher(criteria)
	results := make([]models.EvaluatedOffer, 0, len(catalog))
	for _, offer := range catalog {
		if !match(offer) {
			continue
		}
		evaluated, err := r.evaluator.Evaluate(offer, buyer)
		if err != nil {
			return nil, fmt.Errorf("evaluate offer %s: %w", offer.ID, err)
		}
		results = append(results, evaluated)
	}

	slices.SortStableFunc(results, comparator(key))
	return results, nil
}

func newMatcher(c Criteria) func(models.Offer) bool {
	text := strings.ToLower(strings.TrimSpace(c.TextQuery))
	supplier := strings.ToLower(strings.TrimSpace(c.SupplierNameQuery))
	category := strings.TrimSpace(c.Category)
	if strings.EqualFold(category, AllCategories) {
		category = ""
	}

	return func(o models.Offer) bool {
		if text != "" && !containsAny(text, o.Name, o.Description, o.Category, o.Brand, o.Model) {
			return false
		}
		if category != "" && o.Category != category {
			return false
		}
		if c.MaxPrice != nil && o.UnitPrice.GreaterThan(*c.MaxPrice) {
			return false
		}
		if supplier != "" && !strings.Contains(strings.ToLower(o.SupplierName), supplier) {
			return false
		}
		return true
	}
}

func containsAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func comparator(key SortKey) func(a, b models.EvaluatedOffer) int {
	switch key {
	case SortPriceAsc:
		return func(a, b models.EvaluatedOffer) int { return a.UnitPrice.Cmp(b.UnitPrice) }
	case SortPriceDesc:
		return func(a, b models.EvaluatedOffer) int { return b.UnitPrice.Cmp(a.UnitPrice) }
	case SortDistanceAsc:
		return func(a, b models.EvaluatedOffer) int { return cmp.Compare(a.DistanceKm, b.DistanceKm) }
	case SortDistanceDesc:
		return func(a, b models.EvaluatedOffer) int { return cmp.Compare(b.DistanceKm, a.DistanceKm) }
	case SortRatingDesc:
		return func(a, b models.EvaluatedOffer) int {
			return missingLast(a.Rating == nil, b.Rating == nil, func() int {
				return cmp.Compare(*b.Rating, *a.Rating)
			})
		}
	case SortNewest:
		return func(a, b models.EvaluatedOffer) int {
			return missingLast(a.LastUpdated == nil, b.LastUpdated == nil, func() int {
				return b.LastUpdated.Compare(*a.LastUpdated)
			})
		}
	default:
		return func(a, b models.EvaluatedOffer) int { return a.TotalUnitCost.Cmp(b.TotalUnitCost) }
	}
}

// missingLast orders present values before absent ones and leaves two absent
// values equal so the stable sort keeps them in catalog order.
func missingLast(aMissing, bMissing bool, compare func() int) int {
	switch {
	case aMissing && bMissing:
		return 0
	case aMissing:
		return 1
	case bMissing:
		return -1
	}
	return compare()
}
