package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"supplymarket_api/internal/geo"
)

var ErrInvalidOffer = errors.New("invalid offer")

// Offer is one purchasable listing. SupplierName and Location are copied from
// the owning Supplier when a catalog snapshot is taken.
type Offer struct {
	ID               string          `json:"id"`
	SupplierID       string          `json:"supplier_id"`
	SupplierName     string          `json:"supplier_name"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Brand            string          `json:"brand,omitempty"`
	Model            string          `json:"model,omitempty"`
	Category         string          `json:"category"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Unit             string          `json:"unit"`
	Available        int             `json:"available"`
	MinOrderQuantity int             `json:"min_order_quantity"`
	TaxIncluded      bool            `json:"tax_included"`
	Location         geo.Coordinate  `json:"location"`
	Rating           *float64        `json:"rating,omitempty"`
	LastUpdated      *time.Time      `json:"last_updated,omitempty"`
}

// Validate enforces the ingestion invariants; offers that fail it never reach the catalog.
func (o Offer) Validate() error {
	switch {
	case strings.TrimSpace(o.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidOffer)
	case strings.TrimSpace(o.Category) == "":
		return fmt.Errorf("%w: category is required", ErrInvalidOffer)
	case strings.TrimSpace(o.Unit) == "":
		return fmt.Errorf("%w: unit is required", ErrInvalidOffer)
	case o.UnitPrice.IsNegative():
		return fmt.Errorf("%w: unit price cannot be negative", ErrInvalidOffer)
	case o.Available < 0:
		return fmt.Errorf("%w: available quantity cannot be negative", ErrInvalidOffer)
	case o.MinOrderQuantity < 1:
		return fmt.Errorf("%w: minimum order quantity must be at least 1", ErrInvalidOffer)
	case o.Rating != nil && (*o.Rating < 0 || *o.Rating > 5):
		return fmt.Errorf("%w: rating must be between 0 and 5", ErrInvalidOffer)
	}
	return nil
}

// EvaluatedOffer is an Offer priced for one buyer. It is recomputed on every search.
type EvaluatedOffer struct {
	Offer
	DistanceKm             float64         `json:"distance_km"`
	EstimatedTransportCost decimal.Decimal `json:"estimated_transport_cost"`
	TotalUnitCost          decimal.Decimal `json:"total_unit_cost"`
}
