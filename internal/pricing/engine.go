package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"supplymarket_api/internal/core/models"
	"supplymarket_api/internal/geo"
)

var (
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrBelowMinimumOrder = errors.New("quantity below minimum order")
	ErrInsufficientStock = errors.New("insufficient stock")
)

const (
	DefaultBaseRate  = 500.0
	DefaultRatePerKm = 15.0
	DefaultVATRate   = 0.15

	// quantities above this many units scale the per-km rate linearly
	quantityFactorUnit = 100.0
	unitCostPrecision  = 4
	vatPrecision       = 2
)

// Config holds the tariff policy. Zero rates fall back to the defaults. VATRate
// is a pointer so that an explicit 0 (VAT-exempt) differs from unset.
type Config struct {
	BaseRate  float64  `yaml:"base_rate"`
	RatePerKm float64  `yaml:"rate_per_km"`
	VATRate   *float64 `yaml:"vat_rate"`
}

func DefaultConfig() Config {
	vat := DefaultVATRate
	return Config{
		BaseRate:  DefaultBaseRate,
		RatePerKm: DefaultRatePerKm,
		VATRate:   &vat,
	}
}

// VAT returns the configured VAT rate, or DefaultVATRate when unset.
func (c Config) VAT() float64 {
	if c.VATRate == nil {
		return DefaultVATRate
	}
	return *c.VATRate
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BaseRate > 0 {
		d.BaseRate = c.BaseRate
	}
	if c.RatePerKm > 0 {
		d.RatePerKm = c.RatePerKm
	}
	if c.VATRate != nil {
		vat := *c.VATRate
		d.VATRate = &vat
	}
	return d
}

// Engine prices transport and orders. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// TransportCost returns the cost of moving quantity units from origin to
// destination, rounded to a whole currency unit. It never goes below BaseRate.
func (e *Engine) TransportCost(origin, destination geo.Coordinate, quantity int) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, fmt.Errorf("%w: %d must be positive", ErrInvalidQuantity, quantity)
	}
	distance, err := geo.Distance(origin, destination)
	if err != nil {
		return decimal.Zero, err
	}
	return e.costForDistance(distance, quantity), nil
}

func (e *Engine) costForDistance(distanceKm float64, quantity int) decimal.Decimal {
	quantityFactor := math.Max(1.0, float64(quantity)/quantityFactorUnit)
	cost := math.Round(e.cfg.BaseRate + distanceKm*e.cfg.RatePerKm*quantityFactor)
	return decimal.NewFromFloat(cost)
}

// Evaluate prices one offer for a buyer. Transport is estimated at the offer's
// minimum order quantity so that offers with different minimums compare per unit.
func (e *Engine) Evaluate(offer models.Offer, buyer geo.Coordinate) (models.EvaluatedOffer, error) {
	if offer.MinOrderQuantity < 1 {
		return models.EvaluatedOffer{}, fmt.Errorf("%w: offer %s has minimum order %d",
			ErrInvalidQuantity, offer.ID, offer.MinOrderQuantity)
	}
	distance, err := geo.Distance(offer.Location, buyer)
	if err != nil {
		return models.EvaluatedOffer{}, fmt.Errorf("offer %s: %w", offer.ID, err)
	}

	transport := e.costForDistance(distance, offer.MinOrderQuantity)
	perUnit := transport.DivRound(decimal.NewFromInt(int64(offer.MinOrderQuantity)), unitCostPrecision)

	return models.EvaluatedOffer{
		Offer:                  offer,
		DistanceKm:             distance,
		EstimatedTransportCost: transport,
		TotalUnitCost:          offer.UnitPrice.Add(perUnit),
	}, nil
}

// Quote is the priced breakdown of a prospective order.
type Quote struct {
	Quantity      int
	UnitPrice     decimal.Decimal
	Subtotal      decimal.Decimal
	TransportCost decimal.Decimal
	VATAmount     decimal.Decimal
	TotalAmount   decimal.Decimal
	DistanceKm    float64
}

// QuoteOrder prices a real transaction. Unlike Evaluate, transport is charged
// for the actual quantity ordered.
func (e *Engine) QuoteOrder(offer models.Offer, quantity int, delivery geo.Coordinate) (Quote, error) {
	if quantity <= 0 {
		return Quote{}, fmt.Errorf("%w: %d must be positive", ErrInvalidQuantity, quantity)
	}
	if quantity < offer.MinOrderQuantity {
		return Quote{}, fmt.Errorf("%w: minimum order quantity is %d", ErrBelowMinimumOrder, offer.MinOrderQuantity)
	}
	if quantity > offer.Available {
		return Quote{}, fmt.Errorf("%w: %d requested, %d available", ErrInsufficientStock, quantity, offer.Available)
	}

	distance, err := geo.Distance(offer.Location, delivery)
	if err != nil {
		return Quote{}, err
	}

	subtotal := offer.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	transport := e.costForDistance(distance, quantity)

	vat := decimal.Zero
	if !offer.TaxIncluded {
		vat = subtotal.Mul(decimal.NewFromFloat(e.cfg.VAT())).Round(vatPrecision)
	}

	return Quote{
		Quantity:      quantity,
		UnitPrice:     offer.UnitPrice,
		Subtotal:      subtotal,
		TransportCost: transport,
		VATAmount:     vat,
		TotalAmount:   subtotal.Add(transport).Add(vat),
		DistanceKm:    distance,
	}, nil
}
