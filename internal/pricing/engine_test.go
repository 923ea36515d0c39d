package pricing

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplymarket_api/internal/core/models"
	"supplymarket_api/internal/geo"
)

var (
	buyer    = geo.Coordinate{Latitude: 9.0320, Longitude: 38.7469}
	supplier = geo.Coordinate{Latitude: 8.9806, Longitude: 38.7578}
)

func cement() models.Offer {
	return models.Offer{
		ID:               "cement",
		Name:             "Portland Cement",
		Category:         "Construction",
		UnitPrice:        decimal.NewFromInt(850),
		Unit:             "50kg bag",
		Available:        500,
		MinOrderQuantity: 10,
		Location:         supplier,
	}
}

func TestTransportCost_Scenario(t *testing.T) {
	e := NewEngine(DefaultConfig())

	got, err := e.TransportCost(supplier, buyer, 50)
	require.NoError(t, err)

	d := geo.DistanceKm(supplier, buyer)
	assert.InDelta(t, 5.8, d, 0.1)

	want := math.Round(500 + d*15*math.Max(1, 0.5))
	assert.True(t, decimal.NewFromFloat(want).Equal(got), "got %s want %v", got, want)
	assert.True(t, got.GreaterThanOrEqual(decimal.NewFromInt(586)) && got.LessThanOrEqual(decimal.NewFromInt(589)))
}

func TestTransportCost_ZeroDistanceIsBaseRate(t *testing.T) {
	e := NewEngine(DefaultConfig())

	for _, q := range []int{1, 50, 100, 1000} {
		got, err := e.TransportCost(buyer, buyer, q)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(500).Equal(got), "quantity %d: %s", q, got)
	}
}

func TestTransportCost_InvalidInput(t *testing.T) {
	e := NewEngine(DefaultConfig())

	for _, q := range []int{0, -1, -100} {
		_, err := e.TransportCost(supplier, buyer, q)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", q)
	}

	_, err := e.TransportCost(geo.Coordinate{Latitude: 91}, buyer, 10)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)

	_, err = e.TransportCost(supplier, geo.Coordinate{Longitude: -200}, 10)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}

func TestTransportCost_Monotonic(t *testing.T) {
	e := NewEngine(DefaultConfig())
	floor := decimal.NewFromFloat(e.Config().BaseRate)

	t.Run("distance", func(t *testing.T) {
		prev := decimal.Zero
		for step := 0; step <= 40; step++ {
			dest := geo.Coordinate{Latitude: buyer.Latitude + float64(step)*0.05, Longitude: buyer.Longitude}
			got, err := e.TransportCost(buyer, dest, 250)
			require.NoError(t, err)
			assert.True(t, got.GreaterThanOrEqual(prev), "step %d: %s < %s", step, got, prev)
			assert.True(t, got.GreaterThanOrEqual(floor))
			prev = got
		}
	})

	t.Run("quantity", func(t *testing.T) {
		prev := decimal.Zero
		for q := 1; q <= 1000; q += 7 {
			got, err := e.TransportCost(supplier, buyer, q)
			require.NoError(t, err)
			assert.True(t, got.GreaterThanOrEqual(prev), "quantity %d: %s < %s", q, got, prev)
			assert.True(t, got.GreaterThanOrEqual(floor))
			prev = got
		}
	})
}

func TestTransportCost_QuantityFactor(t *testing.T) {
	e := NewEngine(DefaultConfig())
	d := geo.DistanceKm(supplier, buyer)

	tests := []struct {
		quantity int
		factor   float64
	}{
		{1, 1},
		{100, 1},
		{150, 1.5},
		{400, 4},
	}

	for _, tt := range tests {
		got, err := e.TransportCost(supplier, buyer, tt.quantity)
		require.NoError(t, err)
		want := decimal.NewFromFloat(math.Round(500 + d*15*tt.factor))
		assert.True(t, want.Equal(got), "quantity %d: got %s want %s", tt.quantity, got, want)
	}
}

func TestNewEngine_ConfigDefaults(t *testing.T) {
	e := NewEngine(Config{RatePerKm: 20})
	assert.Equal(t, 500.0, e.Config().BaseRate)
	assert.Equal(t, 20.0, e.Config().RatePerKm)
	assert.Equal(t, 0.15, e.Config().VAT())

	got, err := e.TransportCost(buyer, geo.Coordinate{Latitude: 10.0320, Longitude: 38.7469}, 1)
	require.NoError(t, err)
	want := math.Round(500 + geo.DistanceKm(buyer, geo.Coordinate{Latitude: 10.0320, Longitude: 38.7469})*20)
	assert.Equal(t, want, got.InexactFloat64())
}

func TestQuoteOrder_ZeroVATRate(t *testing.T) {
	zero := 0.0
	e := NewEngine(Config{VATRate: &zero})
	assert.Equal(t, 0.0, e.Config().VAT())

	offer := models.Offer{
		UnitPrice: decimal.NewFromInt(850), Available: 100, MinOrderQuantity: 1,
		Location: buyer,
	}
	q, err := e.QuoteOrder(offer, 10, buyer)
	require.NoError(t, err)
	assert.True(t, q.VATAmount.IsZero())
	assert.Equal(t, "9000", q.TotalAmount.String())
}

func TestEvaluate(t *testing.T) {
	e := NewEngine(DefaultConfig())
	offer := cement()

	got, err := e.Evaluate(offer, buyer)
	require.NoError(t, err)

	transport, err := e.TransportCost(offer.Location, buyer, offer.MinOrderQuantity)
	require.NoError(t, err)

	assert.Equal(t, offer, got.Offer)
	assert.InDelta(t, geo.DistanceKm(offer.Location, buyer), got.DistanceKm, 1e-9)
	assert.True(t, transport.Equal(got.EstimatedTransportCost))

	// 850 + 588/10
	assert.Equal(t, "908.8", got.TotalUnitCost.String())
}

func TestEvaluate_RejectsBadOffer(t *testing.T) {
	e := NewEngine(DefaultConfig())

	offer := cement()
	offer.MinOrderQuantity = 0
	_, err := e.Evaluate(offer, buyer)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	offer = cement()
	offer.Location = geo.Coordinate{Latitude: -95}
	_, err = e.Evaluate(offer, buyer)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}

func TestQuoteOrder(t *testing.T) {
	e := NewEngine(DefaultConfig())
	offer := cement()

	q, err := e.QuoteOrder(offer, 50, buyer)
	require.NoError(t, err)

	transport, err := e.TransportCost(offer.Location, buyer, 50)
	require.NoError(t, err)

	assert.Equal(t, "42500", q.Subtotal.String())
	assert.True(t, transport.Equal(q.TransportCost))
	assert.Equal(t, "6375", q.VATAmount.String())
	assert.True(t, q.Subtotal.Add(transport).Add(q.VATAmount).Equal(q.TotalAmount))
}

func TestQuoteOrder_TaxIncluded(t *testing.T) {
	e := NewEngine(DefaultConfig())
	offer := cement()
	offer.TaxIncluded = true

	q, err := e.QuoteOrder(offer, 10, buyer)
	require.NoError(t, err)
	assert.True(t, q.VATAmount.IsZero())
	assert.True(t, q.Subtotal.Add(q.TransportCost).Equal(q.TotalAmount))
}

func TestQuoteOrder_UsesActualQuantity(t *testing.T) {
	e := NewEngine(DefaultConfig())
	offer := cement()
	far := geo.Coordinate{Latitude: 9.6009, Longitude: 41.8501}

	eval, err := e.Evaluate(offer, far)
	require.NoError(t, err)

	q, err := e.QuoteOrder(offer, 400, far)
	require.NoError(t, err)

	assert.True(t, q.TransportCost.GreaterThan(eval.EstimatedTransportCost),
		"order transport %s should exceed min-order estimate %s", q.TransportCost, eval.EstimatedTransportCost)
}

func TestQuoteOrder_Errors(t *testing.T) {
	e := NewEngine(DefaultConfig())
	offer := cement()

	_, err := e.QuoteOrder(offer, 0, buyer)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = e.QuoteOrder(offer, 9, buyer)
	assert.ErrorIs(t, err, ErrBelowMinimumOrder)

	_, err = e.QuoteOrder(offer, 501, buyer)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = e.QuoteOrder(offer, 10, geo.Coordinate{Latitude: 100})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}
