package directory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplymarket_api/internal/core/models"
	"supplymarket_api/internal/geo"
	"supplymarket_api/internal/pricing"
	"supplymarket_api/internal/storage"
)

var (
	bole      = geo.Coordinate{Latitude: 8.9806, Longitude: 38.7578}
	merkato   = geo.Coordinate{Latitude: 9.0300, Longitude: 38.7500}
	megenagna = geo.Coordinate{Latitude: 9.0227, Longitude: 38.7468}
)

func ptr[T any](v T) *T { return &v }

func newTestService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	repo, err := storage.Open(ctx, storage.NewMemoryKV())
	require.NoError(t, err)

	require.NoError(t, repo.SaveUser(ctx, models.User{ID: "cust", Role: models.RoleCustomer, Location: ptr(megenagna)}))
	require.NoError(t, repo.SaveSupplier(ctx, models.Supplier{ID: "s1", Name: "Mehari General Supplies", Location: bole, Rating: ptr(4.8)}))
	require.NoError(t, repo.SaveSupplier(ctx, models.Supplier{ID: "s2", Name: "Ethio Industrial Supplies", Location: merkato}))
	for _, o := range []models.Offer{
		{ID: "o1", SupplierID: "s1", UnitPrice: decimal.NewFromInt(850)},
		{ID: "o2", SupplierID: "s1", UnitPrice: decimal.NewFromInt(120)},
		{ID: "o3", SupplierID: "s1", UnitPrice: decimal.NewFromInt(100)},
	} {
		o.Name, o.Category, o.Unit, o.MinOrderQuantity = "item", "General", "piece", 1
		require.NoError(t, repo.SaveOffer(ctx, o))
	}

	return NewService(repo, pricing.NewEngine(pricing.DefaultConfig()))
}

func TestListForBuyer(t *testing.T) {
	svc := newTestService(t)
	engine := pricing.NewEngine(pricing.DefaultConfig())

	entries, err := svc.List("cust")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "s1", first.SupplierID)
	assert.Equal(t, 3, first.OfferCount)
	assert.Equal(t, "356.67", first.AveragePrice.String())
	assert.Equal(t, 4.8, *first.Rating)
	want, err := engine.TransportCost(bole, megenagna, EstimateQuantity)
	require.NoError(t, err)
	require.NotNil(t, first.EstimatedTransport)
	assert.True(t, want.Equal(*first.EstimatedTransport))

	second := entries[1]
	assert.Equal(t, 0, second.OfferCount)
	assert.True(t, second.AveragePrice.IsZero())
	assert.Nil(t, second.Rating)
	require.NotNil(t, second.EstimatedTransport)
	assert.True(t, second.EstimatedTransport.LessThan(*first.EstimatedTransport))
}

func TestListAnonymousHasNoEstimate(t *testing.T) {
	svc := newTestService(t)

	entries, err := svc.List("")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Nil(t, e.EstimatedTransport)
	}

	_, err = svc.List("ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
