package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplymarket_api/internal/core/models"
	"supplymarket_api/internal/geo"
)

// failingKV accepts reads and rejects writes while fail is set.
type failingKV struct {
	*MemoryKV
	fail bool
}

var errDiskFull = errors.New("disk full")

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if f.fail {
		return errDiskFull
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func testSupplier() models.Supplier {
	return models.Supplier{
		ID:       "sup-1",
		UserID:   "usr-1",
		Name:     "Addis Tech Solutions",
		Location: geo.Coordinate{Latitude: 9.0320, Longitude: 38.7469},
	}
}

func testOffer(id string) models.Offer {
	return models.Offer{
		ID:               id,
		SupplierID:       "sup-1",
		Name:             "Dell Laptop",
		Category:         "Computers",
		UnitPrice:        decimal.NewFromInt(45000),
		Unit:             "unit",
		Available:        10,
		MinOrderQuantity: 1,
	}
}

func openEmpty(t *testing.T) (*Repository, *MemoryKV) {
	t.Helper()
	kv := NewMemoryKV()
	repo, err := Open(context.Background(), kv)
	require.NoError(t, err)
	return repo, kv
}

func TestOpenEmptyStore(t *testing.T) {
	repo, _ := openEmpty(t)
	assert.Empty(t, repo.Users())
	assert.Empty(t, repo.Offers())
	assert.Empty(t, repo.Orders())
}

func TestOpenRejectsCorruptCollection(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), KeyOffers, []byte("{not json")))

	_, err := Open(context.Background(), kv)
	assert.Error(t, err)
}

func TestMutationsAreFlushedBeforeReturn(t *testing.T) {
	ctx := context.Background()
	repo, kv := openEmpty(t)

	require.NoError(t, repo.SaveSupplier(ctx, testSupplier()))
	require.NoError(t, repo.SaveOffer(ctx, testOffer("off-1")))

	raw, err := kv.Get(ctx, KeyOffers)
	require.NoError(t, err)
	var stored []models.Offer
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, "off-1", stored[0].ID)

	reopened, err := Open(ctx, kv)
	require.NoError(t, err)
	assert.Len(t, reopened.Offers(), 1)
	assert.Len(t, reopened.Suppliers(), 1)
}

func TestFailedFlushLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{MemoryKV: NewMemoryKV()}
	repo, err := Open(ctx, kv)
	require.NoError(t, err)

	require.NoError(t, repo.SaveOffer(ctx, testOffer("off-1")))

	kv.fail = true
	err = repo.SaveOffer(ctx, testOffer("off-2"))
	require.ErrorIs(t, err, errDiskFull)
	assert.Len(t, repo.Offers(), 1)

	err = repo.DeleteOffer(ctx, "off-1")
	require.ErrorIs(t, err, errDiskFull)
	assert.Len(t, repo.Offers(), 1)
}

func TestSaveOfferUpsertsAndValidates(t *testing.T) {
	ctx := context.Background()
	repo, _ := openEmpty(t)

	o := testOffer("off-1")
	require.NoError(t, repo.SaveOffer(ctx, o))

	o.Available = 3
	require.NoError(t, repo.SaveOffer(ctx, o))
	got, err := repo.OfferByID("off-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Available)
	assert.Len(t, repo.Offers(), 1)

	bad := testOffer("off-2")
	bad.MinOrderQuantity = 0
	assert.ErrorIs(t, repo.SaveOffer(ctx, bad), models.ErrInvalidOffer)
}

func TestDeleteOfferUnknown(t *testing.T) {
	repo, _ := openEmpty(t)
	assert.ErrorIs(t, repo.DeleteOffer(context.Background(), "missing"), ErrNotFound)
}

func TestCatalogSnapshotDenormalizesSupplier(t *testing.T) {
	ctx := context.Background()
	repo, _ := openEmpty(t)

	require.NoError(t, repo.SaveSupplier(ctx, testSupplier()))
	require.NoError(t, repo.SaveOffer(ctx, testOffer("off-1")))
	orphan := testOffer("off-2")
	orphan.SupplierID = "gone"
	require.NoError(t, repo.SaveOffer(ctx, orphan))

	snap := repo.CatalogSnapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "Addis Tech Solutions", snap[0].SupplierName)
	assert.Equal(t, testSupplier().Location, snap[0].Location)
}

func TestOrdersAppendAndUpdate(t *testing.T) {
	ctx := context.Background()
	repo, _ := openEmpty(t)

	o := models.Order{ID: "ord-1", Status: models.OrderStatusPending, OrderedAt: time.Now()}
	require.NoError(t, repo.AppendOrder(ctx, o))
	assert.ErrorIs(t, repo.AppendOrder(ctx, o), ErrDuplicateID)

	updated, err := repo.UpdateOrder(ctx, "ord-1", func(o models.Order) (models.Order, error) {
		o.Status = models.OrderStatusConfirmed
		o.History = append(o.History, models.StatusChange{From: models.OrderStatusPending, To: models.OrderStatusConfirmed})
		return o, nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, updated.Status)

	got, err := repo.OrderByID("ord-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, got.Status)

	// returned history must not alias the stored one
	got.History[0].To = models.OrderStatusCancelled
	again, _ := repo.OrderByID("ord-1")
	assert.Equal(t, models.OrderStatusConfirmed, again.History[0].To)

	_, err = repo.UpdateOrder(ctx, "nope", func(o models.Order) (models.Order, error) { return o, nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateOrderMutateErrorLeavesOrder(t *testing.T) {
	ctx := context.Background()
	repo, _ := openEmpty(t)
	require.NoError(t, repo.AppendOrder(ctx, models.Order{ID: "ord-1", Status: models.OrderStatusPending}))

	errRejected := errors.New("rejected")
	_, err := repo.UpdateOrder(ctx, "ord-1", func(o models.Order) (models.Order, error) {
		o.Status = models.OrderStatusCancelled
		return o, errRejected
	})
	assert.ErrorIs(t, err, errRejected)

	got, err := repo.OrderByID("ord-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
}

func TestUpdateOrderSerializesConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	repo, _ := openEmpty(t)
	require.NoError(t, repo.AppendOrder(ctx, models.Order{ID: "ord-1"}))

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateOrder(ctx, "ord-1", func(o models.Order) (models.Order, error) {
				o.History = append(o.History, models.StatusChange{At: time.Now()})
				return o, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.OrderByID("ord-1")
	require.NoError(t, err)
	assert.Len(t, got.History, writers)
}

func TestUpdateOfferValidatesAndSerializes(t *testing.T) {
	ctx := context.Background()
	repo, _ := openEmpty(t)
	require.NoError(t, repo.SaveOffer(ctx, testOffer("off-1")))

	_, err := repo.UpdateOffer(ctx, "off-1", func(o models.Offer) (models.Offer, error) {
		o.MinOrderQuantity = 0
		return o, nil
	})
	assert.ErrorIs(t, err, models.ErrInvalidOffer)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateOffer(ctx, "off-1", func(o models.Offer) (models.Offer, error) {
				o.Available++
				return o, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.OfferByID("off-1")
	require.NoError(t, err)
	assert.Equal(t, 30, got.Available)
	assert.Equal(t, 1, got.MinOrderQuantity)

	_, err = repo.UpdateOffer(ctx, "missing", func(o models.Offer) (models.Offer, error) { return o, nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserByEmailIgnoresCase(t *testing.T) {
	ctx := context.Background()
	repo, _ := openEmpty(t)

	require.NoError(t, repo.SaveUser(ctx, models.User{ID: "u1", Email: "Hana@Example.com"}))
	u, err := repo.UserByEmail("hana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = repo.UserByEmail("other@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscribeReceivesEvents(t *testing.T) {
	ctx := context.Background()
	repo, _ := openEmpty(t)

	var events []Event
	unsubscribe := repo.Subscribe(func(e Event) { events = append(events, e) })

	require.NoError(t, repo.SaveOffer(ctx, testOffer("off-1")))
	require.NoError(t, repo.DeleteOffer(ctx, "off-1"))
	unsubscribe()
	require.NoError(t, repo.SaveOffer(ctx, testOffer("off-2")))

	assert.Equal(t, []Event{
		{Collection: KeyOffers, Kind: EventSaved, ID: "off-1"},
		{Collection: KeyOffers, Kind: EventDeleted, ID: "off-1"},
	}, events)
}

func TestSubscriberNotCalledOnFailedFlush(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{MemoryKV: NewMemoryKV(), fail: true}
	repo, err := Open(ctx, kv)
	require.NoError(t, err)

	called := false
	repo.Subscribe(func(Event) { called = true })
	assert.Error(t, repo.SaveOffer(ctx, testOffer("off-1")))
	assert.False(t, called)
}

func TestSaveOffersIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	repo, _ := openEmpty(t)

	bad := testOffer("off-3")
	bad.Unit = ""
	err := repo.SaveOffers(ctx, []models.Offer{testOffer("off-1"), bad})
	assert.ErrorIs(t, err, models.ErrInvalidOffer)
	assert.Empty(t, repo.Offers())

	require.NoError(t, repo.SaveOffers(ctx, []models.Offer{testOffer("off-1"), testOffer("off-2")}))
	assert.Len(t, repo.Offers(), 2)
}

// keyFailingKV rejects writes to a single key.
type keyFailingKV struct {
	*MemoryKV
	key string
}

func (f *keyFailingKV) Set(ctx context.Context, key string, value []byte) error {
	if key == f.key {
		return errDiskFull
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func TestSaveAccountRestoresUsersWhenSupplierWriteFails(t *testing.T) {
	ctx := context.Background()
	kv := &keyFailingKV{MemoryKV: NewMemoryKV(), key: KeySuppliers}
	repo, err := Open(ctx, kv)
	require.NoError(t, err)

	sup := testSupplier()
	err = repo.SaveAccount(ctx, models.User{ID: "usr-1", Email: "a@b.et", Role: models.RoleCompany}, &sup)
	require.ErrorIs(t, err, errDiskFull)
	assert.Empty(t, repo.Users())
	assert.Empty(t, repo.Suppliers())

	reopened, err := Open(ctx, kv.MemoryKV)
	require.NoError(t, err)
	assert.Empty(t, reopened.Users())

	kv.key = ""
	require.NoError(t, repo.SaveAccount(ctx, models.User{ID: "usr-1", Email: "a@b.et", Role: models.RoleCompany}, &sup))
	assert.Len(t, repo.Users(), 1)
	assert.Len(t, repo.Suppliers(), 1)
}

func TestAddTINRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo, kv := openEmpty(t)

	require.NoError(t, repo.AddTIN(ctx, models.TIN{ID: "tin-1", UserID: "usr-1", Number: "ET0001234567"}))

	err := repo.AddTIN(ctx, models.TIN{ID: "tin-2", UserID: "usr-1", Number: "ET0007654321"})
	assert.ErrorIs(t, err, ErrDuplicateID)
	err = repo.AddTIN(ctx, models.TIN{ID: "tin-3", UserID: "usr-2", Number: "et0001234567"})
	assert.ErrorIs(t, err, ErrDuplicateID)

	reopened, err := Open(ctx, kv)
	require.NoError(t, err)
	tin, err := reopened.TINByUserID("usr-1")
	require.NoError(t, err)
	assert.Equal(t, "tin-1", tin.ID)
	_, err = reopened.TINByUserID("usr-2")
	assert.ErrorIs(t, err, ErrNotFound)
}
