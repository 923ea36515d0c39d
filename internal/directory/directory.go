package directory

import (
	"github.com/shopspring/decimal"

	"supplymarket_api/internal/core/models"
	"supplymarket_api/internal/geo"
)

// EstimateQuantity is the order size the directory prices transport for.
const EstimateQuantity = 100

type Store interface {
	UserByID(id string) (models.User, error)
	Suppliers() []models.Supplier
	Offers() []models.Offer
}

type Transporter interface {
	TransportCost(origin, destination geo.Coordinate, quantity int) (decimal.Decimal, error)
}

// Entry is one supplier row. EstimatedTransport is nil for anonymous visitors.
type Entry struct {
	SupplierID         string           `json:"supplier_id"`
	Name               string           `json:"name"`
	Address            string           `json:"address"`
	Location           geo.Coordinate   `json:"location"`
	OfferCount         int              `json:"offer_count"`
	AveragePrice       decimal.Decimal  `json:"average_price"`
	Rating             *float64         `json:"rating,omitempty"`
	EstimatedTransport *decimal.Decimal `json:"estimated_transport,omitempty"`
}

type Service struct {
	store       Store
	transporter Transporter
}

func NewService(store Store, transporter Transporter) *Service {
	return &Service{store: store, transporter: transporter}
}

// List returns every supplier in registration order with its offer count and
// mean unit price. Signed-in buyers also get the transport estimate for
// EstimateQuantity units to their location.
func (s *Service) List(buyerID string) ([]Entry, error) {
	var buyer *geo.Coordinate
	if buyerID != "" {
		user, err := s.store.UserByID(buyerID)
		if err != nil {
			return nil, err
		}
		loc := user.BuyerLocation()
		buyer = &loc
	}

	type totals struct {
		count int
		sum   decimal.Decimal
	}
	bySupplier := make(map[string]*totals)
	for _, o := range s.store.Offers() {
		t, ok := bySupplier[o.SupplierID]
		if !ok {
			t = &totals{sum: decimal.Zero}
			bySupplier[o.SupplierID] = t
		}
		t.count++
		t.sum = t.sum.Add(o.UnitPrice)
	}

	suppliers := s.store.Suppliers()
	out := make([]Entry, 0, len(suppliers))
	for _, sup := range suppliers {
		e := Entry{
			SupplierID:   sup.ID,
			Name:         sup.Name,
			Address:      sup.Address,
			Location:     sup.Location,
			AveragePrice: decimal.Zero,
			Rating:       sup.Rating,
		}
		if t, ok := bySupplier[sup.ID]; ok {
			e.OfferCount = t.count
			e.AveragePrice = t.sum.DivRound(decimal.NewFromInt(int64(t.count)), 2)
		}
		if buyer != nil {
			cost, err := s.transporter.TransportCost(sup.Location, *buyer, EstimateQuantity)
			if err != nil {
				return nil, err
			}
			e.EstimatedTransport = &cost
		}
		out = append(out, e)
	}
	return out, nil
}
