package orders

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"supplymarket_api/internal/core/models"
	"supplymarket_api/internal/geo"
	"supplymarket_api/internal/pricing"
	"supplymarket_api/metrics"
)

// Store is the part of the repository the order service reads and writes.
type Store interface {
	UserByID(id string) (models.User, error)
	OfferByID(id string) (models.Offer, error)
	SupplierByID(id string) (models.Supplier, error)
	SupplierByUserID(userID string) (models.Supplier, error)
	Orders() []models.Order
	OrderByID(id string) (models.Order, error)
	AppendOrder(ctx context.Context, o models.Order) error
	UpdateOrder(ctx context.Context, id string, mutate func(models.Order) (models.Order, error)) (models.Order, error)
}

type Quoter interface {
	QuoteOrder(offer models.Offer, quantity int, delivery geo.Coordinate) (pricing.Quote, error)
}

type PlaceOrderRequest struct {
	OfferID         string          `json:"offer_id"`
	Quantity        int             `json:"quantity"`
	DeliveryAddress string          `json:"delivery_address"`
	DeliveryPoint   *geo.Coordinate `json:"delivery_point,omitempty"`
	Notes           string          `json:"notes"`
}

type Service struct {
	store  Store
	quoter Quoter
	log    *log.Entry
	now    func() time.Time
}

func NewService(store Store, quoter Quoter, logger *log.Entry) *Service {
	return &Service{store: store, quoter: quoter, log: logger, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// PlaceOrder prices and records a new pending order for a customer. Transport
// is charged for the ordered quantity at the delivery point, which defaults to
// the customer's own location.
func (s *Service) PlaceOrder(ctx context.Context, customerID string, req PlaceOrderRequest) (models.Order, error) {
	customer, err := s.store.UserByID(customerID)
	if err != nil {
		return models.Order{}, err
	}
	if customer.Role != models.RoleCustomer {
		return models.Order{}, fmt.Errorf("%w: only customers can place orders", models.ErrForbidden)
	}

	offer, err := s.store.OfferByID(req.OfferID)
	if err != nil {
		return models.Order{}, err
	}
	supplier, err := s.store.SupplierByID(offer.SupplierID)
	if err != nil {
		return models.Order{}, fmt.Errorf("offer %s: %w", offer.ID, err)
	}
	offer.Location = supplier.Location
	offer.SupplierName = supplier.Name

	delivery := customer.BuyerLocation()
	if req.DeliveryPoint != nil {
		delivery = *req.DeliveryPoint
	}
	quote, err := s.quoter.QuoteOrder(offer, req.Quantity, delivery)
	if err != nil {
		return models.Order{}, err
	}

	address := strings.TrimSpace(req.DeliveryAddress)
	if address == "" {
		address = customer.Address
	}

	now := s.now()
	order := models.Order{
		ID:              uuid.NewString(),
		CustomerID:      customer.ID,
		SupplierID:      supplier.ID,
		OfferID:         offer.ID,
		Quantity:        quote.Quantity,
		UnitPrice:       quote.UnitPrice,
		Subtotal:        quote.Subtotal,
		TransportCost:   quote.TransportCost,
		VATAmount:       quote.VATAmount,
		TotalAmount:     quote.TotalAmount,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusUnpaid,
		DeliveryAddress: address,
		DeliveryPoint:   delivery,
		Notes:           req.Notes,
		OrderedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.AppendOrder(ctx, order); err != nil {
		return models.Order{}, err
	}

	metrics.RecordOrderPlaced(quote.TransportCost.InexactFloat64())
	s.log.WithFields(log.Fields{
		"order_id":    order.ID,
		"offer_id":    offer.ID,
		"quantity":    order.Quantity,
		"distance_km": quote.DistanceKm,
		"total":       order.TotalAmount.String(),
	}).Info("Order placed")
	return order, nil
}

// Transition moves an order to status to on behalf of the supplier that received it.
// The transition is checked against the order as stored at the moment of the
// write, so two racing requests cannot both start from the same status.
func (s *Service) Transition(ctx context.Context, actorID, orderID string, to models.OrderStatus) (models.Order, error) {
	order, err := s.store.OrderByID(orderID)
	if err != nil {
		return models.Order{}, err
	}
	supplier, err := s.store.SupplierByUserID(actorID)
	if err != nil || supplier.ID != order.SupplierID {
		return models.Order{}, fmt.Errorf("%w: order %s belongs to another supplier", models.ErrForbidden, orderID)
	}

	var from models.OrderStatus
	next, err := s.store.UpdateOrder(ctx, orderID, func(current models.Order) (models.Order, error) {
		from = current.Status
		updated, err := ApplyTransition(current, to, s.now())
		metrics.RecordTransition(string(from), string(to), err)
		return updated, err
	})
	if err != nil {
		return models.Order{}, err
	}

	s.log.WithFields(log.Fields{
		"order_id": orderID,
		"from":     from,
		"to":       to,
	}).Info("Order status updated")
	return next, nil
}

// List returns the orders visible to a user, newest first: a customer sees
// what they ordered and a company sees what it received.
func (s *Service) List(userID string) ([]models.Order, error) {
	user, err := s.store.UserByID(userID)
	if err != nil {
		return nil, err
	}

	var visible func(models.Order) bool
	switch user.Role {
	case models.RoleCompany:
		supplier, err := s.store.SupplierByUserID(user.ID)
		if err != nil {
			return []models.Order{}, nil
		}
		visible = func(o models.Order) bool { return o.SupplierID == supplier.ID }
	default:
		visible = func(o models.Order) bool { return o.CustomerID == user.ID }
	}

	out := make([]models.Order, 0)
	for _, o := range s.store.Orders() {
		if visible(o) {
			out = append(out, o)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Order) int {
		return b.OrderedAt.Compare(a.OrderedAt)
	})
	return out, nil
}

// Get returns one order if userID is its customer or the user behind its supplier.
func (s *Service) Get(userID, orderID string) (models.Order, error) {
	order, err := s.store.OrderByID(orderID)
	if err != nil {
		return models.Order{}, err
	}
	if order.CustomerID == userID {
		return order, nil
	}
	if supplier, err := s.store.SupplierByUserID(userID); err == nil && supplier.ID == order.SupplierID {
		return order, nil
	}
	return models.Order{}, fmt.Errorf("%w: order %s", models.ErrForbidden, orderID)
}
