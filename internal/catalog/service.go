package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"supplymarket_api/internal/core/models"
	"supplymarket_api/internal/geo"
	"supplymarket_api/internal/search"
	"supplymarket_api/metrics"
)

type Store interface {
	UserByID(id string) (models.User, error)
	SupplierByUserID(userID string) (models.Supplier, error)
	SupplierByID(id string) (models.Supplier, error)
	OfferByID(id string) (models.Offer, error)
	SaveOffer(ctx context.Context, o models.Offer) error
	SaveOffers(ctx context.Context, batch []models.Offer) error
	UpdateOffer(ctx context.Context, id string, mutate func(models.Offer) (models.Offer, error)) (models.Offer, error)
	DeleteOffer(ctx context.Context, id string) error
	CatalogSnapshot() []models.Offer
}

type NewOffer struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Brand            string          `json:"brand"`
	Model            string          `json:"model"`
	Category         string          `json:"category"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Unit             string          `json:"unit"`
	Available        int             `json:"available"`
	MinOrderQuantity int             `json:"min_order_quantity"`
	TaxIncluded      bool            `json:"tax_included"`
}

// OfferPatch edits an offer in place. Nil fields are left unchanged.
type OfferPatch struct {
	Description      *string          `json:"description,omitempty"`
	UnitPrice        *decimal.Decimal `json:"unit_price,omitempty"`
	Available        *int             `json:"available,omitempty"`
	MinOrderQuantity *int             `json:"min_order_quantity,omitempty"`
	TaxIncluded      *bool            `json:"tax_included,omitempty"`
}

type Service struct {
	store  Store
	ranker *search.Ranker
	log    *log.Entry
	now    func() time.Time
}

func NewService(store Store, ranker *search.Ranker, logger *log.Entry) *Service {
	return &Service{store: store, ranker: ranker, log: logger, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// supplierOf resolves the supplier profile a company user acts for.
func (s *Service) supplierOf(userID string) (models.Supplier, error) {
	user, err := s.store.UserByID(userID)
	if err != nil {
		return models.Supplier{}, err
	}
	if user.Role != models.RoleCompany {
		return models.Supplier{}, fmt.Errorf("%w: only companies can list offers", models.ErrForbidden)
	}
	supplier, err := s.store.SupplierByUserID(userID)
	if err != nil {
		return models.Supplier{}, fmt.Errorf("%w: no supplier profile for user %s", models.ErrForbidden, userID)
	}
	return supplier, nil
}

func (s *Service) buildOffer(supplier models.Supplier, in NewOffer) models.Offer {
	now := s.now()
	return models.Offer{
		ID:               uuid.NewString(),
		SupplierID:       supplier.ID,
		SupplierName:     supplier.Name,
		Name:             strings.TrimSpace(in.Name),
		Description:      strings.TrimSpace(in.Description),
		Brand:            strings.TrimSpace(in.Brand),
		Model:            strings.TrimSpace(in.Model),
		Category:         strings.TrimSpace(in.Category),
		UnitPrice:        in.UnitPrice,
		Unit:             strings.TrimSpace(in.Unit),
		Available:        in.Available,
		MinOrderQuantity: in.MinOrderQuantity,
		TaxIncluded:      in.TaxIncluded,
		Location:         supplier.Location,
		LastUpdated:      &now,
	}
}

func (s *Service) AddOffer(ctx context.Context, userID string, in NewOffer) (models.Offer, error) {
	supplier, err := s.supplierOf(userID)
	if err != nil {
		return models.Offer{}, err
	}

	offer := s.buildOffer(supplier, in)
	if err := s.store.SaveOffer(ctx, offer); err != nil {
		return models.Offer{}, err
	}

	s.log.WithFields(log.Fields{
		"offer_id":    offer.ID,
		"supplier_id": supplier.ID,
		"category":    offer.Category,
	}).Info("Offer listed")
	return offer, nil
}

// UpdateOffer applies patch to the stored offer. Concurrent patches are applied
// in turn, each on top of the previous one.
func (s *Service) UpdateOffer(ctx context.Context, userID, offerID string, patch OfferPatch) (models.Offer, error) {
	supplier, err := s.supplierOf(userID)
	if err != nil {
		return models.Offer{}, err
	}

	offer, err := s.store.UpdateOffer(ctx, offerID, func(offer models.Offer) (models.Offer, error) {
		if offer.SupplierID != supplier.ID {
			return models.Offer{}, fmt.Errorf("%w: offer %s belongs to another supplier", models.ErrForbidden, offerID)
		}
		patch.apply(&offer)
		now := s.now()
		offer.LastUpdated = &now
		return offer, nil
	})
	if err != nil {
		return models.Offer{}, err
	}
	s.log.WithField("offer_id", offerID).Info("Offer updated")
	return offer, nil
}

func (p OfferPatch) apply(offer *models.Offer) {
	if p.Description != nil {
		offer.Description = strings.TrimSpace(*p.Description)
	}
	if p.UnitPrice != nil {
		offer.UnitPrice = *p.UnitPrice
	}
	if p.Available != nil {
		offer.Available = *p.Available
	}
	if p.MinOrderQuantity != nil {
		offer.MinOrderQuantity = *p.MinOrderQuantity
	}
	if p.TaxIncluded != nil {
		offer.TaxIncluded = *p.TaxIncluded
	}
}

func (s *Service) DeleteOffer(ctx context.Context, userID, offerID string) error {
	supplier, err := s.supplierOf(userID)
	if err != nil {
		return err
	}
	offer, err := s.store.OfferByID(offerID)
	if err != nil {
		return err
	}
	if offer.SupplierID != supplier.ID {
		return fmt.Errorf("%w: offer %s belongs to another supplier", models.ErrForbidden, offerID)
	}
	if err := s.store.DeleteOffer(ctx, offerID); err != nil {
		return err
	}
	s.log.WithField("offer_id", offerID).Info("Offer delisted")
	return nil
}

// SupplierContact is how a buyer reaches the company behind an offer.
type SupplierContact struct {
	OfferID    string `json:"offer_id"`
	OfferName  string `json:"offer_name"`
	SupplierID string `json:"supplier_id"`
	Company    string `json:"company"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	Message    string `json:"message"`
}

// Contact returns the phone, email and address of the supplier listing offerID,
// with a ready-made enquiry message. Suppliers without a user account have no
// contact details and give ErrNotFound.
func (s *Service) Contact(offerID string) (SupplierContact, error) {
	offer, err := s.store.OfferByID(offerID)
	if err != nil {
		return SupplierContact{}, err
	}
	supplier, err := s.store.SupplierByID(offer.SupplierID)
	if err != nil {
		return SupplierContact{}, err
	}
	user, err := s.store.UserByID(supplier.UserID)
	if err != nil {
		return SupplierContact{}, fmt.Errorf("contact for supplier %s: %w", supplier.ID, err)
	}

	address := supplier.Address
	if address == "" {
		address = user.Address
	}
	return SupplierContact{
		OfferID:    offer.ID,
		OfferName:  offer.Name,
		SupplierID: supplier.ID,
		Company:    supplier.Name,
		Phone:      user.Phone,
		Email:      user.Email,
		Address:    address,
		Message:    fmt.Sprintf("Hello, I'm interested in %s. Could you provide more details?", offer.Name),
	}, nil
}

// BuyerLocation returns where results are priced for buyerID. Anonymous buyers
// and buyers without coordinates get geo.DefaultBuyerLocation.
func (s *Service) BuyerLocation(buyerID string) (geo.Coordinate, error) {
	if buyerID == "" {
		return geo.DefaultBuyerLocation, nil
	}
	user, err := s.store.UserByID(buyerID)
	if err != nil {
		return geo.Coordinate{}, err
	}
	return user.BuyerLocation(), nil
}

// Search ranks the current catalog for a buyer.
func (s *Service) Search(_ context.Context, buyerID string, criteria search.Criteria) ([]models.EvaluatedOffer, error) {
	buyer, err := s.BuyerLocation(buyerID)
	if err != nil {
		return nil, err
	}

	results, err := s.ranker.Search(s.store.CatalogSnapshot(), criteria, buyer)
	if err != nil {
		return nil, err
	}

	// already validated by the ranker
	sortKey, _ := search.ParseSortKey(string(criteria.SortKey))
	metrics.RecordSearch(string(sortKey), len(results))
	return results, nil
}
