package dashboard

import (
	"supplymarket_api/internal/core/models"
)

type Store interface {
	UserByID(id string) (models.User, error)
	SupplierByUserID(userID string) (models.Supplier, error)
	Offers() []models.Offer
	Suppliers() []models.Supplier
	Orders() []models.Order
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// ForUser returns CompanyStats for company users and CustomerStats otherwise.
func (s *Service) ForUser(userID string) (interface{}, error) {
	user, err := s.store.UserByID(userID)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleCompany {
		supplier, err := s.store.SupplierByUserID(userID)
		if err != nil {
			return CompanyStats{}, nil
		}
		return ForCompany(supplier.ID, s.store.Offers(), s.store.Orders()), nil
	}
	return ForCustomer(user.ID, s.store.Orders()), nil
}

func (s *Service) Market() MarketStats {
	return ForMarket(s.store.Offers(), s.store.Suppliers(), s.store.Orders())
}
