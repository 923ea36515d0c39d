package dashboard

import (
	"math"

	"github.com/shopspring/decimal"

	"supplymarket_api/internal/core/models"
)

type CompanyStats struct {
	TotalOffers   int             `json:"total_offers"`
	TotalOrders   int             `json:"total_orders"`
	PendingOrders int             `json:"pending_orders"`
	Revenue       decimal.Decimal `json:"revenue"`
}

type CustomerStats struct {
	TotalOrders     int             `json:"total_orders"`
	PendingOrders   int             `json:"pending_orders"`
	DeliveredOrders int             `json:"delivered_orders"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
}

// MarketStats is the public overview. AverageRating is nil while no offer is rated.
type MarketStats struct {
	TotalOffers    int      `json:"total_offers"`
	TotalCompanies int      `json:"total_companies"`
	TotalOrders    int      `json:"total_orders"`
	AverageRating  *float64 `json:"average_rating"`
}

// Cancelled orders count as orders but never as money.
func billable(o models.Order) bool {
	return o.Status != models.OrderStatusCancelled
}

func ForCompany(supplierID string, offers []models.Offer, orders []models.Order) CompanyStats {
	s := CompanyStats{Revenue: decimal.Zero}
	for _, o := range offers {
		if o.SupplierID == supplierID {
			s.TotalOffers++
		}
	}
	for _, o := range orders {
		if o.SupplierID != supplierID {
			continue
		}
		s.TotalOrders++
		if o.Status == models.OrderStatusPending {
			s.PendingOrders++
		}
		if billable(o) {
			s.Revenue = s.Revenue.Add(o.TotalAmount)
		}
	}
	return s
}

func ForCustomer(customerID string, orders []models.Order) CustomerStats {
	s := CustomerStats{TotalSpent: decimal.Zero}
	for _, o := range orders {
		if o.CustomerID != customerID {
			continue
		}
		s.TotalOrders++
		switch o.Status {
		case models.OrderStatusPending:
			s.PendingOrders++
		case models.OrderStatusDelivered:
			s.DeliveredOrders++
		}
		if billable(o) {
			s.TotalSpent = s.TotalSpent.Add(o.TotalAmount)
		}
	}
	return s
}

func ForMarket(offers []models.Offer, suppliers []models.Supplier, orders []models.Order) MarketStats {
	s := MarketStats{
		TotalOffers:    len(offers),
		TotalCompanies: len(suppliers),
		TotalOrders:    len(orders),
	}

	var sum float64
	var rated int
	for _, o := range offers {
		if o.Rating == nil {
			continue
		}
		sum += *o.Rating
		rated++
	}
	if rated > 0 {
		avg := math.Round(sum/float64(rated)*10) / 10
		s.AverageRating = &avg
	}
	return s
}
