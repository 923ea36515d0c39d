package models

import (
	"time"

	"supplymarket_api/internal/geo"
)

// Supplier is the company profile behind a "company" user. Offers inherit its
// location for transport pricing.
type Supplier struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Address     string         `json:"address"`
	Location    geo.Coordinate `json:"location"`
	Rating      *float64       `json:"rating,omitempty"`
	TotalOrders int            `json:"total_orders"`
	Established string         `json:"established"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
