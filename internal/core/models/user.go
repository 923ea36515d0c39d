package models

import (
	"time"

	"supplymarket_api/internal/geo"
)

type Role string

const (
	RoleCompany  Role = "company"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	return r == RoleCompany || r == RoleCustomer
}

type User struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	PasswordHash  []byte          `json:"password_hash"`
	Role          Role            `json:"role"`
	CompanyName   string          `json:"company_name,omitempty"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	Location      *geo.Coordinate `json:"location,omitempty"`
	RegisteredAt  time.Time       `json:"registered_at"`
	LoginAttempts int             `json:"login_attempts"`
	LockedUntil   *time.Time      `json:"locked_until,omitempty"`
}

// BuyerLocation is where deliveries to this user are priced.
func (u User) BuyerLocation() geo.Coordinate {
	if u.Location == nil {
		return geo.DefaultBuyerLocation
	}
	return *u.Location
}
