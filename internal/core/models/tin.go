package models

import "time"

// TIN is a company's taxpayer identification record. A user holds at most one.
type TIN struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Number          string    `json:"tin_number"`
	BusinessName    string    `json:"business_name"`
	BusinessType    string    `json:"business_type"`
	Region          string    `json:"region,omitempty"`
	Woreda          string    `json:"woreda,omitempty"`
	Kebele          string    `json:"kebele,omitempty"`
	BusinessAddress string    `json:"business_address,omitempty"`
	RegisteredOn    time.Time `json:"registered_on"`
	CreatedAt       time.Time `json:"created_at"`
}
