package models

import (
	"time"

	"github.com/shopspring/decimal"

	"supplymarket_api/internal/geo"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// StatusChange is one entry of an order's append-only status log.
type StatusChange struct {
	From OrderStatus `json:"from"`
	To   OrderStatus `json:"to"`
	At   time.Time   `json:"at"`
}

// Order is a customer's commitment against one offer. It is only ever
// modified through status transitions.
type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	SupplierID      string          `json:"supplier_id"`
	OfferID         string          `json:"offer_id"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TransportCost   decimal.Decimal `json:"transport_cost"`
	VATAmount       decimal.Decimal `json:"vat_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	DeliveryAddress string          `json:"delivery_address"`
	DeliveryPoint   geo.Coordinate  `json:"delivery_point"`
	Notes           string          `json:"notes,omitempty"`
	OrderedAt       time.Time       `json:"ordered_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	History         []StatusChange  `json:"history"`
}
