package orders

import (
	"errors"
	"fmt"
	"time"

	"supplymarket_api/internal/core/models"
)

var ErrInvalidTransition = errors.New("invalid order status transition")

// TransitionError reports a rejected status change. It matches ErrInvalidTransition with errors.Is.
type TransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// delivered and cancelled have no outgoing edges.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusInTransit},
	models.OrderStatusInTransit: {models.OrderStatusDelivered},
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from s in one step.
func NextStatuses(s models.OrderStatus) []models.OrderStatus {
	return append([]models.OrderStatus(nil), transitions[s]...)
}

func IsTerminal(s models.OrderStatus) bool {
	return s == models.OrderStatusDelivered || s == models.OrderStatusCancelled
}

// ApplyTransition returns a copy of order moved to status to. The input is not modified.
// Delivery stamps DeliveredAt and settles payment.
func ApplyTransition(order models.Order, to models.OrderStatus, now time.Time) (models.Order, error) {
	if !CanTransition(order.Status, to) {
		return order, &TransitionError{From: order.Status, To: to}
	}

	next := order
	next.History = make([]models.StatusChange, len(order.History), len(order.History)+1)
	copy(next.History, order.History)
	next.History = append(next.History, models.StatusChange{From: order.Status, To: to, At: now})

	next.Status = to
	next.UpdatedAt = now
	if to == models.OrderStatusDelivered {
		delivered := now
		next.DeliveredAt = &delivered
		next.PaymentStatus = models.PaymentStatusPaid
	}
	return next, nil
}
