package orders

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplymarket_api/internal/core/models"
)

var allStatuses = []models.OrderStatus{
	models.OrderStatusPending,
	models.OrderStatusConfirmed,
	models.OrderStatusInTransit,
	models.OrderStatusDelivered,
	models.OrderStatusCancelled,
}

func TestTransitionTable(t *testing.T) {
	allowed := map[[2]models.OrderStatus]bool{
		{models.OrderStatusPending, models.OrderStatusConfirmed}:   true,
		{models.OrderStatusPending, models.OrderStatusCancelled}:   true,
		{models.OrderStatusConfirmed, models.OrderStatusInTransit}: true,
		{models.OrderStatusInTransit, models.OrderStatusDelivered}: true,
	}

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			order := models.Order{ID: "o", Status: from, PaymentStatus: models.PaymentStatusUnpaid}
			got, err := ApplyTransition(order, to, now)

			if allowed[[2]models.OrderStatus{from, to}] {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, got.Status)
				continue
			}
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", from, to)
			assert.Equal(t, from, got.Status)
		}
	}
}

func TestConfirmedCannotSkipToDelivered(t *testing.T) {
	_, err := ApplyTransition(models.Order{Status: models.OrderStatusConfirmed}, models.OrderStatusDelivered, time.Now())

	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, models.OrderStatusConfirmed, te.From)
	assert.Equal(t, models.OrderStatusDelivered, te.To)
}

func TestDeliveryStampsDateAndPayment(t *testing.T) {
	now := time.Date(2024, 3, 5, 15, 30, 0, 0, time.UTC)
	order := models.Order{Status: models.OrderStatusInTransit, PaymentStatus: models.PaymentStatusUnpaid}

	got, err := ApplyTransition(order, models.OrderStatusDelivered, now)
	require.NoError(t, err)

	require.NotNil(t, got.DeliveredAt)
	assert.Equal(t, now, *got.DeliveredAt)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	assert.Equal(t, now, got.UpdatedAt)
}

func TestNonDeliveryLeavesPaymentAlone(t *testing.T) {
	got, err := ApplyTransition(models.Order{Status: models.OrderStatusPending, PaymentStatus: models.PaymentStatusUnpaid},
		models.OrderStatusConfirmed, time.Now())
	require.NoError(t, err)
	assert.Nil(t, got.DeliveredAt)
	assert.Equal(t, models.PaymentStatusUnpaid, got.PaymentStatus)
}

func TestHistoryIsAppendOnlyAndInputUntouched(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	order := models.Order{Status: models.OrderStatusPending}

	confirmed, err := ApplyTransition(order, models.OrderStatusConfirmed, t0)
	require.NoError(t, err)
	shipped, err := ApplyTransition(confirmed, models.OrderStatusInTransit, t0.Add(time.Hour))
	require.NoError(t, err)

	assert.Empty(t, order.History)
	assert.Len(t, confirmed.History, 1)
	assert.Equal(t, []models.StatusChange{
		{From: models.OrderStatusPending, To: models.OrderStatusConfirmed, At: t0},
		{From: models.OrderStatusConfirmed, To: models.OrderStatusInTransit, At: t0.Add(time.Hour)},
	}, shipped.History)
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, IsTerminal(models.OrderStatusDelivered))
	assert.True(t, IsTerminal(models.OrderStatusCancelled))
	assert.False(t, IsTerminal(models.OrderStatusPending))
	assert.Empty(t, NextStatuses(models.OrderStatusDelivered))
	assert.ElementsMatch(t,
		[]models.OrderStatus{models.OrderStatusConfirmed, models.OrderStatusCancelled},
		NextStatuses(models.OrderStatusPending))
}
