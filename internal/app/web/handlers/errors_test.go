package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"

	"supplymarket_api/internal/accounts"
	"supplymarket_api/internal/catalog"
	"supplymarket_api/internal/core/models"
	"supplymarket_api/internal/geo"
	"supplymarket_api/internal/orders"
	"supplymarket_api/internal/pricing"
	"supplymarket_api/internal/search"
	"supplymarket_api/internal/storage"
	"supplymarket_api/internal/tins"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", geo.ErrInvalidCoordinate), http.StatusBadRequest},
		{pricing.ErrInvalidQuantity, http.StatusBadRequest},
		{pricing.ErrBelowMinimumOrder, http.StatusBadRequest},
		{search.ErrUnknownSortKey, http.StatusBadRequest},
		{models.ErrInvalidOffer, http.StatusBadRequest},
		{fmt.Errorf("%w %q", catalog.ErrUnsupportedCharset, "koi8-r"), http.StatusBadRequest},
		{catalog.ErrUnsupportedURL, http.StatusBadRequest},
		{catalog.ErrCSVTooLarge, http.StatusRequestEntityTooLarge},
		{&orders.TransitionError{From: models.OrderStatusDelivered, To: models.OrderStatusPending}, http.StatusConflict},
		{pricing.ErrInsufficientStock, http.StatusConflict},
		{accounts.ErrEmailTaken, http.StatusConflict},
		{tins.ErrTINRegistered, http.StatusConflict},
		{fmt.Errorf("%w: number", tins.ErrInvalidTIN), http.StatusBadRequest},
		{&accounts.LockedError{Remaining: time.Second}, http.StatusLocked},
		{accounts.ErrInvalidCredentials, http.StatusUnauthorized},
		{models.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("offer x: %w", storage.ErrNotFound), http.StatusNotFound},
		{gobreaker.ErrOpenState, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
