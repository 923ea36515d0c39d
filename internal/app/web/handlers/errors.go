package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

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

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, geo.ErrInvalidCoordinate),
		errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrBelowMinimumOrder),
		errors.Is(err, search.ErrUnknownSortKey),
		errors.Is(err, models.ErrInvalidOffer),
		errors.Is(err, accounts.ErrInvalidRegistration),
		errors.Is(err, catalog.ErrEmptyCSV),
		errors.Is(err, catalog.ErrUnsupportedCharset),
		errors.Is(err, catalog.ErrUnsupportedURL),
		errors.Is(err, tins.ErrInvalidTIN):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrCSVTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, orders.ErrInvalidTransition),
		errors.Is(err, pricing.ErrInsufficientStock),
		errors.Is(err, accounts.ErrEmailTaken),
		errors.Is(err, tins.ErrTINRegistered),
		errors.Is(err, storage.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, accounts.ErrAccountLocked):
		return http.StatusLocked
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError responds with the mapped status. Internal failures are logged and
// their details kept out of the response.
func writeError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
		return
	}

	body := gin.H{"error": err.Error()}
	var locked *accounts.LockedError
	if errors.As(err, &locked) {
		body["retry_after_seconds"] = int(locked.Remaining.Seconds() + 0.999)
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg + ": " + err.Error()})
}
