package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"supplymarket_api/internal/auth"
	"supplymarket_api/internal/catalog"
	"supplymarket_api/internal/search"
)

type OfferHandler struct {
	catalog  *catalog.Service
	importer *catalog.Importer
}

func NewOfferHandler(svc *catalog.Service, importer *catalog.Importer) *OfferHandler {
	return &OfferHandler{catalog: svc, importer: importer}
}

func userID(c *gin.Context) string {
	if claims, ok := auth.ClaimsFrom(c); ok {
		return claims.UserID
	}
	return ""
}

// Search reads q, category, max_price, supplier and sort from the query string.
func (h *OfferHandler) Search(c *gin.Context) {
	criteria := search.Criteria{
		TextQuery:         c.Query("q"),
		Category:          c.Query("category"),
		SupplierNameQuery: c.Query("supplier"),
		SortKey:           search.SortKey(c.Query("sort")),
	}
	if raw := strings.TrimSpace(c.Query("max_price")); raw != "" {
		maxPrice, err := decimal.NewFromString(raw)
		if err != nil {
			badRequest(c, "invalid max_price", err)
			return
		}
		criteria.MaxPrice = &maxPrice
	}

	results, err := h.catalog.Search(c.Request.Context(), userID(c), criteria)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(results), "offers": results})
}

func (h *OfferHandler) Add(c *gin.Context) {
	var req catalog.NewOffer
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "failed to decode request body", err)
		return
	}

	offer, err := h.catalog.AddOffer(c.Request.Context(), userID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

func (h *OfferHandler) Update(c *gin.Context) {
	var req catalog.OfferPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "failed to decode request body", err)
		return
	}

	offer, err := h.catalog.UpdateOffer(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (h *OfferHandler) Delete(c *gin.Context) {
	if err := h.catalog.DeleteOffer(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OfferHandler) Contact(c *gin.Context) {
	contact, err := h.catalog.Contact(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// Import takes the CSV from the request body, or fetches it when ?url= is set.
// ?charset=windows-1251 decodes legacy exports.
func (h *OfferHandler) Import(c *gin.Context) {
	var (
		result catalog.ImportResult
		err    error
	)
	charset := c.Query("charset")
	if url := c.Query("url"); url != "" {
		result, err = h.importer.ImportURL(c.Request.Context(), userID(c), url, charset)
	} else {
		result, err = h.importer.Import(c.Request.Context(), userID(c), c.Request.Body, charset)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
