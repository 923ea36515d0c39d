package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"supplymarket_api/internal/catalog/converters"
	"supplymarket_api/internal/core/models"
	"supplymarket_api/metrics"
)

// Offer CSV columns. name, category, unit_price and unit are required.
const (
	ColName        = "name"
	ColDescription = "description"
	ColBrand       = "brand"
	ColModel       = "model"
	ColCategory    = "category"
	ColUnitPrice   = "unit_price"
	ColUnit        = "unit"
	ColAvailable   = "available"
	ColMinOrder    = "min_order_quantity"
	ColTaxIncluded = "tax_included"
)

var OfferColumns = []string{
	ColName, ColDescription, ColBrand, ColModel, ColCategory,
	ColUnitPrice, ColUnit, ColAvailable, ColMinOrder, ColTaxIncluded,
}

type RowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type ImportResult struct {
	Imported int        `json:"imported"`
	Failed   int        `json:"failed"`
	Errors   []RowError `json:"errors,omitempty"`
}

// Importer bulk-lists offers for one supplier from CSV. Rows that fail
// conversion or validation are reported and skipped; the rest are stored in
// one batch.
type Importer struct {
	service   *Service
	processor *Processor
	fetcher   Fetcher
	log       *log.Entry
}

func NewImporter(service *Service, fetcher Fetcher, logger *log.Entry) *Importer {
	processor := NewProcessor(OfferColumns).SetNewConverters(map[string]converters.ColumnConverter{
		ColUnitPrice:   converters.DecimalConverter,
		ColAvailable:   converters.IntConverter,
		ColMinOrder:    converters.IntConverter,
		ColTaxIncluded: converters.BoolConverter,
	})
	return &Importer{service: service, processor: processor, fetcher: fetcher, log: logger}
}

func (im *Importer) Import(ctx context.Context, userID string, r io.Reader, charset string) (ImportResult, error) {
	supplier, err := im.service.supplierOf(userID)
	if err != nil {
		return ImportResult{}, err
	}
	rows, err := im.processor.ProcessCSV(r, charset)
	if err != nil {
		return ImportResult{}, err
	}

	var counters metrics.ImportMetrics
	defer counters.Flush()

	result := ImportResult{}
	fail := func(line int, err error) {
		counters.FailedCount.Add(1)
		result.Failed++
		result.Errors = append(result.Errors, RowError{Line: line, Error: err.Error()})
	}

	batch := make([]models.Offer, 0, len(rows))
	for _, row := range rows {
		counters.ProcessedCount.Add(1)
		if row.Err != nil {
			fail(row.Line, row.Err)
			continue
		}
		if row.Values[ColUnitPrice] == nil {
			fail(row.Line, fmt.Errorf("%w: unit_price is required", models.ErrInvalidOffer))
			continue
		}
		offer := im.service.buildOffer(supplier, newOfferFromRow(row.Values))
		if err := offer.Validate(); err != nil {
			fail(row.Line, err)
			continue
		}
		batch = append(batch, offer)
	}

	if len(batch) > 0 {
		if err := im.service.store.SaveOffers(ctx, batch); err != nil {
			return ImportResult{}, fmt.Errorf("store imported offers: %w", err)
		}
	}
	counters.ImportedCount.Add(int32(len(batch)))
	result.Imported = len(batch)

	im.log.WithFields(log.Fields{
		"supplier_id": supplier.ID,
		"imported":    result.Imported,
		"failed":      result.Failed,
	}).Info("Offer import finished")
	return result, nil
}

// WithMaxBytes caps the size of a single import, whether uploaded or fetched.
func (im *Importer) WithMaxBytes(n int64) *Importer {
	im.processor.WithMaxBytes(n)
	return im
}

// ImportURL fetches a CSV document and imports it like Import.
func (im *Importer) ImportURL(ctx context.Context, userID, url, charset string) (ImportResult, error) {
	if im.fetcher == nil {
		return ImportResult{}, fmt.Errorf("no fetcher configured")
	}
	if err := checkURL(url); err != nil {
		return ImportResult{}, err
	}
	body, err := im.fetcher.Fetch(ctx, url)
	if err != nil {
		return ImportResult{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer body.Close()
	return im.Import(ctx, userID, body, charset)
}

func newOfferFromRow(v map[string]interface{}) NewOffer {
	in := NewOffer{
		Name:        str(v[ColName]),
		Description: str(v[ColDescription]),
		Brand:       str(v[ColBrand]),
		Model:       str(v[ColModel]),
		Category:    str(v[ColCategory]),
		Unit:        str(v[ColUnit]),
		// an empty min order column means single units may be ordered
		MinOrderQuantity: 1,
	}
	if p, ok := v[ColUnitPrice].(decimal.Decimal); ok {
		in.UnitPrice = p
	}
	if n, ok := v[ColAvailable].(int); ok {
		in.Available = n
	}
	if n, ok := v[ColMinOrder].(int); ok {
		in.MinOrderQuantity = n
	}
	if b, ok := v[ColTaxIncluded].(bool); ok {
		in.TaxIncluded = b
	}
	return in
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
