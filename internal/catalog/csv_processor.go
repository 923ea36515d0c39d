package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"supplymarket_api/internal/catalog/converters"
)

const (
	CharsetUTF8        = "utf-8"
	CharsetWindows1251 = "windows-1251"
)

// DefaultMaxCSVBytes caps how much raw input one import may read.
const DefaultMaxCSVBytes int64 = 4 << 20

var (
	ErrEmptyCSV           = errors.New("csv data is empty")
	ErrUnsupportedCharset = errors.New("unsupported charset")
	ErrCSVTooLarge        = errors.New("csv data too large")
)

// Row is one converted data line. Err is set when a cell failed conversion.
type Row struct {
	Line   int
	Values map[string]interface{}
	Err    error
}

// Processor reads ';'-separated CSV, picks the known columns and converts them.
// Files without a header row must list the columns in the processor's order.
type Processor struct {
	columns          []string
	columnConverters map[string]converters.ColumnConverter
	maxBytes         int64
}

func NewProcessor(columns []string) *Processor {
	return &Processor{
		columns:          columns,
		columnConverters: map[string]converters.ColumnConverter{},
		maxBytes:         DefaultMaxCSVBytes,
	}
}

// WithMaxBytes changes the input cap. Non-positive values keep the current one.
func (p *Processor) WithMaxBytes(n int64) *Processor {
	if n > 0 {
		p.maxBytes = n
	}
	return p
}

func (p *Processor) SetNewConverters(converters map[string]converters.ColumnConverter) *Processor {
	if len(converters) == 0 {
		return p
	}
	p.columnConverters = converters
	return p
}

func decodeReader(reader io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", CharsetUTF8, "utf8":
		return reader, nil
	case CharsetWindows1251, "cp1251":
		return transform.NewReader(reader, charmap.Windows1251.NewDecoder()), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnsupportedCharset, charset)
}

func (p *Processor) ProcessCSV(reader io.Reader, charset string) ([]Row, error) {
	limited := &io.LimitedReader{R: reader, N: p.maxBytes + 1}
	decoded, err := decodeReader(limited, charset)
	if err != nil {
		return nil, err
	}
	csvReader := csv.NewReader(decoded)
	csvReader.Comma = ';'
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	allRows, err := csvReader.ReadAll()
	if limited.N <= 0 {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrCSVTooLarge, p.maxBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("csv read error: %w", err)
	}
	if len(allRows) == 0 {
		return nil, ErrEmptyCSV
	}

	header := p.columns
	data := allRows
	firstLine := 1
	if p.isHeader(allRows[0]) {
		header = normalizeHeader(allRows[0])
		data = allRows[1:]
		firstLine = 2
	}

	columnMap := make(map[string]int, len(header))
	for i, col := range header {
		columnMap[col] = i
	}

	rows := make([]Row, 0, len(data))
	for i, record := range data {
		if isBlank(record) {
			continue
		}
		row := Row{Line: firstLine + i, Values: make(map[string]interface{}, len(p.columns))}
		for _, col := range p.columns {
			cell := ""
			if idx, ok := columnMap[col]; ok && idx < len(record) {
				cell = record[idx]
			}
			val, err := p.convert(col, cell)
			if err != nil {
				row.Err = fmt.Errorf("column %q, value %q: %w", col, cell, err)
				break
			}
			row.Values[col] = val
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (p *Processor) convert(col, cell string) (interface{}, error) {
	if conv, exists := p.columnConverters[col]; exists {
		return conv(cell)
	}
	return converters.DefaultConverter(cell)
}

func (p *Processor) isHeader(row []string) bool {
	normalized := normalizeHeader(row)
	for _, col := range p.columns {
		for _, cell := range normalized {
			if cell == col {
				return true
			}
		}
	}
	return false
}

func normalizeHeader(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
	}
	return out
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
