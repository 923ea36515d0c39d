package converters

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ColumnConverter turns one CSV cell into a typed value. Empty cells convert to nil.
type ColumnConverter func(string) (interface{}, error)

// DecimalConverter accepts both "1234.5" and "1234,5".
func DecimalConverter(cell string) (interface{}, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	cell = strings.ReplaceAll(strings.ReplaceAll(cell, " ", ""), ",", ".")
	return decimal.NewFromString(cell)
}

func IntConverter(cell string) (interface{}, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	return strconv.Atoi(cell)
}

func BoolConverter(cell string) (interface{}, error) {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "":
		return nil, nil
	case "1", "true", "yes", "y", "да":
		return true, nil
	case "0", "false", "no", "n", "нет":
		return false, nil
	}
	return nil, fmt.Errorf("not a boolean: %q", cell)
}

func DefaultConverter(cell string) (interface{}, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	return cell, nil
}
