package geo

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// DefaultBuyerLocation is used for buyers who never stored a location (Addis Ababa city centre).
var DefaultBuyerLocation = Coordinate{Latitude: 9.0320, Longitude: 38.7469}

// Coordinate is a WGS 84 point in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v must be between -90 and 90", ErrInvalidCoordinate, c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v must be between -180 and 180", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

func (c Coordinate) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

// OrDefault returns c, or DefaultBuyerLocation when c was never set.
func (c Coordinate) OrDefault() Coordinate {
	if c.IsZero() {
		return DefaultBuyerLocation
	}
	return c
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", c.Latitude, c.Longitude)
}
