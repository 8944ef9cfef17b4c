package routes_pins

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// Coordinate accepts a JSON number or a numeric string. Infinities and NaN
// are rejected: the pin list could not be encoded with them stored.
type Coordinate float64

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("coordinate %q is not a number", s)
		}
		return c.set(f)
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("coordinate is not a number: %w", err)
	}
	return c.set(f)
}

func (c *Coordinate) set(f float64) error {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Errorf("coordinate %v is not finite", f)
	}
	*c = Coordinate(f)
	return nil
}

// CreatePinRequest is the POST /pins body. Ownership fields sent by the
// client are not part of it and are dropped while decoding.
type CreatePinRequest struct {
	Title       string      `json:"title" validate:"required"`
	Description string      `json:"description"`
	Category    string      `json:"category" validate:"required"`
	Lat         *Coordinate `json:"lat" validate:"required"`
	Lng         *Coordinate `json:"lng" validate:"required"`
}

// UpdatePinRequest is the PUT /pins/{id} body. Nil fields keep their stored value.
type UpdatePinRequest struct {
	Title       *string     `json:"title" validate:"omitnil,min=1"`
	Description *string     `json:"description"`
	Category    *string     `json:"category" validate:"omitnil,min=1"`
	Lat         *Coordinate `json:"lat"`
	Lng         *Coordinate `json:"lng"`
}
