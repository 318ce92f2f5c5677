// Package hospital holds the hospital table and assigns patients to the
// nearest hospital that still has a free bed.
package hospital

import (
	"errors"
	"fmt"

	"github.com/linnemanlabs/wardline/internal/geo"
)

// Hospital is a treatment facility and its current free bed count.
type Hospital struct {
	Name          string    `json:"name"`
	Location      geo.Point `json:"location"`
	BedsAvailable int       `json:"beds_available"`
}

// Assignment is the outcome of a successful nearest-hospital search.
type Assignment struct {
	Hospital      string  `json:"hospital"`
	DistanceMiles float64 `json:"distance_miles"`
	BedsRemaining int     `json:"beds_remaining"`
}

// validate checks a single record. Duplicate names are checked by the registry.
func (h Hospital) validate() error {
	var errs []error
	if h.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if h.BedsAvailable < 0 {
		errs = append(errs, fmt.Errorf("beds_available %d must not be negative", h.BedsAvailable))
	}
	if !h.Location.Valid() {
		errs = append(errs, fmt.Errorf("invalid location (%v, %v)", h.Location.Lat, h.Location.Lng))
	}
	return errors.Join(errs...)
}
