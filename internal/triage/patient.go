package triage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/linnemanlabs/wardline/internal/geo"
)

// Accepted input ranges, taken from the intake form.
const (
	MinAge       = 0
	MaxAge       = 120
	MinBodyTempC = 35.0
	MaxBodyTempC = 42.0
	MinBodyTempF = 95.0
	MaxBodyTempF = 107.6
	MinSpO2      = 0
	MaxSpO2      = 100

	// absorbs rounding from Celsius conversion at the range edges
	tempEpsilon = 1e-9
)

// Gender is the patient's reported gender.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ParseGender normalizes a form value.
func ParseGender(s string) (Gender, error) {
	switch g := Gender(strings.ToLower(strings.TrimSpace(s))); g {
	case GenderMale, GenderFemale, GenderOther:
		return g, nil
	default:
		return "", fmt.Errorf("gender %q must be one of male, female, other", s)
	}
}

// Patient is a single intake. It is never persisted.
type Patient struct {
	Gender           Gender
	Age              int
	HeartRate        int     // beats per minute
	BodyTempF        float64 // degrees Fahrenheit
	OxygenSaturation int     // percent
	BloodPressure    int     // systolic, mmHg
	Location         geo.Point
}

// CelsiusToFahrenheit converts a temperature reading.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// Validate checks every field against the intake form ranges and returns
// all violations joined.
func (p Patient) Validate() error {
	var errs []error

	switch p.Gender {
	case GenderMale, GenderFemale, GenderOther:
	default:
		errs = append(errs, fmt.Errorf("gender %q must be one of male, female, other", p.Gender))
	}
	if p.Age < MinAge || p.Age > MaxAge {
		errs = append(errs, fmt.Errorf("age %d out of range (%d..%d)", p.Age, MinAge, MaxAge))
	}
	if p.HeartRate < 0 {
		errs = append(errs, fmt.Errorf("heart_rate %d must not be negative", p.HeartRate))
	}
	// NaN fails both comparisons, so check the accepted range positively
	if !(p.BodyTempF >= MinBodyTempF-tempEpsilon && p.BodyTempF <= MaxBodyTempF+tempEpsilon) {
		errs = append(errs, fmt.Errorf("body_temperature %.1fF out of range (%.1f..%.1fF)", p.BodyTempF, MinBodyTempF, MaxBodyTempF))
	}
	if p.OxygenSaturation < MinSpO2 || p.OxygenSaturation > MaxSpO2 {
		errs = append(errs, fmt.Errorf("oxygen_saturation %d out of range (%d..%d)", p.OxygenSaturation, MinSpO2, MaxSpO2))
	}
	if p.BloodPressure < 0 {
		errs = append(errs, fmt.Errorf("blood_pressure %d must not be negative", p.BloodPressure))
	}
	if !p.Location.Valid() {
		errs = append(errs, fmt.Errorf("location (%v, %v) out of range", p.Location.Lat, p.Location.Lng))
	}

	return errors.Join(errs...)
}
