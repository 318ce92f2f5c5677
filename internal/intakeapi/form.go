package intakeapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/linnemanlabs/wardline/internal/geo"
	"github.com/linnemanlabs/wardline/internal/triage"
)

// patientForm is the JSON body of /triage and /intake. Pointer fields tell a
// missing value apart from a legitimate zero.
type patientForm struct {
	Gender           string   `json:"gender"`
	Age              *int     `json:"age"`
	HeartRate        *int     `json:"heart_rate"`
	BodyTemperature  *float64 `json:"body_temperature"`
	TemperatureUnit  string   `json:"temperature_unit"`
	OxygenSaturation *int     `json:"oxygen_saturation"`
	BloodPressure    *int     `json:"blood_pressure"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
}

// intakeForm adds the assignment request to the patient form.
type intakeForm struct {
	patientForm
	Assign bool `json:"assign"`
}

// patient converts the form to a validated triage.Patient. Location is only
// required when needLocation is set.
func (f *patientForm) patient(needLocation bool) (triage.Patient, error) {
	var errs []error
	required := func(name string, present bool) {
		if !present {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}
	required("gender", f.Gender != "")
	required("age", f.Age != nil)
	required("heart_rate", f.HeartRate != nil)
	required("body_temperature", f.BodyTemperature != nil)
	required("oxygen_saturation", f.OxygenSaturation != nil)
	required("blood_pressure", f.BloodPressure != nil)
	if needLocation {
		required("latitude", f.Latitude != nil)
		required("longitude", f.Longitude != nil)
	} else if (f.Latitude == nil) != (f.Longitude == nil) {
		errs = append(errs, errors.New("latitude and longitude must be given together"))
	}
	if len(errs) > 0 {
		return triage.Patient{}, errors.Join(errs...)
	}

	gender, err := triage.ParseGender(f.Gender)
	if err != nil {
		return triage.Patient{}, err
	}

	var tempF float64
	switch strings.ToUpper(strings.TrimSpace(f.TemperatureUnit)) {
	case "", "C":
		tempF = triage.CelsiusToFahrenheit(*f.BodyTemperature)
	case "F":
		tempF = *f.BodyTemperature
	default:
		return triage.Patient{}, fmt.Errorf("temperature_unit %q must be C or F", f.TemperatureUnit)
	}

	p := triage.Patient{
		Gender:           gender,
		Age:              *f.Age,
		HeartRate:        *f.HeartRate,
		BodyTempF:        tempF,
		OxygenSaturation: *f.OxygenSaturation,
		BloodPressure:    *f.BloodPressure,
	}
	if f.Latitude != nil && f.Longitude != nil {
		p.Location = geo.Point{Lat: *f.Latitude, Lng: *f.Longitude}
	}

	if err := p.Validate(); err != nil {
		return triage.Patient{}, err
	}
	return p, nil
}
