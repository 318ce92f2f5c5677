package triage

import (
	"math"
	"strings"
	"testing"

	"github.com/linnemanlabs/wardline/internal/geo"
)

func validPatient() Patient {
	return Patient{
		Gender:           GenderMale,
		Age:              30,
		HeartRate:        70,
		BodyTempF:        CelsiusToFahrenheit(36.5),
		OxygenSaturation: 95,
		BloodPressure:    120,
		Location:         geo.Point{Lat: 40.74, Lng: -74.0},
	}
}

func TestPatient_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*Patient)
		errSubstr []string
	}{
		{"valid", func(*Patient) {}, nil},
		{"min bounds", func(p *Patient) {
			p.Age, p.HeartRate, p.BodyTempF, p.OxygenSaturation, p.BloodPressure = 0, 0, MinBodyTempF, 0, 0
		}, nil},
		{"max bounds", func(p *Patient) {
			p.Age, p.BodyTempF, p.OxygenSaturation = 120, MaxBodyTempF, 100
		}, nil},
		{"bad gender", func(p *Patient) { p.Gender = "unknown" }, []string{"gender"}},
		{"empty gender", func(p *Patient) { p.Gender = "" }, []string{"gender"}},
		{"age negative", func(p *Patient) { p.Age = -1 }, []string{"age -1"}},
		{"age too high", func(p *Patient) { p.Age = 121 }, []string{"age 121"}},
		{"heart rate negative", func(p *Patient) { p.HeartRate = -5 }, []string{"heart_rate"}},
		{"temp too low", func(p *Patient) { p.BodyTempF = 94.9 }, []string{"body_temperature"}},
		{"temp too high", func(p *Patient) { p.BodyTempF = 108 }, []string{"body_temperature"}},
		{"temp nan", func(p *Patient) { p.BodyTempF = math.NaN() }, []string{"body_temperature"}},
		{"spo2 over 100", func(p *Patient) { p.OxygenSaturation = 101 }, []string{"oxygen_saturation"}},
		{"bp negative", func(p *Patient) { p.BloodPressure = -1 }, []string{"blood_pressure"}},
		{"bad latitude", func(p *Patient) { p.Location.Lat = 100 }, []string{"location"}},
		{"several at once", func(p *Patient) {
			p.Age = 200
			p.OxygenSaturation = -3
		}, []string{"age 200", "oxygen_saturation -3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := validPatient()
			tt.mutate(&p)
			err := p.Validate()
			if len(tt.errSubstr) == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			for _, sub := range tt.errSubstr {
				if !strings.Contains(err.Error(), sub) {
					t.Errorf("error %q missing %q", err, sub)
				}
			}
		})
	}
}

func TestParseGender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Gender
		wantErr bool
	}{
		{"Male", GenderMale, false},
		{"female", GenderFemale, false},
		{" OTHER ", GenderOther, false},
		{"", "", true},
		{"x", "", true},
	}
	for _, tt := range tests {
		got, err := ParseGender(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseGender(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseGender(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCelsiusToFahrenheit(t *testing.T) {
	t.Parallel()

	tests := []struct{ c, f float64 }{
		{0, 32},
		{100, 212},
		{35, 95},
		{42, 107.6},
		{36.5, 97.7},
	}
	for _, tt := range tests {
		if got := CelsiusToFahrenheit(tt.c); math.Abs(got-tt.f) > 1e-9 {
			t.Errorf("CelsiusToFahrenheit(%v) = %v, want %v", tt.c, got, tt.f)
		}
	}
}
