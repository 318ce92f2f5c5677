package triage

import "time"

// Status is the outcome of an intake.
type Status string

const (
	// StatusScored means the patient was scored without an assignment request
	StatusScored Status = "scored"

	// StatusAssigned means a bed was taken at Record.Hospital
	StatusAssigned Status = "assigned"

	// StatusNoCapacity means assignment was requested but every hospital was full
	StatusNoCapacity Status = "no_capacity"
)

// Record is the stored outcome of one intake. It carries the score and the
// assignment but none of the patient's vitals.
type Record struct {
	ID            string    `json:"id"`
	Status        Status    `json:"status"`
	Score         int       `json:"score"`
	Level         Level     `json:"level"`
	Factors       []string  `json:"factors"`
	Hospital      string    `json:"hospital,omitempty"`
	DistanceMiles float64   `json:"distance_miles"`
	BedsRemaining int       `json:"beds_remaining"`
	Handoff       string    `json:"handoff,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	NotifiedAt    time.Time `json:"notified_at,omitzero"`
}

// Assigned reports whether the intake took a bed.
func (r *Record) Assigned() bool {
	return r.Status == StatusAssigned
}
