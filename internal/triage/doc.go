// Package triage provides the business boundary for wardline's patient
// intake. It defines the scoring rules (Score, Assess, LevelFor), the
// Service (score, assign, persist, async notify), the Store interface
// for intake records, and the domain models.
package triage
