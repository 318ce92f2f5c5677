package triage

// Level is the triage priority bucket.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// MaxScore is the highest value Score can return: the senior age bracket
// plus every vital-sign rule.
const MaxScore = 6

// Rule thresholds.
const (
	SeniorAge         = 65
	MiddleAge         = 50
	TachycardiaBPM    = 100 // exclusive
	FeverF            = 103.0
	HypoxemiaSpO2     = 90 // exclusive
	HypertensionSysBP = 140
)

// Factor names reported by Assess.
const (
	FactorAge65Plus    = "age_65_plus"
	FactorAge50To64    = "age_50_64"
	FactorTachycardia  = "tachycardia"
	FactorFever        = "fever"
	FactorHypoxemia    = "hypoxemia"
	FactorHypertension = "hypertension"
)

// Assessment is a score with the rules that contributed to it.
type Assessment struct {
	Score   int      `json:"score"`
	Level   Level    `json:"level"`
	Factors []string `json:"factors"`
}

// Score returns the additive severity score for p, in [0, MaxScore].
func Score(p Patient) int {
	return Assess(p).Score
}

// Assess scores p and records which rules fired. The age brackets are
// exclusive; every other rule adds independently.
func Assess(p Patient) Assessment {
	a := Assessment{Factors: []string{}}

	switch {
	case p.Age >= SeniorAge:
		a.Score += 2
		a.Factors = append(a.Factors, FactorAge65Plus)
	case p.Age >= MiddleAge:
		a.Score++
		a.Factors = append(a.Factors, FactorAge50To64)
	}
	if p.HeartRate > TachycardiaBPM {
		a.Score++
		a.Factors = append(a.Factors, FactorTachycardia)
	}
	if p.BodyTempF >= FeverF {
		a.Score++
		a.Factors = append(a.Factors, FactorFever)
	}
	if p.OxygenSaturation < HypoxemiaSpO2 {
		a.Score++
		a.Factors = append(a.Factors, FactorHypoxemia)
	}
	if p.BloodPressure >= HypertensionSysBP {
		a.Score++
		a.Factors = append(a.Factors, FactorHypertension)
	}

	a.Level = LevelFor(a.Score)
	return a
}

// LevelFor buckets a score: 0 is Low, 1-2 Medium, 3 and above High.
func LevelFor(score int) Level {
	switch {
	case score <= 0:
		return LevelLow
	case score <= 2:
		return LevelMedium
	default:
		return LevelHigh
	}
}
