package quality

import "github.com/dairychain-dev/dairychain/internal/models"

// Grading thresholds. Milk must be cold and rich to grade A: warm milk
// degrades fast regardless of composition, so temperature caps the grade.
const (
	gradeAMaxTemp    = 6.0 // °C
	gradeBMaxTemp    = 10.0
	gradeAMinFat     = 3.5 // %
	gradeAMinProtein = 3.2
	gradeBMinFat     = 3.0
	gradeBMinProtein = 2.8
)

// Per-grade payout rates relative to the base rate per liter
const (
	gradeAMultiplier = 1.0
	gradeBMultiplier = 0.85
	gradeCMultiplier = 0.7
)

// Numeric scores used for quality averages on the dashboard
var gradeScores = map[string]float64{
	models.GradeA: 10,
	models.GradeB: 7,
	models.GradeC: 4,
}

// Grade derives the quality grade for a collection from its measurements
func Grade(temperature, fatContent, proteinContent float64) string {
	switch {
	case temperature <= gradeAMaxTemp && fatContent >= gradeAMinFat && proteinContent >= gradeAMinProtein:
		return models.GradeA
	case temperature <= gradeBMaxTemp && fatContent >= gradeBMinFat && proteinContent >= gradeBMinProtein:
		return models.GradeB
	default:
		return models.GradeC
	}
}

// Rate returns the per-liter payout rate for a grade given the base rate
func Rate(grade string, baseRate float64) float64 {
	switch grade {
	case models.GradeA:
		return baseRate * gradeAMultiplier
	case models.GradeB:
		return baseRate * gradeBMultiplier
	default:
		return baseRate * gradeCMultiplier
	}
}

// Score returns the numeric quality score for a grade (0 if unknown)
func Score(grade string) float64 {
	return gradeScores[grade]
}
