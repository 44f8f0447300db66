package rates

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// A zero official rate always produces a zero premium, whatever the
// price. Broken rate feeds must never take the pipeline down with a
// division error or an absurd number.
func TestPropertyZeroRateGuard(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("zero official rate yields zero premium", prop.ForAll(
		func(price float64) bool {
			return CalculatePremium(price, 0, 1) == 0
		},
		gen.Float64Range(0, 1e12),
	))

	properties.TestingRun(t)
}

// Premiums are reported at two-decimal precision.
func TestPropertyPremiumPrecision(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("premium carries at most two decimals", prop.ForAll(
		func(price, rate float64) bool {
			got := CalculatePremium(price, rate, 1)
			scaled := got * 100
			tolerance := 1e-9 * math.Max(1, math.Abs(scaled))
			return math.Abs(scaled-math.Round(scaled)) <= tolerance
		},
		gen.Float64Range(0.01, 1e9),
		gen.Float64Range(0.01, 1e9),
	))

	properties.TestingRun(t)
}
