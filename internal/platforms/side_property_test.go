package platforms

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"p2p-crisis-collector/internal/models"
)

// For any input string, NormalizeSide either fails or lands exactly in
// {BUY, SELL}; there is no third outcome and no silent default.
func TestPropertySideDomain(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("normalized sides stay in the two-value domain", prop.ForAll(
		func(input string) bool {
			side, err := NormalizeSide(input)
			if err != nil {
				return side == ""
			}
			return side == models.TradeBuy || side == models.TradeSell
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
