package models

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// For any list of method labels, the CSV cell encoding decodes back to
// the same list. Labels carrying commas, quotes, or unicode must
// survive because upstream method names are free text.
func TestPropertyPaymentMethodsRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("payment methods survive a CSV cell round trip", prop.ForAll(
		func(methods []string) bool {
			pm := PaymentMethods(methods)

			cell, err := pm.MarshalCSV()
			if err != nil {
				t.Logf("marshal failed for %v: %v", methods, err)
				return false
			}

			var back PaymentMethods
			if err := back.UnmarshalCSV(cell); err != nil {
				t.Logf("unmarshal failed for %q: %v", cell, err)
				return false
			}

			if len(back) != len(methods) {
				return false
			}
			for i := range methods {
				if back[i] != methods[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AnyString()),
	))

	properties.TestingRun(t)
}
