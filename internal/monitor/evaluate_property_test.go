package monitor

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: for any purchase price > 0 and current price >= 0, the
// evaluation is alert-worthy exactly when the current price is at or
// below 90% of the purchase price.
func TestProperty_DropWorthyThreshold(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("alert-worthy iff current <= 0.9 * purchase", prop.ForAll(
		func(purchase, current float64) bool {
			got := DropWorthy(PercentDrop(purchase, current), DefaultDropThreshold)
			want := current <= purchase*0.9
			return got == want
		},
		gen.Float64Range(0.01, 10000.0),
		gen.Float64Range(0.0, 10000.0),
	))

	properties.Property("a price increase is never alert-worthy", prop.ForAll(
		func(purchase, bump float64) bool {
			return !DropWorthy(PercentDrop(purchase, purchase+bump), DefaultDropThreshold)
		},
		gen.Float64Range(0.01, 10000.0),
		gen.Float64Range(0.0, 10000.0),
	))

	properties.TestingRun(t)
}
