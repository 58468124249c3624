// Package monitor runs the price-drop watching loop: one independent
// ticker per tracked position, each tick fetching the current price,
// evaluating the drop against the purchase price and sending at most
// one alert per instrument per day.
package monitor

// DefaultDropThreshold is the percent drop that triggers an alert.
const DefaultDropThreshold = 10.0

// PercentDrop returns the percentage decline of current relative to
// the purchase price. A price increase yields a negative value.
func PercentDrop(purchasePrice, currentPrice float64) float64 {
	return (purchasePrice - currentPrice) / purchasePrice * 100
}

// DropWorthy reports whether a drop warrants an alert. The check is
// one-directional: only declines of at least threshold percent
// qualify, never increases. Each poll is evaluated independently
// against the fixed purchase price, with no smoothing or hysteresis.
func DropWorthy(percentDrop, threshold float64) bool {
	return percentDrop >= threshold
}
