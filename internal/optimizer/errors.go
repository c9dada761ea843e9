package optimizer

import "fmt"

// EmptyRangeError indicates inverted price bounds.
type EmptyRangeError struct {
	MinPrice float64
	MaxPrice float64
}

func (e *EmptyRangeError) Error() string {
	return fmt.Sprintf("empty price range: minPrice %.2f exceeds maxPrice %.2f", e.MinPrice, e.MaxPrice)
}

// ModelUnavailableError indicates optimization was requested without a
// trained model.
type ModelUnavailableError struct{}

func (e *ModelUnavailableError) Error() string {
	return "no trained model supplied for optimization"
}
