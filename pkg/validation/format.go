// Package validation provides caller-facing validation helpers.
package validation

import (
	"fmt"

	"github.com/pricecast/pricecast/pkg/constants"
)

// ValidateOutputFormat validates the output format selection.
func ValidateOutputFormat(outputFormat string) error {
	if outputFormat != constants.OutputFormatPretty && outputFormat != constants.OutputFormatCSV {
		return fmt.Errorf("output format must be %s or %s, got %s", constants.OutputFormatPretty, constants.OutputFormatCSV, outputFormat)
	}
	return nil
}

// ValidatePriceBounds checks a caller-supplied price range.
func ValidatePriceBounds(minPrice, maxPrice float64) error {
	if minPrice <= 0 {
		return fmt.Errorf("minPrice must be positive, got %.2f", minPrice)
	}
	if minPrice > maxPrice {
		return fmt.Errorf("minPrice %.2f exceeds maxPrice %.2f", minPrice, maxPrice)
	}
	return nil
}
