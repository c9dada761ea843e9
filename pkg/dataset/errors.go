package dataset

import (
	"fmt"
	"strings"
)

// InsufficientDataError indicates that an operation received fewer data
// points than it requires. It is fatal for training and decomposition; callers
// requiring a degraded answer should check for it with errors.As.
type InsufficientDataError struct {
	What string
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: need at least %d points, got %d", e.What, e.Need, e.Got)
}

// SchemaMismatchError indicates that a feature vector's name set differs from
// the schema a model was trained with. Both missing and unexpected names are
// reported; neither is silently tolerated.
type SchemaMismatchError struct {
	Missing []string
	Extra   []string
}

func (e *SchemaMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing features [%s]", strings.Join(e.Missing, ", ")))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected features [%s]", strings.Join(e.Extra, ", ")))
	}
	if len(parts) == 0 {
		parts = append(parts, "feature schema mismatch")
	}
	return "schema mismatch: " + strings.Join(parts, "; ")
}

// InvalidInputError indicates a missing, NaN, or out-of-domain numeric value.
// Imputation is an upstream concern; the core rejects such inputs outright.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input for %s: %s", e.Field, e.Reason)
}
