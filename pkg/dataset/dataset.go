// Package dataset defines the observation and feature types shared by the
// pricing core and loads validated tabular history produced upstream.
package dataset

import (
	"math"
	"sort"
	"time"
)

// FeatureName constants for the features every dataset carries.
const (
	FeaturePrice = "price"
)

// FeatureVector maps feature names to numeric values. Vectors used for
// prediction always include a "price" entry.
type FeatureVector map[string]float64

// Clone returns an independent copy of the vector.
func (fv FeatureVector) Clone() FeatureVector {
	out := make(FeatureVector, len(fv))
	for k, v := range fv {
		out[k] = v
	}
	return out
}

// WithPrice returns a copy of the vector with the price entry set to p.
func (fv FeatureVector) WithPrice(p float64) FeatureVector {
	out := fv.Clone()
	out[FeaturePrice] = p
	return out
}

// Names returns the sorted feature names of the vector.
func (fv FeatureVector) Names() []string {
	names := make([]string, 0, len(fv))
	for k := range fv {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate rejects NaN and infinite values.
func (fv FeatureVector) Validate() error {
	for name, v := range fv {
		if math.IsNaN(v) {
			return &InvalidInputError{Field: name, Reason: "value is NaN"}
		}
		if math.IsInf(v, 0) {
			return &InvalidInputError{Field: name, Reason: "value is infinite"}
		}
	}
	return nil
}

// ObservationRecord is one historical day of a single inventory unit/segment.
type ObservationRecord struct {
	Date    time.Time
	Price   float64
	Demand  float64
	Context map[string]float64
}

// Validate enforces the record invariants: positive price, non-negative and
// finite demand, finite context values.
func (r ObservationRecord) Validate() error {
	if r.Date.IsZero() {
		return &InvalidInputError{Field: "date", Reason: "date is unset"}
	}
	if math.IsNaN(r.Price) || math.IsInf(r.Price, 0) {
		return &InvalidInputError{Field: FeaturePrice, Reason: "price is not finite"}
	}
	if r.Price <= 0 {
		return &InvalidInputError{Field: FeaturePrice, Reason: "price must be positive"}
	}
	if math.IsNaN(r.Demand) || math.IsInf(r.Demand, 0) {
		return &InvalidInputError{Field: "demand", Reason: "demand is not finite"}
	}
	if r.Demand < 0 {
		return &InvalidInputError{Field: "demand", Reason: "demand must be non-negative"}
	}
	for name, v := range r.Context {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidInputError{Field: name, Reason: "context value is not finite"}
		}
	}
	return nil
}

// Dataset is an ordered collection of observations with a uniform context
// schema.
type Dataset struct {
	Records      []ObservationRecord
	ContextNames []string
}

// Validate checks every record and the date-uniqueness invariant. Records
// must already be in ascending date order.
func (d *Dataset) Validate() error {
	if len(d.Records) == 0 {
		return &InsufficientDataError{What: "dataset", Need: 1, Got: 0}
	}
	seen := make(map[string]struct{}, len(d.Records))
	var prev time.Time
	for i, rec := range d.Records {
		if err := rec.Validate(); err != nil {
			return err
		}
		key := rec.Date.Format("2006-01-02")
		if _, dup := seen[key]; dup {
			return &InvalidInputError{Field: "date", Reason: "duplicate date " + key}
		}
		seen[key] = struct{}{}
		if i > 0 && !rec.Date.After(prev) {
			return &InvalidInputError{Field: "date", Reason: "dates must be in ascending order"}
		}
		prev = rec.Date
		for _, name := range d.ContextNames {
			if _, ok := rec.Context[name]; !ok {
				return &SchemaMismatchError{Missing: []string{name}}
			}
		}
	}
	return nil
}

// Demands returns the demand series in record order.
func (d *Dataset) Demands() []float64 {
	out := make([]float64, len(d.Records))
	for i, rec := range d.Records {
		out[i] = rec.Demand
	}
	return out
}

// Prices returns the price series in record order.
func (d *Dataset) Prices() []float64 {
	out := make([]float64, len(d.Records))
	for i, rec := range d.Records {
		out[i] = rec.Price
	}
	return out
}
