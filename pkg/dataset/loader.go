package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pricecast/pricecast/pkg/constants"
)

// Mandatory column names for the training CSV. "occupancy" is accepted as an
// alias for "demand" since hotel datasets commonly use it.
const (
	columnDate      = "date"
	columnPrice     = "price"
	columnDemand    = "demand"
	columnOccupancy = "occupancy"
)

// LoadCSV materializes a Dataset from a columnar file with a header row of
// `date,price,demand[,context...]`. Missing mandatory columns are a schema
// validation failure, not something to impute.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return ReadCSV(f)
}

// ReadCSV parses CSV observation data from r. See LoadCSV for the expected
// layout.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}

	dateIdx, priceIdx, demandIdx := -1, -1, -1
	contextIdx := make(map[string]int)
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case columnDate:
			dateIdx = i
		case columnPrice:
			priceIdx = i
		case columnDemand, columnOccupancy:
			demandIdx = i
		default:
			contextIdx[name] = i
		}
	}
	var missing []string
	if dateIdx < 0 {
		missing = append(missing, columnDate)
	}
	if priceIdx < 0 {
		missing = append(missing, columnPrice)
	}
	if demandIdx < 0 {
		missing = append(missing, columnDemand)
	}
	if len(missing) > 0 {
		return nil, &SchemaMismatchError{Missing: missing}
	}

	contextNames := make([]string, 0, len(contextIdx))
	for name := range contextIdx {
		contextNames = append(contextNames, name)
	}
	// Stable order for the context schema.
	sort.Strings(contextNames)

	ds := &Dataset{ContextNames: contextNames}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read dataset row %d: %w", line, err)
		}
		line++

		date, err := time.Parse(constants.DateTimeLayout, strings.TrimSpace(row[dateIdx]))
		if err != nil {
			return nil, &InvalidInputError{Field: columnDate, Reason: fmt.Sprintf("row %d: %v", line, err)}
		}
		price, err := parseFloat(row[priceIdx], columnPrice, line)
		if err != nil {
			return nil, err
		}
		demand, err := parseFloat(row[demandIdx], columnDemand, line)
		if err != nil {
			return nil, err
		}

		rec := ObservationRecord{
			Date:    date,
			Price:   price,
			Demand:  demand,
			Context: make(map[string]float64, len(contextIdx)),
		}
		for name, idx := range contextIdx {
			v, err := parseFloat(row[idx], name, line)
			if err != nil {
				return nil, err
			}
			rec.Context[name] = v
		}
		ds.Records = append(ds.Records, rec)
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func parseFloat(raw, field string, line int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &InvalidInputError{Field: field, Reason: fmt.Sprintf("row %d: not a number: %q", line, raw)}
	}
	return v, nil
}
