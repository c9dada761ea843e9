package dataset

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestObservationRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  ObservationRecord
		wantErr bool
	}{
		{
			name:   "valid",
			record: ObservationRecord{Date: day("2025-01-01"), Price: 120, Demand: 42},
		},
		{
			name:    "zero price",
			record:  ObservationRecord{Date: day("2025-01-01"), Price: 0, Demand: 42},
			wantErr: true,
		},
		{
			name:    "negative demand",
			record:  ObservationRecord{Date: day("2025-01-01"), Price: 120, Demand: -1},
			wantErr: true,
		},
		{
			name:    "NaN demand",
			record:  ObservationRecord{Date: day("2025-01-01"), Price: 120, Demand: math.NaN()},
			wantErr: true,
		},
		{
			name:    "unset date",
			record:  ObservationRecord{Price: 120, Demand: 42},
			wantErr: true,
		},
		{
			name: "NaN context value",
			record: ObservationRecord{
				Date: day("2025-01-01"), Price: 120, Demand: 42,
				Context: map[string]float64{"weather": math.NaN()},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var invalid *InvalidInputError
				if !errors.As(err, &invalid) {
					t.Errorf("expected InvalidInputError, got %T", err)
				}
			}
		})
	}
}

func TestDatasetValidateDuplicateDate(t *testing.T) {
	ds := &Dataset{Records: []ObservationRecord{
		{Date: day("2025-01-01"), Price: 100, Demand: 10},
		{Date: day("2025-01-01"), Price: 110, Demand: 9},
	}}
	err := ds.Validate()
	if err == nil {
		t.Fatal("expected error for duplicate dates, got nil")
	}
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %T", err)
	}
}

func TestDatasetValidateOrdering(t *testing.T) {
	ds := &Dataset{Records: []ObservationRecord{
		{Date: day("2025-01-02"), Price: 100, Demand: 10},
		{Date: day("2025-01-01"), Price: 110, Demand: 9},
	}}
	if err := ds.Validate(); err == nil {
		t.Fatal("expected error for out-of-order dates, got nil")
	}
}

func TestDatasetValidateMissingContext(t *testing.T) {
	ds := &Dataset{
		ContextNames: []string{"weather"},
		Records: []ObservationRecord{
			{Date: day("2025-01-01"), Price: 100, Demand: 10, Context: map[string]float64{"weather": 1}},
			{Date: day("2025-01-02"), Price: 100, Demand: 10},
		},
	}
	err := ds.Validate()
	var mismatch *SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SchemaMismatchError, got %v", err)
	}
}

func TestFeatureVectorWithPrice(t *testing.T) {
	fv := FeatureVector{"price": 100, "dow": 3}
	got := fv.WithPrice(150)
	if got["price"] != 150 {
		t.Errorf("WithPrice price = %v, want 150", got["price"])
	}
	if fv["price"] != 100 {
		t.Error("WithPrice mutated the receiver")
	}
}

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"date,price,occupancy,weather,holiday",
		"2025-01-01,120.0,43,0.5,1",
		"2025-01-02,125.0,40,0.7,0",
	}, "\n")
	ds, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV returned error: %v", err)
	}
	if len(ds.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(ds.Records))
	}
	if ds.Records[0].Demand != 43 {
		t.Errorf("occupancy alias not mapped to demand: got %v", ds.Records[0].Demand)
	}
	if len(ds.ContextNames) != 2 || ds.ContextNames[0] != "holiday" || ds.ContextNames[1] != "weather" {
		t.Errorf("unexpected context names: %v", ds.ContextNames)
	}
	if ds.Records[1].Context["weather"] != 0.7 {
		t.Errorf("context value = %v, want 0.7", ds.Records[1].Context["weather"])
	}
}

func TestReadCSVMissingColumn(t *testing.T) {
	input := "date,price\n2025-01-01,120.0\n"
	_, err := ReadCSV(strings.NewReader(input))
	var mismatch *SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SchemaMismatchError, got %v", err)
	}
	if len(mismatch.Missing) != 1 || mismatch.Missing[0] != "demand" {
		t.Errorf("missing columns = %v, want [demand]", mismatch.Missing)
	}
}

func TestReadCSVBadNumber(t *testing.T) {
	input := "date,price,demand\n2025-01-01,abc,10\n"
	_, err := ReadCSV(strings.NewReader(input))
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
}
