package datetime

import (
	"testing"
)

func TestOffsetDate(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		days     int
		expected string
	}{
		{"forward one day", "2025-01-31", 1, "2025-02-01"},
		{"forward one week", "2025-06-01", 7, "2025-06-08"},
		{"backward", "2025-03-01", -1, "2025-02-28"},
		{"leap February", "2024-02-28", 1, "2024-02-29"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OffsetDate(tt.date, DateTimeLayout, tt.days)
			if err != nil {
				t.Fatalf("OffsetDate returned error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("OffsetDate(%s, %d) = %s, want %s", tt.date, tt.days, got, tt.expected)
			}
		})
	}
}

func TestOffsetDateInvalid(t *testing.T) {
	if _, err := OffsetDate("not-a-date", DateTimeLayout, 1); err == nil {
		t.Error("expected error for invalid date, got nil")
	}
}

func TestDayOfWeek(t *testing.T) {
	// 2025-06-01 is a Sunday.
	sunday := MustParseTime(DateTimeLayout, "2025-06-01")
	if got := DayOfWeek(sunday); got != 0 {
		t.Errorf("DayOfWeek(Sunday) = %v, want 0", got)
	}
	saturday := sunday.AddDate(0, 0, 6)
	if got := DayOfWeek(saturday); got != 6 {
		t.Errorf("DayOfWeek(Saturday) = %v, want 6", got)
	}
}

func TestDateBeforeDate(t *testing.T) {
	a := MustParseTime(DateTimeLayout, "2025-01-01")
	b := MustParseTime(DateTimeLayout, "2025-01-02")
	if !DateBeforeDate(a, b) {
		t.Error("expected 2025-01-01 before 2025-01-02")
	}
	if DateBeforeDate(b, a) {
		t.Error("did not expect 2025-01-02 before 2025-01-01")
	}
	if DateBeforeDate(a, a) {
		t.Error("a date is not strictly before itself")
	}
}
