package output

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/pricecast/pricecast/internal/recommend"
	"github.com/pricecast/pricecast/pkg/datetime"
)

func sampleRecommendations() []recommend.Recommendation {
	return []recommend.Recommendation{
		{
			Date:                        datetime.MustParseTime(datetime.DateTimeLayout, "2026-03-01"),
			CurrentPrice:                150.00,
			RecommendedPrice:            1175.50,
			ExpectedRevenueDeltaPercent: 12.3456,
			Confidence:                  recommend.High,
			Rationale:                   []recommend.ReasonCode{recommend.ReasonPriceIncrease, recommend.ReasonLowModelError},
		},
		{
			Date:                        datetime.MustParseTime(datetime.DateTimeLayout, "2026-03-02"),
			CurrentPrice:                150.00,
			RecommendedPrice:            140.00,
			ExpectedRevenueDeltaPercent: -3.2,
			Confidence:                  recommend.Low,
			Rationale:                   []recommend.ReasonCode{recommend.ReasonPriceDecrease, recommend.ReasonSparseDataNearPrice},
		},
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestPrettyFormat(t *testing.T) {
	output := captureStdout(t, func() {
		PrettyFormat(sampleRecommendations())
	})

	if !strings.Contains(output, "Date       | Current  | Recommended | Revenue Delta | Confidence | Rationale") {
		t.Errorf("PrettyFormat missing table header")
	}
	if !strings.Contains(output, "2026-03-01") {
		t.Errorf("PrettyFormat missing recommendation date")
	}
	if !strings.Contains(output, "$1,175.50") {
		t.Errorf("PrettyFormat missing localized recommended price")
	}
	if !strings.Contains(output, "+12.3%") {
		t.Errorf("PrettyFormat missing signed revenue delta")
	}
	if !strings.Contains(output, "High") {
		t.Errorf("PrettyFormat missing confidence level")
	}
	if !strings.Contains(output, "priceIncrease;lowModelError") {
		t.Errorf("PrettyFormat missing joined rationale codes")
	}
}

func TestCsvFormat(t *testing.T) {
	output := captureStdout(t, func() {
		CsvFormat(sampleRecommendations())
	})

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("CsvFormat produced %d lines, want 3", len(lines))
	}
	if lines[0] != `"date","currentPrice","recommendedPrice","expectedRevenueDeltaPercent","confidence","rationale"` {
		t.Errorf("CsvFormat header = %q", lines[0])
	}
	if !strings.Contains(lines[1], `"2026-03-01","150.00","1175.50","12.3456","High"`) {
		t.Errorf("CsvFormat first row = %q", lines[1])
	}
	if !strings.Contains(lines[2], `"-3.2000"`) {
		t.Errorf("CsvFormat second row missing negative delta, got %q", lines[2])
	}
	if !strings.Contains(lines[2], `"priceDecrease;sparseDataNearPrice"`) {
		t.Errorf("CsvFormat second row missing rationale, got %q", lines[2])
	}
}
