// Package output provides utilities for formatting and displaying
// recommendations. The core exposes only typed values; rendering lives here
// at the presentation edge.
package output

import (
	"fmt"
	"strings"

	"github.com/pricecast/pricecast/internal/recommend"
	"github.com/pricecast/pricecast/pkg/constants"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(recs []recommend.Recommendation) {
	p := message.NewPrinter(language.English)
	fmt.Printf("Date       | Current  | Recommended | Revenue Delta | Confidence | Rationale\n")
	fmt.Printf("____       | _______  | ___________ | _____________ | __________ | _________\n")
	for _, rec := range recs {
		_, _ = p.Printf("%s | $%.2f | $%.2f | %+.1f%% | %s | %s\n",
			rec.Date.Format(constants.DateTimeLayout),
			rec.CurrentPrice,
			rec.RecommendedPrice,
			rec.ExpectedRevenueDeltaPercent,
			rec.Confidence,
			joinReasons(rec.Rationale),
		)
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(recs []recommend.Recommendation) {
	fmt.Printf(`"date","currentPrice","recommendedPrice","expectedRevenueDeltaPercent","confidence","rationale"`)
	fmt.Printf("\n")
	for _, rec := range recs {
		fmt.Printf(`"%s","%.2f","%.2f","%.4f","%s","%s"`+"\n",
			rec.Date.Format(constants.DateTimeLayout),
			rec.CurrentPrice,
			rec.RecommendedPrice,
			rec.ExpectedRevenueDeltaPercent,
			rec.Confidence,
			joinReasons(rec.Rationale),
		)
	}
}

func joinReasons(codes []recommend.ReasonCode) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	return strings.Join(parts, ";")
}
