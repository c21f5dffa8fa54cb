package dialogue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/antoniostano/tripgenie/internal/places"
)

// FormatResults renders one page of places followed by the loop footer.
func FormatResults(label string, page []places.Place, endPhrase string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔎 *Nearby %s*\n", label)
	for i, p := range page {
		name := p.Name
		if strings.TrimSpace(name) == "" {
			name = "Unknown"
		}
		address := p.Address
		if strings.TrimSpace(address) == "" {
			address = "Address not available"
		}
		rating := "N/A"
		if p.Rating != nil {
			rating = strconv.FormatFloat(*p.Rating, 'f', -1, 64)
		}
		status := ""
		if p.OpenNow != nil {
			status = " | Closed"
			if *p.OpenNow {
				status = " | Open Now"
			}
		}

		b.WriteByte('\n')
		fmt.Fprintf(&b, "%d. *%s*\n", i+1, name)
		fmt.Fprintf(&b, "⭐ %s%s\n", rating, status)
		fmt.Fprintf(&b, "📍 %s\n", address)
		fmt.Fprintf(&b, "🔗 _[📍 View on Map](%s)_\n", p.MapLink())
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, resultsFooter, endPhrase)
	return b.String()
}
