package itinerary

import (
	"context"
	"fmt"
	"strings"
)

// MockGenerator writes a canned plan. Used when no API key is configured.
type MockGenerator struct {
	days int
}

func NewMockGenerator(days int) *MockGenerator {
	if days <= 0 {
		days = DefaultDays
	}
	return &MockGenerator{days: days}
}

func (g *MockGenerator) Days() int { return g.days }

func (g *MockGenerator) Generate(_ context.Context, place string) string {
	var b strings.Builder
	for day := 1; day <= g.days; day++ {
		if day > 1 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Day %d: explore %s, then try a local favourite for dinner.", day, place)
	}
	return b.String()
}
