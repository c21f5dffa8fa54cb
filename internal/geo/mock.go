package geo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var mockGazetteer = map[string][2]float64{
	"paris":     {48.8566, 2.3522},
	"london":    {51.5072, -0.1276},
	"manali":    {32.2432, 77.1892},
	"pune":      {18.5204, 73.8567},
	"mumbai":    {19.076, 72.8777},
	"goa":       {15.2993, 74.124},
	"rome":      {41.9028, 12.4964},
	"new york":  {40.7128, -74.006},
	"tokyo":     {35.6762, 139.6503},
	"jaipur":    {26.9124, 75.7873},
	"bangalore": {12.9716, 77.5946},
}

// MockGeocoder resolves a small built-in gazetteer. Used without an API key.
type MockGeocoder struct{}

func NewMockGeocoder() *MockGeocoder { return &MockGeocoder{} }

func (MockGeocoder) Forward(_ context.Context, name string) (string, bool) {
	ll, ok := mockGazetteer[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	return FormatLatLng(ll[0], ll[1]), true
}

func (MockGeocoder) Reverse(_ context.Context, lat, lng float64) string {
	for name, ll := range mockGazetteer {
		if abs(ll[0]-lat) < 0.05 && abs(ll[1]-lng) < 0.05 {
			return cases.Title(language.English).String(name)
		}
	}
	return fmt.Sprintf("%.4f,%.4f", lat, lng)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// MockPlaceNames lists the gazetteer entries in title case.
func MockPlaceNames() []string {
	out := make([]string, 0, len(mockGazetteer))
	for name := range mockGazetteer {
		out = append(out, cases.Title(language.English).String(name))
	}
	sort.Strings(out)
	return out
}
