package geo

import (
	"context"
	"log"
	"strings"

	"github.com/antoniostano/tripgenie/internal/maps"
)

// GoogleGeocoder resolves names with Places text search and coordinates with
// the reverse geocoding endpoint.
type GoogleGeocoder struct {
	client *maps.Client
}

func NewGoogleGeocoder(client *maps.Client) *GoogleGeocoder {
	return &GoogleGeocoder{client: client}
}

func (g *GoogleGeocoder) Forward(ctx context.Context, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	results, err := g.client.TextSearch(ctx, maps.TextSearchRequest{Query: name})
	if err != nil {
		log.Printf("geo: forward lookup failed: %v", err)
		return "", false
	}
	if len(results) == 0 {
		return "", false
	}
	loc := results[0].Geometry.Location
	return FormatLatLng(loc.Lat, loc.Lng), true
}

func (g *GoogleGeocoder) Reverse(ctx context.Context, lat, lng float64) string {
	results, err := g.client.ReverseGeocode(ctx, maps.LatLng{Lat: lat, Lng: lng})
	if err != nil {
		log.Printf("geo: reverse lookup failed: %v", err)
		return FallbackPlaceName
	}
	for _, r := range results {
		if addr := strings.TrimSpace(r.FormattedAddress); addr != "" {
			return addr
		}
	}
	return FallbackPlaceName
}
