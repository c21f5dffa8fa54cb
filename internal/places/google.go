package places

import (
	"context"

	"github.com/antoniostano/tripgenie/internal/maps"
)

// GoogleProvider searches through the Google Places web service.
type GoogleProvider struct {
	client *maps.Client
}

func NewGoogleProvider(client *maps.Client) *GoogleProvider {
	return &GoogleProvider{client: client}
}

func (p *GoogleProvider) Search(ctx context.Context, q Query) ([]Place, error) {
	center := maps.LatLng{Lat: q.Lat, Lng: q.Lng}

	var (
		results []maps.PlaceResult
		err     error
	)
	switch q.Mode {
	case SearchText:
		results, err = p.client.TextSearch(ctx, maps.TextSearchRequest{
			Query:    q.Text,
			Location: &center,
			Radius:   q.Radius,
		})
	default:
		results, err = p.client.NearbySearch(ctx, maps.NearbyRequest{
			Location: center,
			Radius:   q.Radius,
			Type:     q.ProviderType,
		})
	}
	if err != nil {
		return nil, err
	}

	out := make([]Place, 0, len(results))
	for _, r := range results {
		pl := Place{
			Name:    r.Name,
			Address: r.Vicinity,
			Lat:     r.Geometry.Location.Lat,
			Lng:     r.Geometry.Location.Lng,
			Rating:  r.Rating,
		}
		if pl.Address == "" {
			pl.Address = r.FormattedAddress
		}
		if r.OpeningHours != nil {
			pl.OpenNow = r.OpeningHours.OpenNow
		}
		out = append(out, pl)
	}
	return out, nil
}
