package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FallbackPlaceName is returned by Reverse when no address can be resolved.
const FallbackPlaceName = "your location"

var ErrInvalidLatLng = errors.New("invalid lat,lng")

// Geocoder resolves place names to coordinates and back. Implementations
// never return errors; failures map to ok=false or FallbackPlaceName.
type Geocoder interface {
	Forward(ctx context.Context, name string) (latlng string, ok bool)
	Reverse(ctx context.Context, lat, lng float64) string
}

// FormatLatLng renders the normalized "lat,lng" form stored on sessions.
func FormatLatLng(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}

// ParseLatLng parses the "lat,lng" form.
func ParseLatLng(s string) (lat, lng float64, err error) {
	latStr, lngStr, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidLatLng, s)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidLatLng, s)
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidLatLng, s)
	}
	if math.IsNaN(lat) || math.IsNaN(lng) || math.Abs(lat) > 90 || math.Abs(lng) > 180 {
		return 0, 0, fmt.Errorf("%w: %q out of range", ErrInvalidLatLng, s)
	}
	return lat, lng, nil
}
