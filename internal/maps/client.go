package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://maps.googleapis.com/maps/api"

var ErrMissingAPIKey = errors.New("maps: api key is required")

// StatusError reports a non-2xx HTTP status or a non-OK API status.
type StatusError struct {
	HTTPStatus int
	APIStatus  string
	Message    string
}

func (e *StatusError) Error() string {
	if e.APIStatus != "" {
		return fmt.Sprintf("maps api status %s (http %d): %s", e.APIStatus, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("maps http status %d: %s", e.HTTPStatus, e.Message)
}

func (e *StatusError) HTTPStatusCode() int { return e.HTTPStatus }

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l LatLng) String() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lng, 'f', -1, 64)
}

type Geometry struct {
	Location LatLng `json:"location"`
}

type OpeningHours struct {
	OpenNow *bool `json:"open_now"`
}

// PlaceResult is one entry of a nearby or text search response.
type PlaceResult struct {
	Name             string        `json:"name"`
	Vicinity         string        `json:"vicinity"`
	FormattedAddress string        `json:"formatted_address"`
	Geometry         Geometry      `json:"geometry"`
	Rating           *float64      `json:"rating"`
	OpeningHours     *OpeningHours `json:"opening_hours"`
}

type GeocodeResult struct {
	FormattedAddress string   `json:"formatted_address"`
	Geometry         Geometry `json:"geometry"`
}

type NearbyRequest struct {
	Location LatLng
	Radius   int
	Type     string
}

type TextSearchRequest struct {
	Query    string
	Location *LatLng
	Radius   int
}

// Client talks to the Google Maps web-service JSON endpoints.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

func (c *Client) NearbySearch(ctx context.Context, req NearbyRequest) ([]PlaceResult, error) {
	params := url.Values{}
	params.Set("location", req.Location.String())
	params.Set("radius", strconv.Itoa(req.Radius))
	if req.Type != "" {
		params.Set("type", req.Type)
	}
	var out placesResponse
	if err := c.get(ctx, "/place/nearbysearch/json", params, &out); err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}
	return out.Results, nil
}

func (c *Client) TextSearch(ctx context.Context, req TextSearchRequest) ([]PlaceResult, error) {
	params := url.Values{}
	params.Set("query", req.Query)
	if req.Location != nil {
		params.Set("location", req.Location.String())
	}
	if req.Radius > 0 {
		params.Set("radius", strconv.Itoa(req.Radius))
	}
	var out placesResponse
	if err := c.get(ctx, "/place/textsearch/json", params, &out); err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	return out.Results, nil
}

func (c *Client) ReverseGeocode(ctx context.Context, at LatLng) ([]GeocodeResult, error) {
	params := url.Values{}
	params.Set("latlng", at.String())
	var out geocodeResponse
	if err := c.get(ctx, "/geocode/json", params, &out); err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	return out.Results, nil
}

type apiStatus struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

type placesResponse struct {
	apiStatus
	Results []PlaceResult `json:"results"`
}

type geocodeResponse struct {
	apiStatus
	Results []GeocodeResult `json:"results"`
}

type statusCarrier interface {
	status() apiStatus
}

func (r *placesResponse) status() apiStatus  { return r.apiStatus }
func (r *geocodeResponse) status() apiStatus { return r.apiStatus }

func (c *Client) get(ctx context.Context, path string, params url.Values, out statusCarrier) error {
	params.Set("key", c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	res, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &StatusError{HTTPStatus: res.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	st := out.status()
	switch st.Status {
	case "", "OK", "ZERO_RESULTS":
		return nil
	default:
		return &StatusError{HTTPStatus: res.StatusCode, APIStatus: st.Status, Message: st.ErrorMessage}
	}
}
