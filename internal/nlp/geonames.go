package nlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultGeoNamesBaseURL = "http://api.geonames.org"

var ErrMissingGeoNamesUser = errors.New("nlp: geonames username is required")

// GeoNamesExtractor looks each word up in GeoNames and accepts the first word
// whose top hit has the same accent-folded name.
type GeoNamesExtractor struct {
	baseURL  string
	username string
	client   *http.Client
	// Words shorter than this are not looked up.
	minLen int
}

func NewGeoNamesExtractor(baseURL, username string) (*GeoNamesExtractor, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrMissingGeoNamesUser
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultGeoNamesBaseURL
	}
	return &GeoNamesExtractor{
		baseURL:  baseURL,
		username: strings.TrimSpace(username),
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		minLen: 3,
	}, nil
}

type geoNamesResponse struct {
	TotalResultsCount int `json:"totalResultsCount"`
	GeoNames          []struct {
		Name string `json:"name"`
	} `json:"geonames"`
}

func (g *GeoNamesExtractor) Extract(ctx context.Context, text string) (string, error) {
	var lastErr error
	for _, tok := range tokens(text) {
		if len([]rune(tok)) < g.minLen {
			continue
		}
		name, err := g.lookup(ctx, tok)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			continue
		}
		if name != "" && Fold(name) == Fold(tok) {
			return name, nil
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", nil
}

func (g *GeoNamesExtractor) lookup(ctx context.Context, token string) (string, error) {
	params := url.Values{}
	params.Set("q", token)
	params.Set("maxRows", "1")
	params.Set("username", g.username)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/searchJSON?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	res, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("geonames request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", &HTTPStatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out geoNamesResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode geonames: %w", err)
	}
	if out.TotalResultsCount == 0 || len(out.GeoNames) == 0 {
		return "", nil
	}
	return out.GeoNames[0].Name, nil
}
