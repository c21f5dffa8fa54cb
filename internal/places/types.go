package places

import (
	"context"
	"strconv"
)

type SearchMode string

const (
	SearchNearby SearchMode = "nearby"
	SearchText   SearchMode = "text"
)

// Query is one place-search request.
type Query struct {
	Intent       string     `json:"intent"`
	Lat          float64    `json:"lat"`
	Lng          float64    `json:"lng"`
	Text         string     `json:"text,omitempty"`
	Mode         SearchMode `json:"mode"`
	Radius       int        `json:"radius_m"`
	ProviderType string     `json:"provider_type,omitempty"`
}

// Place is a search candidate. Rating and OpenNow are nil when unknown.
type Place struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Lat     float64  `json:"lat"`
	Lng     float64  `json:"lng"`
	Rating  *float64 `json:"rating,omitempty"`
	OpenNow *bool    `json:"open_now,omitempty"`
}

func (p Place) MapLink() string {
	return "https://maps.google.com/?q=" +
		strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

// Provider runs place searches. Result order is the provider's and is kept.
type Provider interface {
	Search(ctx context.Context, q Query) ([]Place, error)
}
