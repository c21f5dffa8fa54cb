package app

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/antoniostano/tripgenie/internal/config"
	"github.com/antoniostano/tripgenie/internal/geo"
	"github.com/antoniostano/tripgenie/internal/itinerary"
	"github.com/antoniostano/tripgenie/internal/maps"
	"github.com/antoniostano/tripgenie/internal/nlp"
	"github.com/antoniostano/tripgenie/internal/observability"
	"github.com/antoniostano/tripgenie/internal/places"
)

// ProviderInfo names the backend chosen for each collaborator.
type ProviderInfo struct {
	Maps      string
	NLP       string
	Itinerary string
}

type collaborators struct {
	geocoder  geo.Geocoder
	places    places.Provider
	resolver  nlp.Resolver
	itinerary itinerary.Generator
	info      ProviderInfo
}

func resolveCollaborators(cfg config.Config, catalog *places.Catalog, metrics *observability.Metrics) (collaborators, error) {
	var out collaborators

	switch mode := resolveMode(cfg.MapsProvider, cfg.GoogleAPIKey != "", "google", "mock"); mode {
	case "google":
		client, err := maps.NewClient(cfg.MapsBaseURL, cfg.GoogleAPIKey)
		if err != nil {
			return collaborators{}, fmt.Errorf("maps client init failed: %w", err)
		}
		out.geocoder = geo.NewCachedGeocoder(geo.NewGoogleGeocoder(client), cfg.GeocodeCacheTTL)
		out.places = places.NewGoogleProvider(client)
		out.info.Maps = "google"
	default:
		out.geocoder = geo.NewCachedGeocoder(geo.NewMockGeocoder(), cfg.GeocodeCacheTTL)
		out.places = places.NewMockProvider(catalog)
		out.info.Maps = "mock"
	}

	gazetteer := nlp.NewGazetteerExtractor(geo.MockPlaceNames())
	var pipeline *nlp.Pipeline
	switch mode := resolveMode(cfg.NLPProvider, cfg.HFToken != "", "http", "keyword"); mode {
	case "http":
		var extractor nlp.LocationExtractor = gazetteer
		detail := "gazetteer"
		if cfg.GeoNamesUsername != "" {
			g, err := nlp.NewGeoNamesExtractor(cfg.GeoNamesBaseURL, cfg.GeoNamesUsername)
			if err != nil {
				return collaborators{}, fmt.Errorf("geonames init failed: %w", err)
			}
			extractor = g
			detail = "geonames"
		}
		pipeline = nlp.NewPipeline(nlp.NewHTTPClassifier(cfg.ClassifierURL, cfg.HFToken), extractor)
		out.info.NLP = "http+" + detail
	default:
		pipeline = nlp.NewPipeline(nlp.NewKeywordClassifier(catalog.Keywords()), gazetteer)
		out.info.NLP = "keyword+gazetteer"
	}
	pipeline.OnError(func(_ string, err error) {
		metrics.CollaboratorError(observability.CollaboratorResolver, err)
	})
	out.resolver = pipeline

	switch mode := resolveMode(cfg.ItineraryProvider, cfg.OpenRouterAPIKey != "", "openai", "mock"); mode {
	case "openai":
		g, err := itinerary.NewOpenAIGenerator(itinerary.Options{
			APIKey:    cfg.OpenRouterAPIKey,
			BaseURL:   cfg.ItineraryBaseURL,
			Model:     cfg.ItineraryModel,
			MaxTokens: cfg.ItineraryMaxTokens,
			Timeout:   cfg.ItineraryTimeout,
			Days:      cfg.ItineraryDays,
			// Latency is recorded by the router; only upstream errors are
			// counted here.
			Observe: func(_ time.Duration, err error) {
				metrics.CollaboratorError(observability.CollaboratorItinerary, err)
			},
		})
		if err != nil {
			return collaborators{}, fmt.Errorf("itinerary generator init failed: %w", err)
		}
		out.itinerary = g
		out.info.Itinerary = "openai:" + cfg.ItineraryModel
	default:
		out.itinerary = itinerary.NewMockGenerator(cfg.ItineraryDays)
		out.info.Itinerary = "mock"
	}

	log.Printf("providers: maps=%s nlp=%s itinerary=%s", out.info.Maps, out.info.NLP, out.info.Itinerary)
	return out, nil
}

// resolveMode maps "auto" to live when credentials exist, otherwise to the
// offline fallback.
func resolveMode(configured string, hasCredentials bool, live, offline string) string {
	mode := strings.ToLower(strings.TrimSpace(configured))
	if mode == "" || mode == "auto" {
		if hasCredentials {
			return live
		}
		return offline
	}
	return mode
}
