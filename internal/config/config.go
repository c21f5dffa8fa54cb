package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime settings for the TripGenie service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	AllowAnyOrigin   bool

	SessionTimeout  time.Duration
	JanitorInterval time.Duration
	EndPhrases      []string
	PageSize        int
	CategoriesFile  string

	MapsProvider    string
	GoogleAPIKey    string
	MapsBaseURL     string
	GeocodeCacheTTL time.Duration

	NLPProvider      string
	ClassifierURL    string
	HFToken          string
	GeoNamesUsername string
	GeoNamesBaseURL  string

	ItineraryProvider  string
	OpenRouterAPIKey   string
	ItineraryBaseURL   string
	ItineraryModel     string
	ItineraryMaxTokens int
	ItineraryTimeout   time.Duration
	ItineraryDays      int

	DatabaseURL string
}

func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":5000"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "tripgenie"),
		CategoriesFile:   stringsTrimSpace("CATEGORIES_FILE"),

		MapsProvider: strings.ToLower(envOrDefault("MAPS_PROVIDER", "auto")),
		GoogleAPIKey: stringsTrimSpace("GOOGLE_API_KEY"),
		MapsBaseURL:  envOrDefault("MAPS_BASE_URL", "https://maps.googleapis.com/maps/api"),

		NLPProvider:      strings.ToLower(envOrDefault("NLP_PROVIDER", "auto")),
		ClassifierURL:    stringsTrimSpace("NLP_CLASSIFIER_URL"),
		HFToken:          stringsTrimSpace("HF_TOKEN"),
		GeoNamesUsername: stringsTrimSpace("GEONAMES_USERNAME"),
		GeoNamesBaseURL:  envOrDefault("GEONAMES_BASE_URL", "http://api.geonames.org"),

		ItineraryProvider: strings.ToLower(envOrDefault("ITINERARY_PROVIDER", "auto")),
		OpenRouterAPIKey:  stringsTrimSpace("OPEN_ROUTER_API_KEY"),
		ItineraryBaseURL:  envOrDefault("ITINERARY_BASE_URL", "https://openrouter.ai/api/v1"),
		ItineraryModel:    envOrDefault("ITINERARY_MODEL", "mistralai/mistral-7b-instruct"),

		DatabaseURL: stringsTrimSpace("DATABASE_URL"),

		ShutdownTimeout:    15 * time.Second,
		SessionTimeout:     time.Hour,
		JanitorInterval:    30 * time.Second,
		PageSize:           5,
		GeocodeCacheTTL:    24 * time.Hour,
		ItineraryMaxTokens: 5000,
		ItineraryTimeout:   20 * time.Second,
		ItineraryDays:      5,
	}
	cfg.EndPhrases = listFromEnv("APP_END_PHRASES", []string{"end_session"})

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionTimeout, err = durationFromEnv("APP_SESSION_TIMEOUT", cfg.SessionTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.JanitorInterval, err = durationFromEnv("APP_JANITOR_INTERVAL", cfg.JanitorInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.GeocodeCacheTTL, err = durationFromEnv("GEOCODE_CACHE_TTL", cfg.GeocodeCacheTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.ItineraryTimeout, err = durationFromEnv("ITINERARY_TIMEOUT", cfg.ItineraryTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.PageSize, err = intFromEnv("APP_PAGE_SIZE", cfg.PageSize)
	if err != nil {
		return Config{}, err
	}
	cfg.ItineraryMaxTokens, err = intFromEnv("ITINERARY_MAX_TOKENS", cfg.ItineraryMaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.ItineraryDays, err = intFromEnv("ITINERARY_DAYS", cfg.ItineraryDays)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionTimeout < time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_TIMEOUT must be at least 1s")
	}
	if cfg.JanitorInterval <= 0 {
		return Config{}, fmt.Errorf("APP_JANITOR_INTERVAL must be positive")
	}
	if cfg.PageSize <= 0 {
		return Config{}, fmt.Errorf("APP_PAGE_SIZE must be positive")
	}
	if cfg.GeocodeCacheTTL < 0 {
		return Config{}, fmt.Errorf("GEOCODE_CACHE_TTL must be >= 0")
	}
	if cfg.ItineraryMaxTokens <= 0 {
		return Config{}, fmt.Errorf("ITINERARY_MAX_TOKENS must be positive")
	}
	if cfg.ItineraryTimeout <= 0 {
		return Config{}, fmt.Errorf("ITINERARY_TIMEOUT must be positive")
	}
	if cfg.ItineraryDays <= 0 || cfg.ItineraryDays > 30 {
		return Config{}, fmt.Errorf("ITINERARY_DAYS must be between 1 and 30")
	}
	if err := oneOf("MAPS_PROVIDER", cfg.MapsProvider, "auto", "google", "mock"); err != nil {
		return Config{}, err
	}
	if err := oneOf("NLP_PROVIDER", cfg.NLPProvider, "auto", "http", "keyword"); err != nil {
		return Config{}, err
	}
	if err := oneOf("ITINERARY_PROVIDER", cfg.ItineraryProvider, "auto", "openai", "mock"); err != nil {
		return Config{}, err
	}
	if cfg.MapsProvider == "google" && cfg.GoogleAPIKey == "" {
		return Config{}, fmt.Errorf("MAPS_PROVIDER=google requires GOOGLE_API_KEY")
	}
	if cfg.ItineraryProvider == "openai" && cfg.OpenRouterAPIKey == "" {
		return Config{}, fmt.Errorf("ITINERARY_PROVIDER=openai requires OPEN_ROUTER_API_KEY")
	}
	if len(cfg.EndPhrases) == 0 {
		return Config{}, fmt.Errorf("APP_END_PHRASES must list at least one phrase")
	}

	return cfg, nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", key, strings.Join(allowed, "|"), value)
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// listFromEnv splits a comma separated value, dropping empty entries.
func listFromEnv(key string, fallback []string) []string {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
