package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/antoniostano/tripgenie/internal/config"
	"github.com/antoniostano/tripgenie/internal/observability"
	"github.com/antoniostano/tripgenie/internal/protocol"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig(name string) config.Config {
	return config.Config{
		MetricsNamespace:  "test_app_" + name + "_" + time.Now().Format("150405") + "_" + time.Now().Format("000000000"),
		SessionTimeout:    time.Hour,
		JanitorInterval:   time.Minute,
		PageSize:          3,
		EndPhrases:        []string{"bye"},
		MapsProvider:      "auto",
		NLPProvider:       "auto",
		ItineraryProvider: "auto",
		ItineraryDays:     4,
		ItineraryTimeout:  time.Second,
	}
}

func TestBuildOfflineDefaults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := Build(ctx, testConfig("offline"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer res.Cleanup()

	want := ProviderInfo{Maps: "mock", NLP: "keyword+gazetteer", Itinerary: "mock"}
	if res.Providers != want {
		t.Fatalf("Providers = %+v, want %+v", res.Providers, want)
	}

	reply := res.Router.Handle(ctx, protocol.InboundEvent{Sender: "u1", Message: "start"})
	if !strings.Contains(reply, "4-day itinerary") {
		t.Fatalf("start reply = %q", reply)
	}
	reply = res.Router.Handle(ctx, protocol.InboundEvent{Sender: "u1", Message: "bye"})
	if !strings.Contains(reply, "session has ended") {
		t.Fatalf("end reply = %q", reply)
	}
	if res.Sessions.Exists("u1") {
		t.Fatalf("session survived configured end phrase")
	}
}

func TestBuildLiveProvidersWithCredentials(t *testing.T) {
	cfg := testConfig("live")
	cfg.GoogleAPIKey = "maps-key"
	cfg.HFToken = "hf-token"
	cfg.GeoNamesUsername = "demo"
	cfg.OpenRouterAPIKey = "or-key"
	cfg.ItineraryModel = "mistralai/mistral-7b-instruct"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res, err := Build(ctx, cfg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer res.Cleanup()

	want := ProviderInfo{Maps: "google", NLP: "http+geonames", Itinerary: "openai:mistralai/mistral-7b-instruct"}
	if res.Providers != want {
		t.Fatalf("Providers = %+v, want %+v", res.Providers, want)
	}
}

func TestBuildCountsResolverFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig("resolver")
	cfg.NLPProvider = "http"
	cfg.ClassifierURL = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res, err := Build(ctx, cfg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer res.Cleanup()

	lat, lng := 48.8566, 2.3522
	res.Router.Handle(ctx, protocol.InboundEvent{Sender: "u1", Message: "start"})
	res.Router.Handle(ctx, protocol.InboundEvent{Sender: "u1", Message: "1"})
	res.Router.Handle(ctx, protocol.InboundEvent{Sender: "u1", Latitude: &lat, Longitude: &lng})
	res.Router.Handle(ctx, protocol.InboundEvent{Sender: "u1", Message: "cafes"})

	got := testutil.ToFloat64(res.Metrics.CollaboratorErrors.WithLabelValues(observability.CollaboratorResolver, "http_5xx"))
	if got < 1 {
		t.Fatalf("resolver http_5xx errors = %v, want at least 1", got)
	}
}

func TestBuildLoadsCategoriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	yaml := "text_search_intent: restaurant\ncategories:\n  - intent: beach\n    label: beaches\n    provider_type: natural_feature\n    keywords: [beach, beaches]\n  - intent: restaurant\n    label: restaurants\n    provider_type: restaurant\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write categories: %v", err)
	}
	cfg := testConfig("categories")
	cfg.CategoriesFile = path

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res, err := Build(ctx, cfg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer res.Cleanup()

	for _, msg := range []string{"start", "1"} {
		res.Router.Handle(ctx, protocol.InboundEvent{Sender: "u1", Message: msg})
	}
	lat, lng := 15.29, 74.12
	res.Router.Handle(ctx, protocol.InboundEvent{Sender: "u1", Latitude: &lat, Longitude: &lng})
	reply := res.Router.Handle(ctx, protocol.InboundEvent{Sender: "u1", Message: "beaches"})
	if !strings.Contains(reply, "beaches #1") || strings.Contains(reply, "beaches #4") {
		t.Fatalf("beach reply = %q", reply)
	}
}

func TestBuildRejectsMissingCategoriesFile(t *testing.T) {
	cfg := testConfig("missing_categories")
	cfg.CategoriesFile = filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatalf("Build() error = nil, want load failure")
	}
}

func TestResolveMode(t *testing.T) {
	cases := []struct {
		configured string
		creds      bool
		want       string
	}{
		{"auto", true, "live"},
		{"auto", false, "offline"},
		{"", true, "live"},
		{" MOCK ", true, "mock"},
		{"live", false, "live"},
	}
	for _, tc := range cases {
		if got := resolveMode(tc.configured, tc.creds, "live", "offline"); got != tc.want {
			t.Fatalf("resolveMode(%q, %v) = %q, want %q", tc.configured, tc.creds, got, tc.want)
		}
	}
}
