package nlp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

type stubClassifier struct {
	intent string
	err    error
}

func (s stubClassifier) Classify(context.Context, string) (string, error) { return s.intent, s.err }

type stubExtractor struct {
	location string
	err      error
}

func (s stubExtractor) Extract(context.Context, string) (string, error) { return s.location, s.err }

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Zürich":    "zurich",
		"São Paulo": "sao paulo",
		"MANALI":    "manali",
		"Kraków":    "krakow",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Fatalf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTokensStripPunctuation(t *testing.T) {
	got := tokens("  cafes, in Paris?! ")
	want := []string{"cafes", "in", "Paris"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("tokens() = %v, want %v", got, want)
	}
}

func TestPipelineDegradesOnFailure(t *testing.T) {
	p := NewPipeline(stubClassifier{err: errors.New("boom")}, stubExtractor{err: errors.New("boom")})
	got := p.Analyze(context.Background(), "cafes in paris")
	if got.Intent != UnknownIntent || got.Location != "" {
		t.Fatalf("Analyze() = %+v, want unknown intent and no location", got)
	}
}

func TestPipelineNormalizesIntent(t *testing.T) {
	p := NewPipeline(stubClassifier{intent: " Cafe "}, stubExtractor{location: " Paris "})
	got := p.Analyze(context.Background(), "coffee in paris")
	if got.Intent != "cafe" || got.Location != "Paris" {
		t.Fatalf("Analyze() = %+v, want cafe/Paris", got)
	}

	empty := NewPipeline(stubClassifier{intent: ""}, nil)
	if got := empty.Analyze(context.Background(), "x"); got.Intent != UnknownIntent {
		t.Fatalf("empty label intent = %q, want %q", got.Intent, UnknownIntent)
	}
}

func TestKeywordClassifier(t *testing.T) {
	k := NewKeywordClassifier(map[string][]string{
		"restaurant": {"food", "dinner"},
		"cafe":       {"coffee", "café"},
	})
	tests := map[string]string{
		"where can I get dinner":     "restaurant",
		"Best COFFEE nearby":         "cafe",
		"un café por favor":          "cafe",
		"restaurant recommendations": "restaurant",
		"hello there":                UnknownIntent,
	}
	for text, want := range tests {
		got, err := k.Classify(context.Background(), text)
		if err != nil {
			t.Fatalf("Classify(%q) error = %v", text, err)
		}
		if got != want {
			t.Fatalf("Classify(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestHTTPClassifierPicksTopLabel(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[[{"label":"restaurant","score":0.2},{"label":"cafe","score":0.7},{"label":"museum","score":0.1}]]`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, "hf_test")
	got, err := c.Classify(context.Background(), "coffee please")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got != "cafe" {
		t.Fatalf("Classify() = %q, want cafe", got)
	}
	if gotAuth != "Bearer hf_test" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotBody != `{"inputs":"coffee please"}` {
		t.Fatalf("request body = %s", gotBody)
	}
}

func TestHTTPClassifierFlatShapeAndErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/down") {
			http.Error(w, "loading", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"label":"museum","score":0.9},{"label":"cafe","score":0.1}]`))
	}))
	defer srv.Close()

	got, err := NewHTTPClassifier(srv.URL+"/ok", "").Classify(context.Background(), "art")
	if err != nil || got != "museum" {
		t.Fatalf("Classify() = %q, %v; want museum", got, err)
	}

	_, err = NewHTTPClassifier(srv.URL+"/down", "").Classify(context.Background(), "art")
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("Classify() error = %v, want HTTPStatusError 503", err)
	}
}

func TestGeoNamesExtractorMatchesFoldedName(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("username") != "demo" {
			t.Errorf("username = %q", r.URL.Query().Get("username"))
		}
		switch r.URL.Query().Get("q") {
		case "Zurich":
			_, _ = w.Write([]byte(`{"totalResultsCount":1,"geonames":[{"name":"Zürich"}]}`))
		case "cafes":
			_, _ = w.Write([]byte(`{"totalResultsCount":1,"geonames":[{"name":"Cafés Beach"}]}`))
		default:
			_, _ = w.Write([]byte(`{"totalResultsCount":0,"geonames":[]}`))
		}
	}))
	defer srv.Close()

	g, err := NewGeoNamesExtractor(srv.URL, "demo")
	if err != nil {
		t.Fatalf("NewGeoNamesExtractor() error = %v", err)
	}
	got, err := g.Extract(context.Background(), "cafes in Zurich")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "Zürich" {
		t.Fatalf("Extract() = %q, want Zürich", got)
	}
	// "in" is shorter than the lookup minimum.
	if calls.Load() != 2 {
		t.Fatalf("geonames calls = %d, want 2", calls.Load())
	}

	none, err := g.Extract(context.Background(), "something nice")
	if err != nil || none != "" {
		t.Fatalf("Extract() = %q, %v; want no location", none, err)
	}
}

func TestGeoNamesExtractorRequiresUser(t *testing.T) {
	if _, err := NewGeoNamesExtractor("", " "); !errors.Is(err, ErrMissingGeoNamesUser) {
		t.Fatalf("error = %v, want ErrMissingGeoNamesUser", err)
	}
}

func TestGazetteerExtractor(t *testing.T) {
	g := NewGazetteerExtractor([]string{"Paris", "New York", "Zürich"})
	tests := map[string]string{
		"cafes in paris":         "Paris",
		"museums near new york!": "New York",
		"tea in zurich":          "Zürich",
		"food nearby":            "",
	}
	for text, want := range tests {
		got, _ := g.Extract(context.Background(), text)
		if got != want {
			t.Fatalf("Extract(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestPipelineReportsErrors(t *testing.T) {
	p := NewPipeline(stubClassifier{err: errors.New("down")}, stubExtractor{location: "Rome"})
	var parts []string
	p.OnError(func(part string, _ error) { parts = append(parts, part) })

	got := p.Analyze(context.Background(), "rome")
	if got.Location != "Rome" || got.Intent != UnknownIntent {
		t.Fatalf("Analyze() = %+v", got)
	}
	if len(parts) != 1 || parts[0] != "classifier" {
		t.Fatalf("reported parts = %v, want [classifier]", parts)
	}
}
