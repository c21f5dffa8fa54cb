package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/antoniostano/tripgenie/internal/maps"
)

func TestGoogleProviderMapsResults(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"name":"Cafe A","vicinity":"Near","geometry":{"location":{"lat":1.5,"lng":2.5}},"opening_hours":{"open_now":false}},
			{"name":"Cafe B","formatted_address":"Far","rating":4.1,"geometry":{"location":{"lat":1.6,"lng":2.6}}}
		]}`))
	}))
	defer ts.Close()

	client, err := maps.NewClient(ts.URL, "k")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	p := NewGoogleProvider(client)

	got, err := p.Search(context.Background(), DefaultCatalog().Plan("cafe", "", 1, 2))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotPath != "/place/nearbysearch/json" {
		t.Fatalf("path = %q, want nearby search", gotPath)
	}
	if len(got) != 2 || got[0].Name != "Cafe A" || got[1].Name != "Cafe B" {
		t.Fatalf("results = %+v", got)
	}
	if got[0].Address != "Near" || got[1].Address != "Far" {
		t.Fatalf("addresses = %q, %q", got[0].Address, got[1].Address)
	}
	if got[0].OpenNow == nil || *got[0].OpenNow {
		t.Fatalf("OpenNow = %v, want false", got[0].OpenNow)
	}
	if got[1].Rating == nil || *got[1].Rating != 4.1 {
		t.Fatalf("Rating = %v, want 4.1", got[1].Rating)
	}

	if _, err := p.Search(context.Background(), DefaultCatalog().Plan("restaurant", "tacos", 1, 2)); err != nil {
		t.Fatalf("Search(text) error = %v", err)
	}
	if gotPath != "/place/textsearch/json" {
		t.Fatalf("path = %q, want text search", gotPath)
	}
}

func TestMockProviderIsDeterministic(t *testing.T) {
	p := NewMockProvider(nil)
	a, err := p.Search(context.Background(), Query{Intent: "cafe", Lat: 1, Lng: 1})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	b, _ := p.Search(context.Background(), Query{Intent: "cafe", Lat: 1, Lng: 1})
	if len(a) != 8 || a[0].Name != b[0].Name || a[0].Name != "cafes #1" {
		t.Fatalf("mock results not deterministic: %v / %v", a[0].Name, b[0].Name)
	}
}
