package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/antoniostano/tripgenie/internal/maps"
)

func TestParseLatLng(t *testing.T) {
	lat, lng, err := ParseLatLng(" 48.8, 2.3 ")
	if err != nil {
		t.Fatalf("ParseLatLng() error = %v", err)
	}
	if lat != 48.8 || lng != 2.3 {
		t.Fatalf("ParseLatLng() = %v,%v want 48.8,2.3", lat, lng)
	}
	for _, bad := range []string{"", "Paris", "1;2", "a,b", "91,0", "0,181"} {
		if _, _, err := ParseLatLng(bad); !errors.Is(err, ErrInvalidLatLng) {
			t.Fatalf("ParseLatLng(%q) error = %v, want ErrInvalidLatLng", bad, err)
		}
	}
}

func TestFormatLatLngRoundTrip(t *testing.T) {
	s := FormatLatLng(37, -122.25)
	if s != "37,-122.25" {
		t.Fatalf("FormatLatLng() = %q", s)
	}
	lat, lng, err := ParseLatLng(s)
	if err != nil || lat != 37 || lng != -122.25 {
		t.Fatalf("ParseLatLng(%q) = %v,%v,%v", s, lat, lng, err)
	}
}

func TestGoogleGeocoder(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/place/textsearch/json":
			if r.URL.Query().Get("query") == "Nowhere" {
				_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
				return
			}
			_, _ = w.Write([]byte(`{"status":"OK","results":[{"name":"Paris","geometry":{"location":{"lat":48.8,"lng":2.3}}}]}`))
		case "/geocode/json":
			if r.URL.Query().Get("latlng") == "0,0" {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Manali, Himachal Pradesh, India"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	client, err := maps.NewClient(ts.URL, "k")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	g := NewGoogleGeocoder(client)
	ctx := context.Background()

	if got, ok := g.Forward(ctx, "Paris"); !ok || got != "48.8,2.3" {
		t.Fatalf("Forward(Paris) = %q,%v", got, ok)
	}
	if _, ok := g.Forward(ctx, "Nowhere"); ok {
		t.Fatalf("Forward(Nowhere) ok = true")
	}
	if _, ok := g.Forward(ctx, "  "); ok {
		t.Fatalf("Forward(blank) ok = true")
	}
	if got := g.Reverse(ctx, 32.2, 77.1); got != "Manali, Himachal Pradesh, India" {
		t.Fatalf("Reverse() = %q", got)
	}
	if got := g.Reverse(ctx, 0, 0); got != FallbackPlaceName {
		t.Fatalf("Reverse() on failure = %q, want fallback", got)
	}
}

type countingGeocoder struct {
	forward atomic.Int32
	reverse atomic.Int32
	delay   time.Duration
}

func (c *countingGeocoder) Forward(_ context.Context, name string) (string, bool) {
	c.forward.Add(1)
	time.Sleep(c.delay)
	if name == "nowhere" {
		return "", false
	}
	return "1,2", true
}

func (c *countingGeocoder) Reverse(_ context.Context, lat, _ float64) string {
	c.reverse.Add(1)
	if lat == 0 {
		return FallbackPlaceName
	}
	return "Somewhere"
}

func TestCachedGeocoderMemoizesSuccesses(t *testing.T) {
	next := &countingGeocoder{}
	g := NewCachedGeocoder(next, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if got, ok := g.Forward(ctx, "Paris"); !ok || got != "1,2" {
			t.Fatalf("Forward() = %q,%v", got, ok)
		}
	}
	g.Forward(ctx, "PARIS ")
	if n := next.forward.Load(); n != 1 {
		t.Fatalf("upstream forward calls = %d, want 1", n)
	}

	g.Forward(ctx, "nowhere")
	g.Forward(ctx, "nowhere")
	if n := next.forward.Load(); n != 3 {
		t.Fatalf("upstream forward calls = %d, want 3 (misses are not cached)", n)
	}

	g.Reverse(ctx, 10, 10)
	g.Reverse(ctx, 10, 10)
	g.Reverse(ctx, 0, 0)
	g.Reverse(ctx, 0, 0)
	if n := next.reverse.Load(); n != 3 {
		t.Fatalf("upstream reverse calls = %d, want 3", n)
	}

	g.Flush()
	g.Forward(ctx, "Paris")
	if n := next.forward.Load(); n != 4 {
		t.Fatalf("upstream forward calls after flush = %d, want 4", n)
	}
}

func TestCachedGeocoderCollapsesConcurrentLookups(t *testing.T) {
	next := &countingGeocoder{delay: 50 * time.Millisecond}
	g := NewCachedGeocoder(next, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := g.Forward(context.Background(), "Rome"); !ok {
				t.Errorf("Forward() ok = false")
			}
		}()
	}
	wg.Wait()
	if n := next.forward.Load(); n > 2 {
		t.Fatalf("upstream forward calls = %d, want concurrent lookups collapsed", n)
	}
}

type blockingGeocoder struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingGeocoder) Forward(ctx context.Context, _ string) (string, bool) {
	if b.calls.Add(1) == 1 {
		close(b.started)
	}
	select {
	case <-b.release:
		return "1,2", true
	case <-ctx.Done():
		return "", false
	}
}

func (b *blockingGeocoder) Reverse(context.Context, float64, float64) string {
	return FallbackPlaceName
}

func TestCachedGeocoderIsolatesCallerCancellation(t *testing.T) {
	next := &blockingGeocoder{started: make(chan struct{}), release: make(chan struct{})}
	g := NewCachedGeocoder(next, time.Minute)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	resA := make(chan bool, 1)
	go func() {
		_, ok := g.Forward(ctxA, "Paris")
		resA <- ok
	}()
	<-next.started

	type result struct {
		latlng string
		ok     bool
	}
	resB := make(chan result, 1)
	go func() {
		latlng, ok := g.Forward(context.Background(), "Paris")
		resB <- result{latlng, ok}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case ok := <-resA:
		if ok {
			t.Fatalf("canceled Forward() ok = true")
		}
	case <-time.After(time.Second):
		t.Fatalf("canceled Forward() did not return")
	}

	close(next.release)
	select {
	case got := <-resB:
		if !got.ok || got.latlng != "1,2" {
			t.Fatalf("Forward() = %q,%v after other caller canceled", got.latlng, got.ok)
		}
	case <-time.After(time.Second):
		t.Fatalf("Forward() did not return")
	}
	if n := next.calls.Load(); n != 1 {
		t.Fatalf("upstream forward calls = %d, want 1", n)
	}
}

func TestMockGeocoder(t *testing.T) {
	g := NewMockGeocoder()
	if got, ok := g.Forward(context.Background(), "Paris"); !ok || got != "48.8566,2.3522" {
		t.Fatalf("Forward(Paris) = %q,%v", got, ok)
	}
	if _, ok := g.Forward(context.Background(), "Atlantis"); ok {
		t.Fatalf("Forward(Atlantis) ok = true")
	}
	if got := g.Reverse(context.Background(), 32.2432, 77.1892); got != "Manali" {
		t.Fatalf("Reverse() = %q, want Manali", got)
	}
}
