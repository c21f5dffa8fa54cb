package observability

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

type LatencyStats struct {
	Name        string  `json:"name"`
	Samples     int     `json:"samples"`
	LastMS      float64 `json:"last_ms"`
	AvgMS       float64 `json:"avg_ms"`
	P50MS       float64 `json:"p50_ms"`
	P95MS       float64 `json:"p95_ms"`
	P99MS       float64 `json:"p99_ms"`
	TargetP95MS float64 `json:"target_p95_ms,omitempty"`
}

type OutcomeCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LatencySnapshot is the /v1/perf/latency payload.
type LatencySnapshot struct {
	GeneratedAt time.Time      `json:"generated_at"`
	WindowSize  int            `json:"window_size"`
	Latencies   []LatencyStats `json:"latencies"`
	Outcomes    []OutcomeCount `json:"outcomes,omitempty"`
}

// latencyWindow keeps the most recent samples per name in a ring buffer.
type latencyWindow struct {
	mu         sync.RWMutex
	maxSamples int
	series     map[string]*ringBuffer
	outcomes   map[string]int
}

type ringBuffer struct {
	values []float64
	next   int
	filled bool
	last   float64
}

func newLatencyWindow(maxSamples int) *latencyWindow {
	if maxSamples <= 0 {
		maxSamples = 256
	}
	return &latencyWindow{
		maxSamples: maxSamples,
		series:     make(map[string]*ringBuffer),
		outcomes:   make(map[string]int),
	}
}

func (w *latencyWindow) Observe(name string, ms float64) {
	if w == nil || name == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	buf, ok := w.series[name]
	if !ok {
		buf = &ringBuffer{values: make([]float64, w.maxSamples)}
		w.series[name] = buf
	}
	buf.values[buf.next] = ms
	buf.last = ms
	buf.next++
	if buf.next >= len(buf.values) {
		buf.next = 0
		buf.filled = true
	}
}

func (w *latencyWindow) ObserveOutcome(name string) {
	if w == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.outcomes[name]++
}

func (w *latencyWindow) Snapshot() LatencySnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, 0, len(w.series))
	for name := range w.series {
		names = append(names, name)
	}
	sort.Strings(names)

	latencies := make([]LatencyStats, 0, len(names))
	for _, name := range names {
		buf := w.series[name]
		n := buf.next
		if buf.filled {
			n = len(buf.values)
		}
		if n <= 0 {
			continue
		}
		samples := make([]float64, n)
		copy(samples, buf.values[:n])
		sort.Float64s(samples)

		sum := 0.0
		for _, v := range samples {
			sum += v
		}
		latencies = append(latencies, LatencyStats{
			Name:        name,
			Samples:     n,
			LastMS:      round2(buf.last),
			AvgMS:       round2(sum / float64(n)),
			P50MS:       round2(quantile(samples, 0.50)),
			P95MS:       round2(quantile(samples, 0.95)),
			P99MS:       round2(quantile(samples, 0.99)),
			TargetP95MS: targetP95MS(name),
		})
	}

	outcomeNames := make([]string, 0, len(w.outcomes))
	for name, count := range w.outcomes {
		if count > 0 {
			outcomeNames = append(outcomeNames, name)
		}
	}
	sort.Strings(outcomeNames)
	outcomes := make([]OutcomeCount, 0, len(outcomeNames))
	for _, name := range outcomeNames {
		outcomes = append(outcomes, OutcomeCount{Name: name, Count: w.outcomes[name]})
	}

	return LatencySnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.maxSamples,
		Latencies:   latencies,
		Outcomes:    outcomes,
	}
}

func (w *latencyWindow) Reset() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.series = make(map[string]*ringBuffer)
	w.outcomes = make(map[string]int)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func targetP95MS(name string) float64 {
	switch name {
	case CollaboratorResolver:
		return 1500
	case CollaboratorGeocoder:
		return 800
	case CollaboratorPlaces:
		return 1500
	case CollaboratorItinerary:
		return 15000
	case "route_total":
		return 3000
	default:
		return 0
	}
}
