package results

import (
	"github.com/antoniostano/tripgenie/internal/places"
	"github.com/antoniostano/tripgenie/internal/session"
)

// DefaultPageSize is the number of places shown per reply.
const DefaultPageSize = 5

// Tracker pages provider results against a session's shown-names ledger.
type Tracker struct {
	pageSize int
}

func NewTracker(pageSize int) *Tracker {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Tracker{pageSize: pageSize}
}

func (t *Tracker) PageSize() int { return t.pageSize }

// Select returns the first page of candidates not yet shown. When every
// candidate was already shown, the head of the raw list is re-shown so the
// page is never empty for a non-empty input. Candidate order is kept.
func (t *Tracker) Select(candidates []places.Place, shown []string) []places.Place {
	seen := make(map[string]struct{}, len(shown))
	for _, name := range shown {
		seen[name] = struct{}{}
	}
	unseen := make([]places.Place, 0, t.pageSize)
	for _, p := range candidates {
		if _, ok := seen[p.Name]; ok {
			continue
		}
		unseen = append(unseen, p)
		if len(unseen) == t.pageSize {
			break
		}
	}
	if len(unseen) > 0 {
		return unseen
	}
	n := min(t.pageSize, len(candidates))
	return append([]places.Place(nil), candidates[:n]...)
}

// Record appends the page to the ledger and stores the search that produced
// it. Names are appended even when already present.
func (t *Tracker) Record(s *session.Session, page []places.Place, intent, query, location string) {
	for _, p := range page {
		s.ShownNames = append(s.ShownNames, p.Name)
	}
	s.LastIntent = intent
	s.LastQuery = query
	s.Location = location
	s.HasResults = true
}
