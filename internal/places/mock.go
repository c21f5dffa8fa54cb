package places

import (
	"context"
	"fmt"
)

// MockProvider returns deterministic places around the query center. It
// backs MAPS_PROVIDER=mock and local chat sessions without an API key.
type MockProvider struct {
	catalog *Catalog
	count   int
}

func NewMockProvider(catalog *Catalog) *MockProvider {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &MockProvider{catalog: catalog, count: 8}
}

func (p *MockProvider) Search(ctx context.Context, q Query) ([]Place, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	label := p.catalog.Label(q.Intent)
	if q.Mode == SearchText {
		label = q.Text
	}
	out := make([]Place, 0, p.count)
	for i := 1; i <= p.count; i++ {
		rating := 3.5 + float64(i%4)*0.4
		open := i%3 != 0
		out = append(out, Place{
			Name:    fmt.Sprintf("%s #%d", label, i),
			Address: fmt.Sprintf("%d Sample Street", i*10),
			Lat:     q.Lat + float64(i)*0.001,
			Lng:     q.Lng + float64(i)*0.001,
			Rating:  &rating,
			OpenNow: &open,
		})
	}
	return out, nil
}
