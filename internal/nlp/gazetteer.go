package nlp

import (
	"context"
	"strings"
)

// GazetteerExtractor matches one- and two-word phrases against a fixed list
// of place names. It backs the offline resolver.
type GazetteerExtractor struct {
	names map[string]string
}

func NewGazetteerExtractor(names []string) *GazetteerExtractor {
	m := make(map[string]string, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			m[Fold(n)] = n
		}
	}
	return &GazetteerExtractor{names: m}
}

func (g *GazetteerExtractor) Extract(_ context.Context, text string) (string, error) {
	toks := tokens(text)
	for i := range toks {
		if i+1 < len(toks) {
			if name, ok := g.names[Fold(toks[i]+" "+toks[i+1])]; ok {
				return name, nil
			}
		}
		if name, ok := g.names[Fold(toks[i])]; ok {
			return name, nil
		}
	}
	return "", nil
}
