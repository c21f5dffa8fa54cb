package places

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed categories_default.yaml
var defaultCatalogYAML []byte

// Category maps an intent tag to its display label and provider place type.
type Category struct {
	Intent       string   `yaml:"intent"`
	Label        string   `yaml:"label"`
	ProviderType string   `yaml:"provider_type"`
	Keywords     []string `yaml:"keywords"`
}

// Catalog is the deployment's category set plus the search policy knobs.
type Catalog struct {
	TextSearchIntent    string     `yaml:"text_search_intent"`
	NearbyRadiusM       int        `yaml:"nearby_radius_m"`
	TextRadiusM         int        `yaml:"text_radius_m"`
	DefaultProviderType string     `yaml:"default_provider_type"`
	Categories          []Category `yaml:"categories"`

	byIntent map[string]Category
}

// DefaultCatalog returns the embedded category set.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog from path, or returns the embedded default when
// path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog and normalizes intents to lower case.
// Missing labels and provider types default to the intent.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Categories) == 0 {
		return nil, fmt.Errorf("catalog has no categories")
	}
	if c.NearbyRadiusM <= 0 {
		c.NearbyRadiusM = 5000
	}
	if c.TextRadiusM <= 0 {
		c.TextRadiusM = 2000
	}
	c.byIntent = make(map[string]Category, len(c.Categories))
	for i, cat := range c.Categories {
		cat.Intent = strings.ToLower(strings.TrimSpace(cat.Intent))
		if cat.Intent == "" {
			return nil, fmt.Errorf("catalog category %d has no intent", i)
		}
		if _, dup := c.byIntent[cat.Intent]; dup {
			return nil, fmt.Errorf("catalog intent %q is listed twice", cat.Intent)
		}
		if cat.Label == "" {
			cat.Label = cat.Intent
		}
		if cat.ProviderType == "" {
			cat.ProviderType = cat.Intent
		}
		c.Categories[i] = cat
		c.byIntent[cat.Intent] = cat
	}
	if c.DefaultProviderType == "" {
		c.DefaultProviderType = c.Categories[0].ProviderType
	}
	return &c, nil
}

// Lookup finds the category for intent, ignoring case and surrounding space.
func (c *Catalog) Lookup(intent string) (Category, bool) {
	cat, ok := c.byIntent[strings.ToLower(strings.TrimSpace(intent))]
	return cat, ok
}

// Recognized reports whether intent is a searchable category.
func (c *Catalog) Recognized(intent string) bool {
	_, ok := c.Lookup(intent)
	return ok
}

// Label is the plural display name used in replies.
func (c *Catalog) Label(intent string) string {
	if cat, ok := c.Lookup(intent); ok {
		return cat.Label
	}
	return intent
}

func (c *Catalog) ProviderType(intent string) string {
	if cat, ok := c.Lookup(intent); ok {
		return cat.ProviderType
	}
	return c.DefaultProviderType
}

// Keywords returns intent -> keyword list for offline classification.
func (c *Catalog) Keywords() map[string][]string {
	out := make(map[string][]string, len(c.Categories))
	for _, cat := range c.Categories {
		out[cat.Intent] = append([]string(nil), cat.Keywords...)
	}
	return out
}

// Plan picks the search mode for an intent. The text-search intent with a
// non-empty query uses free-text search; every other case is a nearby search
// by provider type.
func (c *Catalog) Plan(intent, text string, lat, lng float64) Query {
	text = strings.TrimSpace(text)
	if c.TextSearchIntent != "" && strings.EqualFold(intent, c.TextSearchIntent) && text != "" {
		return Query{
			Intent: intent,
			Lat:    lat,
			Lng:    lng,
			Text:   text,
			Mode:   SearchText,
			Radius: c.TextRadiusM,
		}
	}
	return Query{
		Intent:       intent,
		Lat:          lat,
		Lng:          lng,
		Mode:         SearchNearby,
		Radius:       c.NearbyRadiusM,
		ProviderType: c.ProviderType(intent),
	}
}
