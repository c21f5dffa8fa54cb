package nlp

import (
	"context"
	"log"
	"strings"
)

// UnknownIntent is reported when no category could be recognized.
const UnknownIntent = "unknown"

// Analysis is the resolver output. Location is empty when no candidate was
// found.
type Analysis struct {
	Intent   string `json:"intent"`
	Location string `json:"location,omitempty"`
}

// Resolver extracts an intent tag and an optional location candidate from
// free text. It never fails; failures degrade to UnknownIntent and no location.
type Resolver interface {
	Analyze(ctx context.Context, text string) Analysis
}

type IntentClassifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

type LocationExtractor interface {
	Extract(ctx context.Context, text string) (string, error)
}

// Pipeline runs a classifier and an optional location extractor.
type Pipeline struct {
	classifier IntentClassifier
	extractor  LocationExtractor
	onError    func(part string, err error)
}

func NewPipeline(classifier IntentClassifier, extractor LocationExtractor) *Pipeline {
	return &Pipeline{classifier: classifier, extractor: extractor}
}

// OnError registers a callback for classifier ("classifier") and extractor
// ("extractor") failures.
func (p *Pipeline) OnError(fn func(part string, err error)) {
	p.onError = fn
}

func (p *Pipeline) report(part string, err error) {
	log.Printf("nlp: %s failed: %v", part, err)
	if p.onError != nil {
		p.onError(part, err)
	}
}

func (p *Pipeline) Analyze(ctx context.Context, text string) Analysis {
	out := Analysis{Intent: UnknownIntent}
	if p.classifier != nil {
		intent, err := p.classifier.Classify(ctx, text)
		switch {
		case err != nil:
			p.report("classifier", err)
		case strings.TrimSpace(intent) != "":
			out.Intent = strings.ToLower(strings.TrimSpace(intent))
		}
	}
	if p.extractor != nil {
		loc, err := p.extractor.Extract(ctx, text)
		if err != nil {
			p.report("extractor", err)
		} else {
			out.Location = strings.TrimSpace(loc)
		}
	}
	return out
}
