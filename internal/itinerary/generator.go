package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL   = "https://openrouter.ai/api/v1"
	DefaultModel     = "mistralai/mistral-7b-instruct"
	DefaultMaxTokens = 5000
	DefaultTimeout   = 20 * time.Second
	DefaultDays      = 5

	// FallbackText replaces the itinerary whenever generation fails.
	FallbackText = "Sorry, we couldn't generate an itinerary at this moment. Please try again later."

	systemPrompt = "You are a travel planner assistant."
)

var ErrMissingAPIKey = errors.New("itinerary: api key is required")

// Generator produces a free-text itinerary for a place. It never fails:
// errors are replaced by FallbackText.
type Generator interface {
	Generate(ctx context.Context, place string) string
}

type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Days      int
	// Observe, when set, receives the latency and error of every upstream call.
	Observe func(d time.Duration, err error)
}

// OpenAIGenerator calls an OpenAI-compatible chat completions API, OpenRouter
// by default.
type OpenAIGenerator struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
	days      int
	observe   func(time.Duration, error)
}

func NewOpenAIGenerator(opts Options) (*OpenAIGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	cfg := openai.DefaultConfig(strings.TrimSpace(opts.APIKey))
	cfg.BaseURL = strings.TrimRight(firstNonEmpty(opts.BaseURL, DefaultBaseURL), "/")

	g := &OpenAIGenerator{
		client:    openai.NewClientWithConfig(cfg),
		model:     firstNonEmpty(opts.Model, DefaultModel),
		maxTokens: opts.MaxTokens,
		timeout:   opts.Timeout,
		days:      opts.Days,
		observe:   opts.Observe,
	}
	if g.maxTokens <= 0 {
		g.maxTokens = DefaultMaxTokens
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if g.days <= 0 {
		g.days = DefaultDays
	}
	return g, nil
}

func (g *OpenAIGenerator) Days() int { return g.days }

func (g *OpenAIGenerator) Generate(ctx context.Context, place string) string {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	started := time.Now()
	text, err := g.complete(ctx, place)
	if g.observe != nil {
		g.observe(time.Since(started), err)
	}
	if err != nil {
		log.Printf("itinerary: generation failed: %v", err)
		return FallbackText
	}
	return text
}

func (g *OpenAIGenerator) complete(ctx context.Context, place string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: Prompt(place, g.days)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("chat completion returned empty content")
	}
	return text, nil
}

// Prompt is the user message sent for place.
func Prompt(place string, days int) string {
	if days <= 0 {
		days = DefaultDays
	}
	return fmt.Sprintf(
		"Create a very short and realistic %d-day travel itinerary for a tourist visiting %s. Include top sightseeing places and food recommendations each day.",
		days, place,
	)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
