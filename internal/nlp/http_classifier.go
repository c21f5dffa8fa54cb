package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultClassifierURL is the hosted text-classification model.
const DefaultClassifierURL = "https://api-inference.huggingface.co/models/aarya1708/tripgenie-intent-classifier"

// HTTPClassifier calls a Hugging Face style text-classification endpoint.
type HTTPClassifier struct {
	url    string
	token  string
	client *http.Client
}

func NewHTTPClassifier(url, token string) *HTTPClassifier {
	url = strings.TrimSpace(url)
	if url == "" {
		url = DefaultClassifierURL
	}
	return &HTTPClassifier{
		url:   url,
		token: strings.TrimSpace(token),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", &HTTPStatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	labels, err := decodeClassifications(body)
	if err != nil {
		return "", err
	}
	best := classification{Score: -1}
	for _, l := range labels {
		if l.Score > best.Score {
			best = l
		}
	}
	if best.Label == "" {
		return UnknownIntent, nil
	}
	return best.Label, nil
}

// decodeClassifications accepts both the flat and the batched response shape.
func decodeClassifications(body []byte) ([]classification, error) {
	var nested [][]classification
	if err := json.Unmarshal(body, &nested); err == nil {
		var out []classification
		for _, batch := range nested {
			out = append(out, batch...)
		}
		return out, nil
	}
	var flat []classification
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}
	return flat, nil
}

// HTTPStatusError is a non-2xx response from an HTTP collaborator.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int { return e.StatusCode }
