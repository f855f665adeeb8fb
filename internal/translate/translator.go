// Package translate turns article headlines into a target language.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Translator translates a single text into the target language.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// ErrBadTranslationResponse indicates a response the backend returned
// that does not carry a translation.
var ErrBadTranslationResponse = errors.New("bad translation response")

// DefaultEndpoint is the public web translation endpoint.
const DefaultEndpoint = "https://translate.googleapis.com/translate_a/single"

// GoogleTranslator calls the public Google web translation endpoint.
type GoogleTranslator struct {
	httpClient *http.Client
	endpoint   string
}

// NewGoogleTranslator creates a translator against the public
// endpoint with the given timeout.
func NewGoogleTranslator(timeout time.Duration) *GoogleTranslator {
	return NewGoogleTranslatorWithEndpoint(DefaultEndpoint, timeout)
}

// NewGoogleTranslatorWithEndpoint creates a translator against a
// custom endpoint. Tests point this at a local server.
func NewGoogleTranslatorWithEndpoint(endpoint string, timeout time.Duration) *GoogleTranslator {
	return &GoogleTranslator{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
	}
}

// Translate performs one translation request. Source language is
// auto-detected by the backend.
func (g *GoogleTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "auto")
	params.Set("tl", target)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrBadTranslationResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read translation response: %w", err)
	}

	return parseTranslation(body)
}

// parseTranslation extracts the translated text from the endpoint's
// nested-array JSON: [[["translated","original",...],...],...].
func parseTranslation(body []byte) (string, error) {
	var outer []json.RawMessage
	if err := json.Unmarshal(body, &outer); err != nil || len(outer) == 0 {
		return "", fmt.Errorf("%w: %q", ErrBadTranslationResponse, truncate(string(body), 80))
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(outer[0], &segments); err != nil {
		return "", fmt.Errorf("%w: %q", ErrBadTranslationResponse, truncate(string(body), 80))
	}

	var sb strings.Builder

	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}

		var piece string
		if err := json.Unmarshal(seg[0], &piece); err != nil {
			continue
		}

		sb.WriteString(piece)
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: no segments", ErrBadTranslationResponse)
	}

	return sb.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}

// Cache memoizes a Translator. Many headlines repeat across sources
// and real translations are slow, so repeats are answered locally.
type Cache struct {
	inner Translator
	mu    sync.Mutex
	memo  map[string]string
}

// NewCache wraps a translator with memoization.
func NewCache(inner Translator) *Cache {
	return &Cache{
		inner: inner,
		memo:  make(map[string]string),
	}
}

// Translate returns the cached translation when available.
// Only successes are cached; a failed text is retried next time.
func (c *Cache) Translate(ctx context.Context, text, target string) (string, error) {
	key := target + "\x00" + text

	c.mu.Lock()
	cached, ok := c.memo[key]
	c.mu.Unlock()

	if ok {
		return cached, nil
	}

	out, err := c.inner.Translate(ctx, text, target)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.memo[key] = out
	c.mu.Unlock()

	return out, nil
}
