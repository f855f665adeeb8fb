package translate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGoogleTranslator_ParsesSegments(t *testing.T) {
	var gotQuery string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `[[["Bonjour ","Hello ",null],["le monde","world",null]],null,"en"]`)
	}))
	defer srv.Close()

	tr := NewGoogleTranslatorWithEndpoint(srv.URL, 5*time.Second)

	out, err := tr.Translate(context.Background(), "Hello world", "fr")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if out != "Bonjour le monde" {
		t.Errorf("Expected 'Bonjour le monde', got %q", out)
	}

	for _, part := range []string{"client=gtx", "sl=auto", "tl=fr", "dt=t"} {
		if !strings.Contains(gotQuery, part) {
			t.Errorf("Expected query to contain %q, got %s", part, gotQuery)
		}
	}
}

func TestGoogleTranslator_BadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>captcha</html>`)
	}))
	defer srv.Close()

	tr := NewGoogleTranslatorWithEndpoint(srv.URL, 5*time.Second)

	_, err := tr.Translate(context.Background(), "Hello", "fr")
	if !errors.Is(err, ErrBadTranslationResponse) {
		t.Fatalf("Expected ErrBadTranslationResponse, got %v", err)
	}
}

func TestGoogleTranslator_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tr := NewGoogleTranslatorWithEndpoint(srv.URL, 5*time.Second)

	_, err := tr.Translate(context.Background(), "Hello", "fr")
	if !errors.Is(err, ErrBadTranslationResponse) {
		t.Fatalf("Expected ErrBadTranslationResponse, got %v", err)
	}
}

// countingTranslator counts backend hits.
type countingTranslator struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (c *countingTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	if c.fail {
		return "", errors.New("backend down")
	}

	return "[" + target + "]" + text, nil
}

func TestCache_MemoizesRepeats(t *testing.T) {
	backend := &countingTranslator{}
	cache := NewCache(backend)

	for i := 0; i < 5; i++ {
		out, err := cache.Translate(context.Background(), "Same headline", "de")
		if err != nil {
			t.Fatalf("Translate failed: %v", err)
		}

		if out != "[de]Same headline" {
			t.Errorf("Unexpected translation %q", out)
		}
	}

	if backend.calls != 1 {
		t.Errorf("Expected exactly 1 backend call, got %d", backend.calls)
	}
}

func TestCache_DistinguishesTargets(t *testing.T) {
	backend := &countingTranslator{}
	cache := NewCache(backend)

	_, _ = cache.Translate(context.Background(), "Headline", "de")
	_, _ = cache.Translate(context.Background(), "Headline", "fr")

	if backend.calls != 2 {
		t.Errorf("Different targets must not share cache entries, got %d calls", backend.calls)
	}
}

func TestCache_FailuresAreNotCached(t *testing.T) {
	backend := &countingTranslator{fail: true}
	cache := NewCache(backend)

	_, err := cache.Translate(context.Background(), "Headline", "de")
	if err == nil {
		t.Fatal("Expected backend error")
	}

	backend.fail = false

	out, err := cache.Translate(context.Background(), "Headline", "de")
	if err != nil {
		t.Fatalf("Expected retry after failure to succeed: %v", err)
	}

	if out != "[de]Headline" {
		t.Errorf("Unexpected translation %q", out)
	}
}
