package gdelt

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"gdeltpull/internal/logger"
)

// DefaultBaseURL is the production document search endpoint.
const DefaultBaseURL = "https://api.gdeltproject.org/api/v2/doc/doc"

// maxRecords is the hard per-request record cap enforced by the API.
const maxRecords = 250

// ErrUnexpectedStatusCode indicates an HTTP response with unexpected status.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// PageKind classifies what a fetch brought back.
type PageKind int

const (
	// PageRecords means the response parsed into at least one row.
	PageRecords PageKind = iota
	// PageEmpty means a well-formed response with zero rows.
	PageEmpty
	// PageMalformed means the body failed to parse as tabular data or
	// lacks the publication date column.
	PageMalformed
)

// Page is the outcome of one bounded article list request.
// Header and Rows are only set when Kind is PageRecords; DateIdx is
// the index of the publication date column within Header.
type Page struct {
	Header  []string
	Rows    [][]string
	Kind    PageKind
	DateIdx int
}

// Client issues bounded requests against the document search API.
// It performs no retries itself; retry policy belongs to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
}

// NewClient creates a client against the production endpoint with a
// default timeout.
func NewClient(log *logger.Logger) *Client {
	return NewClientWithConfig(DefaultBaseURL, 30*time.Second, log)
}

// NewClientWithConfig creates a client with an explicit endpoint and
// timeout. Tests point baseURL at a local server.
func NewClientWithConfig(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		log:     log,
	}
}

// FetchArticles requests one article list page for the [start, end]
// window. Empty and malformed bodies are reported through Page.Kind;
// only transport-level failures return an error.
func (c *Client) FetchArticles(ctx context.Context, query QuerySpec, start, end Cursor) (*Page, error) {
	url := c.baseURL +
		"?query=" + query.Encode() +
		"&StartDateTime=" + start.Wire() +
		"&EndDateTime=" + end.Wire() +
		fmt.Sprintf("&mode=ArtList&maxrecords=%d&sort=DateDesc&format=csv", maxRecords)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	return parsePage(body), nil
}

// FetchMode requests one fixed-interval mode (timeline volume, tone,
// language or country breakdowns) and returns the raw CSV body.
// A zero end cursor leaves the window open on the right.
func (c *Client) FetchMode(ctx context.Context, query QuerySpec, start, end Cursor, mode string) ([]byte, error) {
	url := c.baseURL +
		"?query=" + query.Encode() +
		"&StartDateTime=" + start.Wire()

	if !end.IsZero() {
		url += "&EndDateTime=" + end.Wire()
	}

	url += "&mode=" + mode

	// Tone modes are aggregates with no date ordering to ask for.
	if !strings.Contains(mode, "Tone") {
		url += "&sort=DateDesc"
	}

	url += "&format=csv"

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	return []byte(body), nil
}

func (c *Client) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}

// parsePage classifies a response body. Rows that do not match the
// header width are skipped, mirroring how downstream consumers treat
// bad lines in hand-edited exports.
func parsePage(body string) *Page {
	if strings.TrimSpace(body) == "" {
		return &Page{Kind: PageEmpty}
	}

	reader := csv.NewReader(strings.NewReader(body))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return &Page{Kind: PageMalformed}
	}

	dateIdx := -1

	for i, name := range header {
		if strings.TrimSpace(name) == "Date" {
			dateIdx = i

			break
		}
	}

	if dateIdx == -1 {
		return &Page{Kind: PageMalformed}
	}

	var rows [][]string

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			// Bad line; skip it and keep reading.
			continue
		}

		if len(row) != len(header) {
			continue
		}

		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return &Page{Kind: PageEmpty}
	}

	return &Page{
		Header:  header,
		Rows:    rows,
		Kind:    PageRecords,
		DateIdx: dateIdx,
	}
}

// ArticleSource binds a client to one query so callers that walk
// windows only have to name the window.
type ArticleSource struct {
	client *Client
	query  QuerySpec
}

// Articles returns an ArticleSource for the given query.
func (c *Client) Articles(query QuerySpec) *ArticleSource {
	return &ArticleSource{client: c, query: query}
}

// Fetch requests one article list page for the [start, end] window.
func (s *ArticleSource) Fetch(ctx context.Context, start, end Cursor) (*Page, error) {
	return s.client.FetchArticles(ctx, s.query, start, end)
}

// NewLimiter builds the inter-request rate limiter. Disabled or
// non-positive intervals mean no throttling.
func NewLimiter(interval time.Duration, disabled bool) *rate.Limiter {
	if disabled || interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}

	return rate.NewLimiter(rate.Every(interval), 1)
}
