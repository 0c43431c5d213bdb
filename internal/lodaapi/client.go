package lodaapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultBaseURL is the production LODA API endpoint.
const DefaultBaseURL = "https://api.loda-lang.org/v2"

// Sequence is an OEIS-style integer sequence as returned by the API.
// Terms are decimal strings because many sequences outgrow int64 quickly.
type Sequence struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Terms    []string `json:"terms"`
	Keywords []string `json:"keywords,omitempty"`
	Author   string   `json:"author,omitempty"`
}

// SearchResult is a paginated sequence search response.
type SearchResult struct {
	Total   int        `json:"total"`
	Results []Sequence `json:"results"`
}

// Program is a LODA program together with its sequence metadata.
type Program struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	Submitter string `json:"submitter,omitempty"`
}

// Evaluation holds the terms produced by evaluating a program.
type Evaluation struct {
	Terms []string `json:"terms"`
}

// Submission is the acknowledgment returned for a submitted program.
type Submission struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Stats summarizes the size of the LODA corpus.
type Stats struct {
	NumSequences int64 `json:"numSequences"`
	NumPrograms  int64 `json:"numPrograms"`
	NumFormulas  int64 `json:"numFormulas"`
}

// Client calls the LODA API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL. An empty base URL
// selects the production API.
func NewClient(baseURL string) *Client {
	return NewClientWithHTTP(baseURL, nil)
}

// NewClientWithHTTP creates a client with an explicit HTTP client.
//
// Callers use this when they need to inject a preconfigured transport, which
// keeps tests against stub servers simple. The default client traces every
// outbound request, so runs with tracing enabled see one span per API call.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the configured base URL with any trailing slash removed.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetSequence fetches one sequence by its A-number identifier.
func (c *Client) GetSequence(ctx context.Context, id string) (Sequence, error) {
	var seq Sequence
	if err := c.getJSON(ctx, "/sequences/"+url.PathEscape(id), nil, &seq); err != nil {
		return Sequence{}, err
	}
	return seq, nil
}

// SearchSequences runs a full-text sequence search with pagination.
func (c *Client) SearchSequences(ctx context.Context, q string, limit, skip int) (SearchResult, error) {
	query := url.Values{}
	query.Set("q", q)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("skip", strconv.Itoa(skip))

	var result SearchResult
	if err := c.getJSON(ctx, "/sequences/search", query, &result); err != nil {
		return SearchResult{}, err
	}
	return result, nil
}

// GetProgram fetches the LODA program for a sequence identifier.
func (c *Client) GetProgram(ctx context.Context, id string) (Program, error) {
	var program Program
	if err := c.getJSON(ctx, "/programs/"+url.PathEscape(id), nil, &program); err != nil {
		return Program{}, err
	}
	return program, nil
}

// EvalProgram evaluates LODA program source to the requested number of terms.
func (c *Client) EvalProgram(ctx context.Context, code string, terms int) (Evaluation, error) {
	query := url.Values{}
	query.Set("t", strconv.Itoa(terms))

	data, contentType, err := c.do(ctx, http.MethodPost, "/programs/eval", query, code, "text/plain")
	if err != nil {
		return Evaluation{}, err
	}
	var eval Evaluation
	if err := decodeJSON(data, contentType, &eval); err != nil {
		return Evaluation{}, err
	}
	return eval, nil
}

// ExportProgram converts LODA program source into the requested format and
// returns the exported text verbatim.
func (c *Client) ExportProgram(ctx context.Context, code, format string) (string, error) {
	query := url.Values{}
	query.Set("format", format)

	data, _, err := c.do(ctx, http.MethodPost, "/programs/export", query, code, "text/plain")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SubmitProgram submits LODA program source for inclusion in the corpus.
func (c *Client) SubmitProgram(ctx context.Context, code, submitter string) (Submission, error) {
	query := url.Values{}
	if strings.TrimSpace(submitter) != "" {
		query.Set("submitter", submitter)
	}

	data, contentType, err := c.do(ctx, http.MethodPost, "/programs/submit", query, code, "text/plain")
	if err != nil {
		return Submission{}, err
	}
	var submission Submission
	if err := decodeJSON(data, contentType, &submission); err != nil {
		return Submission{}, err
	}
	return submission, nil
}

// GetStats fetches corpus-wide summary statistics.
func (c *Client) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := c.getJSON(ctx, "/stats/summary", nil, &stats); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// getJSON issues a GET request and decodes a JSON response body into target.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) error {
	data, contentType, err := c.do(ctx, http.MethodGet, path, query, "", "")
	if err != nil {
		return err
	}
	return decodeJSON(data, contentType, target)
}

// do issues one HTTP request and returns the raw body and its content type.
// Non-success statuses and transport failures are reported as errors that name
// the upstream API, so callers can surface them without further translation.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, contentType string) ([]byte, string, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("LODA API at %s is unreachable: %v", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, "", fmt.Errorf("LODA API error: %d %s: %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(data)))
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// decodeJSON unmarshals data into target after checking the declared content type.
func decodeJSON(data []byte, contentType string, target any) error {
	if !isJSONContentType(contentType) {
		return fmt.Errorf("unexpected content type %q: %s", contentType, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// isJSONContentType reports whether a Content-Type header declares JSON.
// An absent header is treated as JSON because some endpoints omit it.
func isJSONContentType(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
