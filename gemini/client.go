package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/fwojciec/relay"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ relay.Completer = (*Client)(nil)

// Client implements [relay.Completer] for the Gemini generateContent API.
// It holds no credentials; the API key is supplied on every call.
type Client struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID. Default is gemini-2.5-flash-lite.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new Gemini [Client].
func New(opts ...Option) *Client {
	c := &Client{
		model:      defaultModel,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Complete sends req as a single user turn and returns the text of the first
// part of the first candidate, unmodified.
func (c *Client) Complete(ctx context.Context, apiKey string, req relay.CompletionRequest) (string, error) {
	hc, tr := c.keyedHTTPClient(apiKey)
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    c.baseURL,
			APIVersion: defaultAPIVersion,
		},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Text(), genai.RoleUser)}
	resp, err := gc.Models.GenerateContent(ctx, c.model, contents, buildConfig())
	if err != nil {
		return "", fmt.Errorf("gemini: %w", classify(err))
	}
	text, err := ExtractText(resp)
	if err != nil {
		if remote := remoteError(tr.body); remote != nil {
			return "", fmt.Errorf("gemini: %w", remote)
		}
		return "", fmt.Errorf("gemini: %w", err)
	}
	return text, nil
}

func buildConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: maxOutputTokens,
	}
}

// ExtractText returns candidates[0].content.parts[0].text. Any missing level
// yields a [relay.APIError].
// Exported for testing.
func ExtractText(resp *genai.GenerateContentResponse) (string, error) {
	switch {
	case resp == nil:
		return "", &relay.APIError{Message: "malformed response: empty body"}
	case len(resp.Candidates) == 0 || resp.Candidates[0] == nil:
		return "", &relay.APIError{Message: "malformed response: no candidates"}
	case resp.Candidates[0].Content == nil:
		return "", &relay.APIError{Message: "malformed response: candidate has no content"}
	case len(resp.Candidates[0].Content.Parts) == 0 || resp.Candidates[0].Content.Parts[0] == nil:
		return "", &relay.APIError{Message: "malformed response: content has no parts"}
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// remoteError reports the error object of a successful response body, if
// any. The SDK only decodes error bodies on non-2xx statuses.
func remoteError(body []byte) *relay.APIError {
	var payload struct {
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil || payload.Error == nil {
		return nil
	}
	return &relay.APIError{Code: payload.Error.Code, Message: payload.Error.Message}
}

// classify maps SDK errors onto the relay error taxonomy.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &relay.APIError{Code: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &relay.APIError{Code: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &relay.TransportError{Err: err}
	}
	return &relay.APIError{Message: err.Error()}
}

// keyedHTTPClient returns a copy of the configured client whose transport
// sends the API key as a query parameter. The transport keeps the last
// successful response body for error reporting.
func (c *Client) keyedHTTPClient(apiKey string) (*http.Client, *keyTransport) {
	hc := *c.httpClient
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	tr := &keyTransport{key: apiKey, base: base}
	hc.Transport = tr
	return &hc, tr
}

type keyTransport struct {
	key  string
	base http.RoundTripper
	body []byte
}

func (t *keyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Del(apiKeyHeader)
	q := r.URL.Query()
	q.Set(apiKeyParam, t.key)
	r.URL.RawQuery = q.Encode()
	resp, err := t.base.RoundTrip(r)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	t.body = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}
