// Package oembed builds oEmbed consumer requests and fetches provider
// responses.
package oembed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"embedrc/internal/httputil"
	"embedrc/internal/provider"
)

const (
	// FetchTimeout bounds a whole oEmbed request.
	FetchTimeout = 300 * time.Second
	// ConnectTimeout bounds dialing the provider.
	ConnectTimeout = 20 * time.Second

	formatPlaceholder = "{format}"
)

var (
	// ErrFetchFailure is a transport error or a non-2xx response.
	ErrFetchFailure = errors.New("oembed fetch failed")
	// ErrMalformedResponse is a body that is not an oEmbed JSON object.
	ErrMalformedResponse = errors.New("malformed oembed response")
)

// Fetcher fetches an oEmbed response for a request URL.
type Fetcher interface {
	Fetch(ctx context.Context, requestURL string) (Response, error)
}

// Client is the HTTP Fetcher.
type Client struct {
	http *http.Client
}

// NewClient creates a client with the default oEmbed timeouts.
func NewClient() *Client {
	return &Client{http: httputil.NewClient(FetchTimeout, ConnectTimeout)}
}

// NewClientWith wraps an existing HTTP client.
func NewClientWith(c *http.Client) *Client {
	return &Client{http: c}
}

// RequestURL builds the consumer request for sourceURL against e. Only
// json is ever requested, whatever formats the endpoint advertises.
func RequestURL(e *provider.Endpoint, sourceURL string) string {
	base := strings.ReplaceAll(e.URL, formatPlaceholder, "json")
	return httputil.AppendQuery(base, "url="+url.QueryEscape(sourceURL)+"&format=json")
}

// Fetch performs a single GET and decodes the body. It never retries.
func (c *Client) Fetch(ctx context.Context, requestURL string) (Response, error) {
	body, err := httputil.GetJSON(ctx, c.http, requestURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailure, err)
	}
	return Decode(body)
}

// Decode parses an oEmbed JSON body. The body must be an object with a
// string html member.
func Decode(body []byte) (Response, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedResponse)
	}
	if html := parsed.Get("html"); html.Type != gjson.String {
		return nil, fmt.Errorf("%w: missing html", ErrMalformedResponse)
	}

	resp, ok := parsed.Value().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedResponse)
	}
	return Response(resp), nil
}
