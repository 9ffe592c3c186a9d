package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/plextool/plextool/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultProduct = "plextool"
	defaultVersion = "dev"
	defaultTimeout = 30 * time.Second
)

// HTTPDoer is the subset of [http.Client] the clients need, so tests can
// substitute transports.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a Plex Media Server using a token.
type Client struct {
	baseURL  *url.URL
	token    string
	clientID string
	product  string
	version  string
	http     HTTPDoer
	limiter  *rate.Limiter
	logger   *log.Logger
}

// Option configures a [Client] or an [Account].
type Option func(*Client)

// WithHTTPClient substitutes the transport, mainly for tests.
func WithHTTPClient(d HTTPDoer) Option {
	return func(c *Client) { c.http = d }
}

// WithLimiter applies a shared request rate limit.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithLogger attaches a logger for request debugging.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithProduct sets the product name and version reported in request headers.
func WithProduct(product, version string) Option {
	return func(c *Client) {
		if product != "" {
			c.product = product
		}
		if version != "" {
			c.version = version
		}
	}
}

// WithClientID pins the client identifier instead of generating one.
func WithClientID(id string) Option {
	return func(c *Client) { c.clientID = id }
}

// WithBaseURL points the client somewhere else, mainly at test servers.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
			c.baseURL = u
		}
	}
}

// New creates a server client for the given base URL and access token.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid base url %q", shared.ErrInvalidCredentials, baseURL)
	}

	c := &Client{
		baseURL:  u,
		token:    token,
		clientID: shared.GenerateID(),
		product:  defaultProduct,
		version:  defaultVersion,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithToken returns a copy of the client that authenticates with a different
// access token. Transport, limiter and identity are shared.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// BaseURL returns the server base URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// do runs a request against the server and decodes the JSON response into
// out when non-nil. The endpoint may carry a query string.
func (c *Client) do(ctx context.Context, method, endpoint string, out any) error {
	res, err := c.raw(ctx, method, endpoint, nil, nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if out == nil {
		io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", shared.ErrAPIRequest, endpoint, err)
	}
	return nil
}

// doForm posts a URL-encoded form and decodes the JSON response.
func (c *Client) doForm(ctx context.Context, method, endpoint string, form url.Values, out any) error {
	body := strings.NewReader(form.Encode())
	header := http.Header{"Content-Type": []string{"application/x-www-form-urlencoded"}}
	res, err := c.raw(ctx, method, endpoint, body, header)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if out == nil {
		io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", shared.ErrAPIRequest, endpoint, err)
	}
	return nil
}

// raw runs a request and returns the response with its body unread. The
// caller owns the body. Error statuses are mapped to sentinel errors and the
// body is consumed in that case.
func (c *Client) raw(ctx context.Context, method, endpoint string, body io.Reader, extra http.Header) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: waiting for rate limiter: %v", shared.ErrAPIRequest, err)
		}
	}

	u, err := c.baseURL.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: bad endpoint %q: %v", shared.ErrAPIRequest, endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", shared.ErrAPIRequest, err)
	}
	c.applyHeaders(req)
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	if c.logger != nil {
		c.logger.Debug("api request", "method", method, "endpoint", endpoint)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrServerUnreachable, method, endpoint, err)
	}
	if err := checkStatus(res); err != nil {
		res.Body.Close()
		return nil, err
	}
	return res, nil
}

// applyHeaders sets the identification headers the API expects on every call.
func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Product", c.product)
	req.Header.Set("X-Plex-Version", c.version)
	req.Header.Set("X-Plex-Client-Identifier", c.clientID)
	req.Header.Set("X-Plex-Platform", runtime.GOOS)
	req.Header.Set("X-Plex-Device-Name", c.product)
	if c.token != "" {
		req.Header.Set("X-Plex-Token", c.token)
	}
}

// checkStatus maps HTTP error statuses onto the shared sentinel errors, with
// a short body excerpt for context.
func checkStatus(res *http.Response) error {
	switch {
	case res.StatusCode < 400:
		return nil
	case res.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrUnauthorized, bodyExcerpt(res))
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrNotFound, res.Request.URL.Path)
	default:
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, res.StatusCode, bodyExcerpt(res))
	}
}

func bodyExcerpt(res *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(res.Body, 256))
	excerpt := strings.TrimSpace(string(b))
	if excerpt == "" {
		return res.Status
	}
	return excerpt
}
