package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Request is what the caller asked for. It is kept intact so it can be
// replayed byte for byte after a session refresh.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Header http.Header

	// Retried is set once the request has been through a refresh cycle.
	// A second 401 on a retried request goes back to the caller.
	Retried bool
}

// NewRequest builds a Request with in encoded as JSON. A nil in sends no body.
func NewRequest(method, path string, in any) (*Request, error) {
	req := &Request{Method: method, Path: path}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		req.Body = b
	}
	return req, nil
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) Decode(v any) error {
	if v == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type Client struct {
	baseURL      string
	http         *http.Client
	interceptors []Interceptor
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. A client without a jar
// gets one, since credentials travel as cookies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithInterceptor(ics ...Interceptor) Option {
	return func(c *Client) { c.interceptors = append(c.interceptors, ics...) }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// NewWithSession returns a client whose 401 answers go through a refresh
// coordinator backed by POST /auth/refresh-token on the same client.
func NewWithSession(baseURL string, opts []Option, copts ...CoordinatorOption) (*Client, *Coordinator, error) {
	c, err := New(baseURL, opts...)
	if err != nil {
		return nil, nil, err
	}
	coord := NewCoordinator(NewSessionRefresher(c), copts...)
	c.Use(coord)
	return c, coord, nil
}

// Use appends interceptors. It must not be called once requests are in flight.
func (c *Client) Use(ics ...Interceptor) {
	c.interceptors = append(c.interceptors, ics...)
}

func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Cookie returns the value the jar would send for name, or "".
func (c *Client) Cookie(name string) string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// Do sends req through the interceptor chain. Answers outside 2xx come
// back as *APIError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiErrorFrom(resp)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, ic := range c.interceptors {
		resp, err = ic.Intercept(ctx, req, resp, c.do)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	hreq.Header.Set("Accept", "application/json")
	if req.Body != nil && hreq.Header.Get("Content-Type") == "" {
		hreq.Header.Set("Content-Type", "application/json")
	}

	hresp, err := c.http.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, req.Method, req.Path, err)
	}
	defer hresp.Body.Close()

	b, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrNetwork, err)
	}
	return &Response{StatusCode: hresp.StatusCode, Header: hresp.Header, Body: b}, nil
}

func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	req, err := NewRequest(method, path, in)
	if err != nil {
		return err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.send(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.send(ctx, http.MethodPut, path, in, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.send(ctx, http.MethodPatch, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, in, out any) error {
	return c.send(ctx, http.MethodDelete, path, in, out)
}
