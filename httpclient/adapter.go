package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Adapter is an HTTP transport bound to one trust configuration.
// It can be used directly or as a provider.RequestResponse.
type Adapter struct {
	httpClient *http.Client
	config     Config
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithCookieJar shares jar with the adapter's client so cookies set by one
// response are sent on later requests, across adapters using the same jar.
func WithCookieJar(jar http.CookieJar) Option {
	return func(a *Adapter) { a.httpClient.Jar = jar }
}

// WithTransport replaces the round tripper. Mostly useful in tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(a *Adapter) { a.httpClient.Transport = rt }
}

// New creates a new HTTP adapter with the given configuration.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.TLS != nil {
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		if tlsCfg != nil {
			transport.TLSClientConfig = tlsCfg
		}
	}

	a := &Adapter{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		config: cfg,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Do executes an HTTP request and returns the complete response.
// Any status code yields a response; only transport failures are errors.
func (a *Adapter) Do(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := a.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("read response body: %w", err))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     statusText(resp),
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}, nil
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (a *Adapter) Unwrap() *http.Client {
	return a.httpClient
}

// buildRequest constructs an *http.Request from the adapter config and request.
func (a *Adapter) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if a.config.UserAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", a.config.UserAgent)
	}

	return httpReq, nil
}

// statusText returns the reason phrase without the numeric prefix.
func statusText(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, fmt.Sprintf("%d ", resp.StatusCode)); ok {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// --- provider.Provider interface ---

// Name returns the adapter name (implements provider.Provider).
func (a *Adapter) Name() string {
	return a.config.Name
}

// IsAvailable reports whether the adapter can take requests (implements provider.Provider).
func (a *Adapter) IsAvailable(_ context.Context) bool {
	return a.httpClient != nil
}

// --- provider.RequestResponse[Request, *Response] interface ---

// Execute sends an HTTP request and returns the response (implements provider.RequestResponse).
func (a *Adapter) Execute(ctx context.Context, req Request) (*Response, error) {
	return a.Do(ctx, req)
}

// --- provider.Closeable interface ---

// Close releases idle connections held by the adapter (implements provider.Closeable).
func (a *Adapter) Close(_ context.Context) error {
	a.httpClient.CloseIdleConnections()
	return nil
}

// GetConfig returns the adapter's configuration.
func (a *Adapter) GetConfig() Config {
	return a.config
}
