package native

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/pinch/errors"
	"github.com/kbukum/pinch/httpclient"
	"github.com/kbukum/pinch/logger"
	"github.com/kbukum/pinch/observability"
	"github.com/kbukum/pinch/provider"
)

const componentName = "native"

// HTTP is the net/http backed Fetcher. It is safe for concurrent use.
type HTTP struct {
	cfg     Config
	jar     http.CookieJar
	log     *logger.Logger
	metrics *observability.Metrics

	mu       sync.Mutex
	adapters map[string]*httpclient.Adapter
	inflight sync.WaitGroup
	closed   bool
}

var (
	_ Fetcher      = (*HTTP)(nil)
	_ CookieSource = (*HTTP)(nil)
)

// Option configures an HTTP backend.
type Option func(*HTTP)

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(l *logger.Logger) Option {
	return func(h *HTTP) { h.log = l }
}

// WithMetrics records fetch metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *HTTP) { h.metrics = m }
}

// WithCookieJar replaces the backend's cookie jar.
func WithCookieJar(jar http.CookieJar) Option {
	return func(h *HTTP) { h.jar = jar }
}

// NewHTTP creates an HTTP backend.
func NewHTTP(cfg Config, opts ...Option) (*HTTP, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &HTTP{
		cfg:      cfg,
		jar:      httpclient.NewCookieJar(),
		adapters: make(map[string]*httpclient.Adapter),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = logger.Get(componentName)
	} else {
		h.log = h.log.WithComponent(componentName)
	}
	return h, nil
}

// Fetch performs the request on a new goroutine and calls cb exactly once.
// Every HTTP status is delivered as a response; cb receives an error only
// when no response could be obtained.
func (h *HTTP) Fetch(rawURL string, opts Options, cb Callback) {
	if cb == nil {
		cb = func(error, *RawResponse) {}
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		go cb(errors.New(errors.ErrCodeUnsupported, "native backend is closed"), nil)
		return
	}
	h.inflight.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.inflight.Done()
		res, err := h.do(context.Background(), rawURL, opts)
		if err != nil {
			cb(err, nil)
			return
		}
		cb(nil, res)
	}()
}

// do runs one fetch with its request ID, span, metrics and logging.
func (h *HTTP) do(ctx context.Context, rawURL string, opts Options) (*RawResponse, error) {
	ctx = logger.ContextWithRequestID(ctx, uuid.NewString())
	log := h.log.WithContext(ctx)
	method := opts.method()
	pinned := len(opts.SSLPinning.Names()) > 0

	ctx, span := observability.StartSpan(ctx, observability.SpanHTTPRequest,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(observability.AttrRequestID, logger.RequestIDFromContext(ctx)),
			attribute.String(observability.AttrHTTPMethod, method),
			attribute.String(observability.AttrHTTPURL, redactURL(rawURL)),
			attribute.Bool(observability.AttrPinned, pinned),
		),
	)
	defer span.End()

	if h.metrics != nil {
		h.metrics.RecordRequestStart(ctx)
	}
	start := time.Now()

	res, err := h.execute(ctx, rawURL, opts)

	duration := time.Since(start)
	fields := logger.Fields(
		logger.FieldMethod, method,
		logger.FieldURL, redactURL(rawURL),
		logger.FieldDuration, duration.Milliseconds(),
	)
	status := "error"
	if err != nil {
		code := string(errorCode(err))
		observability.SetSpanError(ctx, err)
		observability.SetSpanAttribute(ctx, observability.AttrErrorCode, code)
		if h.metrics != nil {
			h.metrics.RecordError(ctx, code, componentName)
		}
		log.Warn("fetch failed", logger.MergeWithError(fields, err))
	} else {
		status = strconv.Itoa(res.Status)
		observability.SetSpanAttribute(ctx, observability.AttrHTTPStatus, res.Status)
		fields[logger.FieldStatus] = res.Status
		log.Debug("fetch completed", fields)
	}
	if h.metrics != nil {
		h.metrics.RecordRequestEnd(ctx, componentName, method, status, duration)
	}
	return res, err
}

func (h *HTTP) execute(ctx context.Context, rawURL string, opts Options) (*RawResponse, error) {
	if err := opts.validate(rawURL); err != nil {
		return nil, err
	}

	pins, err := h.cfg.resolvePins(opts.SSLPinning.Names())
	if err != nil {
		return nil, err
	}

	adapter, err := h.adapterFor(pins)
	if err != nil {
		return nil, err
	}

	timeout := min(opts.timeout(h.cfg.Timeout), h.cfg.MaxTimeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := adapter.Do(ctx, httpclient.Request{
		Method:  opts.method(),
		URL:     rawURL,
		Headers: opts.Headers,
		Body:    opts.Body,
	})
	if err != nil {
		return nil, translate(rawURL, err)
	}

	return &RawResponse{
		Status:     resp.StatusCode,
		StatusText: resp.Status,
		BodyString: string(resp.Body),
		Headers:    resp.Headers,
	}, nil
}

// adapterFor returns the transport trusting exactly pins, building and
// caching it on first use. An empty pin set uses the base TLS config.
func (h *HTTP) adapterFor(pins []string) (*httpclient.Adapter, error) {
	key := pinKey(pins)

	h.mu.Lock()
	defer h.mu.Unlock()

	if a, ok := h.adapters[key]; ok {
		return a, nil
	}

	tlsCfg := h.cfg.TLS
	if len(pins) > 0 {
		tlsCfg = tlsCfg.WithPins(pins)
	}

	a, err := httpclient.New(httpclient.Config{
		Name:      "native:" + key,
		Timeout:   h.cfg.MaxTimeout,
		TLS:       tlsCfg,
		Headers:   h.cfg.Headers,
		UserAgent: h.cfg.UserAgent,
	}, httpclient.WithCookieJar(h.jar))
	if err != nil {
		return nil, errors.InvalidInput("sslPinning", "pinned certificates could not be loaded").WithCause(err)
	}

	h.adapters[key] = a
	h.log.Debug("transport created", logger.Fields("pins", len(pins)))
	return a, nil
}

func pinKey(pins []string) string {
	sorted := slices.Clone(pins)
	slices.Sort(sorted)
	return strings.Join(slices.Compact(sorted), "|")
}

// translate maps a transport error onto an AppError.
func translate(rawURL string, err error) error {
	host := rawURL
	if u, perr := url.Parse(rawURL); perr == nil && u.Host != "" {
		host = u.Host
	}

	switch {
	case httpclient.IsTLS(err):
		return errors.UntrustedCertificate(host, err)
	case httpclient.IsTimeout(err):
		return errors.Timeout("fetch "+host, err)
	case httpclient.IsValidation(err):
		return errors.InvalidInput("url", err.Error()).WithCause(err)
	default:
		return errors.ConnectionFailed(host, err)
	}
}

func errorCode(err error) errors.ErrorCode {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Code
	}
	return errors.ErrCodeInternal
}

// redactURL drops userinfo and the query string before a URL is logged.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// Cookies returns the cookies the shared jar would send to rawURL.
func (h *HTTP) Cookies(rawURL string) (map[string]string, error) {
	ctx, span := observability.StartSpan(context.Background(), observability.SpanCookies,
		trace.WithAttributes(attribute.String(observability.AttrHTTPURL, redactURL(rawURL))),
	)
	defer span.End()

	values, err := httpclient.CookieValues(h.jar, rawURL)
	if err != nil {
		appErr := errors.InvalidInput("url", err.Error()).WithCause(err)
		observability.SetSpanError(ctx, appErr)
		observability.SetSpanAttribute(ctx, observability.AttrErrorCode, string(appErr.Code))
		return nil, appErr
	}
	observability.SetSpanAttribute(ctx, observability.AttrCookieCount, len(values))
	return values, nil
}

// Close stops accepting fetches, waits for in-flight ones or ctx, and
// releases idle connections.
func (h *HTTP) Close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		return fmt.Errorf("native: close: %w", ctx.Err())
	}

	h.mu.Lock()
	adapters := make([]*httpclient.Adapter, 0, len(h.adapters))
	for _, a := range h.adapters {
		adapters = append(adapters, a)
	}
	h.mu.Unlock()

	return provider.CloseAll(ctx, adapters...)
}

// Transports reports how many distinct trust configurations are cached.
func (h *HTTP) Transports() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.adapters)
}

// Config returns the backend configuration with defaults applied.
func (h *HTTP) Config() Config {
	return h.cfg
}

// isClosed reports whether Close has been called.
func (h *HTTP) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
