package native

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/pinch/component"
	"github.com/kbukum/pinch/errors"
	"github.com/kbukum/pinch/logger"
	"github.com/kbukum/pinch/observability"
	"github.com/kbukum/pinch/security/tlstest"
)

type outcome struct {
	err error
	res *RawResponse
}

func fetchSync(t *testing.T, f Fetcher, url string, opts Options) (*RawResponse, error) {
	t.Helper()
	ch := make(chan outcome, 2)
	f.Fetch(url, opts, func(err error, res *RawResponse) {
		ch <- outcome{err, res}
	})

	var o outcome
	select {
	case o = <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("callback not called")
	}
	select {
	case <-ch:
		t.Fatal("callback called more than once")
	case <-time.After(20 * time.Millisecond):
	}
	if (o.err == nil) == (o.res == nil) {
		t.Fatalf("expected exactly one of err/res, got %v %v", o.err, o.res)
	}
	return o.res, o.err
}

func newHTTP(t *testing.T, cfg Config, opts ...Option) *HTTP {
	t.Helper()
	h, err := NewHTTP(cfg, opts...)
	if err != nil {
		t.Fatalf("NewHTTP failed: %v", err)
	}
	t.Cleanup(func() { _ = h.Close(context.Background()) })
	return h
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	if !errors.HasCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestFetchGET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("expected default user agent")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"a":1}`)
	}))
	defer srv.Close()

	res, err := fetchSync(t, newHTTP(t, Config{}), srv.URL, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != 200 || res.StatusText != "OK" {
		t.Errorf("unexpected status %d %q", res.Status, res.StatusText)
	}
	if res.BodyString != `{"a":1}` {
		t.Errorf("unexpected body %q", res.BodyString)
	}
	if res.Headers["Content-Type"] != "application/json" {
		t.Errorf("unexpected headers %v", res.Headers)
	}
}

func TestFetchPOSTWithHeadersAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("X-Default") != "d" || r.Header.Get("X-Req") != "r" {
			t.Errorf("missing headers %v", r.Header)
		}
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	h := newHTTP(t, Config{Headers: map[string]string{"X-Default": "d"}})
	res, err := fetchSync(t, h, srv.URL, Options{
		Method:  "post",
		Headers: map[string]string{"X-Req": "r"},
		Body:    "hello",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != http.StatusCreated || res.BodyString != "hello" {
		t.Errorf("unexpected response %d %q", res.Status, res.BodyString)
	}
}

func TestFetchErrorStatusIsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	res, err := fetchSync(t, newHTTP(t, Config{}), srv.URL, Options{})
	if err != nil {
		t.Fatalf("5xx must not be an error, got %v", err)
	}
	if res.Status != 500 || res.StatusText != "Internal Server Error" {
		t.Errorf("unexpected status %d %q", res.Status, res.StatusText)
	}
}

func TestFetchInvalidInput(t *testing.T) {
	h := newHTTP(t, Config{})
	tests := []struct {
		name string
		url  string
		opts Options
	}{
		{"empty url", "", Options{}},
		{"not a url", "not a url", Options{}},
		{"bad method", "http://example.com", Options{Method: "FETCH"}},
		{"negative timeout", "http://example.com", Options{TimeoutInterval: -1}},
		{"empty pinning", "http://example.com", Options{SSLPinning: &Pinning{}}},
		{"empty cert in list", "http://example.com", Options{SSLPinning: &Pinning{Certs: []string{"a", ""}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fetchSync(t, h, tt.url, tt.opts)
			requireCode(t, err, errors.ErrCodeInvalidInput)
		})
	}
}

func TestFetchPinnedByName(t *testing.T) {
	pki := tlstest.GenerateTLSCerts(t)
	srv := tlstest.NewServer(t, pki, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pinned")
	}))

	h := newHTTP(t, Config{CertDir: pki.Dir})

	for _, p := range []*Pinning{
		{Cert: "ca"},
		{Certs: []string{"ca.pem"}},
		{Cert: pki.CADERFile, Certs: []string{"ignored"}},
	} {
		res, err := fetchSync(t, h, srv.URL, Options{SSLPinning: p})
		if err != nil {
			t.Fatalf("pinning %+v: unexpected error: %v", p, err)
		}
		if res.BodyString != "pinned" {
			t.Errorf("unexpected body %q", res.BodyString)
		}
	}
}

func TestFetchWrongPin(t *testing.T) {
	pki := tlstest.GenerateTLSCerts(t)
	other := tlstest.GenerateTLSCerts(t)
	srv := tlstest.NewServer(t, pki, http.NotFoundHandler())

	h := newHTTP(t, Config{CertDir: other.Dir})
	_, err := fetchSync(t, h, srv.URL, Options{SSLPinning: &Pinning{Cert: "ca"}})
	requireCode(t, err, errors.ErrCodeUntrustedCertificate)
}

func TestFetchUnpinnedSelfSigned(t *testing.T) {
	pki := tlstest.GenerateTLSCerts(t)
	srv := tlstest.NewServer(t, pki, http.NotFoundHandler())

	_, err := fetchSync(t, newHTTP(t, Config{}), srv.URL, Options{})
	requireCode(t, err, errors.ErrCodeUntrustedCertificate)
}

func TestFetchMissingPin(t *testing.T) {
	h := newHTTP(t, Config{CertDir: t.TempDir()})
	_, err := fetchSync(t, h, "https://example.com", Options{SSLPinning: &Pinning{Cert: "missing"}})
	requireCode(t, err, errors.ErrCodeInvalidInput)
}

func TestFetchUnparseablePin(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.cer"), []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	h := newHTTP(t, Config{CertDir: dir})
	_, err := fetchSync(t, h, "https://example.com", Options{SSLPinning: &Pinning{Cert: "bad"}})
	requireCode(t, err, errors.ErrCodeInvalidInput)
	if appErr, _ := errors.AsAppError(err); appErr.Cause == nil {
		t.Error("expected the parse failure as cause")
	}
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := fetchSync(t, newHTTP(t, Config{}), srv.URL, Options{TimeoutInterval: 50})
	requireCode(t, err, errors.ErrCodeTimeout)
}

func TestFetchTimeoutCappedByMaxTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer srv.Close()

	h := newHTTP(t, Config{Timeout: 50 * time.Millisecond, MaxTimeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := fetchSync(t, h, srv.URL, Options{TimeoutInterval: 60000})
	requireCode(t, err, errors.ErrCodeTimeout)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("expected max timeout to cut the request short, took %v", elapsed)
	}
}

func TestFetchTRACE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodTrace {
			t.Errorf("expected TRACE, got %s", r.Method)
		}
		_, _ = io.WriteString(w, r.Method)
	}))
	defer srv.Close()

	res, err := fetchSync(t, newHTTP(t, Config{}), srv.URL, Options{Method: "trace"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != http.StatusOK || res.BodyString != "TRACE" {
		t.Errorf("unexpected response %d %q", res.Status, res.BodyString)
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := fetchSync(t, newHTTP(t, Config{}), addr, Options{})
	requireCode(t, err, errors.ErrCodeConnectionFailed)
}

func TestCookiesShared(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
			return
		}
		c, err := r.Cookie("session")
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, c.Value)
	}))
	defer srv.Close()

	h := newHTTP(t, Config{})
	if _, err := fetchSync(t, h, srv.URL+"/login", Options{}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	res, err := fetchSync(t, h, srv.URL+"/me", Options{})
	if err != nil || res.BodyString != "s1" {
		t.Fatalf("expected cookie to be replayed, got %v %v", res, err)
	}

	cookies, err := h.Cookies(srv.URL)
	if err != nil {
		t.Fatalf("Cookies failed: %v", err)
	}
	if cookies["session"] != "s1" {
		t.Errorf("unexpected cookies %v", cookies)
	}

	if _, err := h.Cookies("://bad"); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for bad url, got %v", err)
	}
}

func TestTransportsCachedPerPinSet(t *testing.T) {
	pki := tlstest.GenerateTLSCerts(t)
	srv := tlstest.NewServer(t, pki, http.NotFoundHandler())
	plain := httptest.NewServer(http.NotFoundHandler())
	defer plain.Close()

	h := newHTTP(t, Config{CertDir: pki.Dir})
	for range 2 {
		if _, err := fetchSync(t, h, srv.URL, Options{SSLPinning: &Pinning{Cert: "ca"}}); err != nil {
			t.Fatalf("pinned fetch failed: %v", err)
		}
		if _, err := fetchSync(t, h, plain.URL, Options{}); err != nil {
			t.Fatalf("plain fetch failed: %v", err)
		}
	}
	if n := h.Transports(); n != 2 {
		t.Errorf("expected 2 cached transports, got %d", n)
	}
}

func TestFetchAfterClose(t *testing.T) {
	h, err := NewHTTP(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	_, err = fetchSync(t, h, "http://example.com", Options{})
	requireCode(t, err, errors.ErrCodeUnsupported)
}

func TestFetchNilCallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	h, err := NewHTTP(Config{})
	if err != nil {
		t.Fatal(err)
	}
	h.Fetch(srv.URL, Options{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Close(ctx); err != nil {
		t.Fatalf("Close did not drain: %v", err)
	}
}

func TestFetchRecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()
	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	h := newHTTP(t, Config{}, WithMetrics(metrics))
	if _, err := fetchSync(t, h, srv.URL, Options{}); err != nil {
		t.Fatal(err)
	}
	_, _ = fetchSync(t, h, "bad url", Options{})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if s, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range s.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	if totals[observability.MetricRequestTotal] != 2 {
		t.Errorf("expected 2 requests, got %d", totals[observability.MetricRequestTotal])
	}
	if totals[observability.MetricErrorTotal] != 1 {
		t.Errorf("expected 1 error, got %d", totals[observability.MetricErrorTotal])
	}
}

func useSpanRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func spanAttr(s tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range s.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestFetchSpans(t *testing.T) {
	exporter := useSpanRecorder(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	h := newHTTP(t, Config{})
	if _, err := fetchSync(t, h, srv.URL, Options{}); err != nil {
		t.Fatal(err)
	}
	_, _ = fetchSync(t, h, "bad url", Options{})

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	ok, failed := spans[0], spans[1]
	if v, found := spanAttr(ok, observability.AttrHTTPStatus); !found || v.AsInt64() != http.StatusTeapot {
		t.Errorf("expected status attribute 418, got %v", ok.Attributes)
	}
	if ok.Status.Code == codes.Error {
		t.Error("an HTTP error status must not fail the span")
	}
	if failed.Status.Code != codes.Error || len(failed.Events) != 1 {
		t.Errorf("expected failed span with error event, got %+v", failed.Status)
	}
	if v, found := spanAttr(failed, observability.AttrErrorCode); !found || v.AsString() != string(errors.ErrCodeInvalidInput) {
		t.Errorf("expected error code attribute, got %v", failed.Attributes)
	}
}

func TestCookiesSpan(t *testing.T) {
	exporter := useSpanRecorder(t)
	h := newHTTP(t, Config{})

	if _, err := h.Cookies("http://example.com/?token=secret"); err != nil {
		t.Fatal(err)
	}
	_, _ = h.Cookies("://bad")

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	for _, s := range spans {
		if s.Name != observability.SpanCookies {
			t.Errorf("unexpected span name %q", s.Name)
		}
	}
	if v, _ := spanAttr(spans[0], observability.AttrHTTPURL); strings.Contains(v.AsString(), "secret") {
		t.Errorf("expected redacted url, got %q", v.AsString())
	}
	if v, found := spanAttr(spans[0], observability.AttrCookieCount); !found || v.AsInt64() != 0 {
		t.Errorf("expected cookie count 0, got %v", spans[0].Attributes)
	}
	if spans[1].Status.Code != codes.Error {
		t.Errorf("expected failed cookies span, got %+v", spans[1].Status)
	}
}

func TestNewHTTPUsesRegisteredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger.Register(componentName, logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf))
	t.Cleanup(func() {
		logger.Register(componentName, logger.GetGlobalLogger().WithComponent(componentName))
	})

	h := newHTTP(t, Config{})
	_, _ = fetchSync(t, h, "bad url", Options{})

	if !strings.Contains(buf.String(), "fetch failed") {
		t.Errorf("expected fetch failure on the registered logger, got %q", buf.String())
	}
}

func TestFetcherFunc(t *testing.T) {
	var f Fetcher = FetcherFunc(func(url string, _ Options, cb Callback) {
		go cb(nil, &RawResponse{BodyString: url})
	})
	res, err := fetchSync(t, f, "x", Options{})
	if err != nil || res.BodyString != "x" {
		t.Errorf("unexpected %v %v", res, err)
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil || Default() != Default() {
		t.Fatal("expected one shared default backend")
	}
	if _, ok := Default().(CookieSource); !ok {
		t.Error("expected default backend to expose cookies")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Timeout: time.Minute, MaxTimeout: time.Second, CertDir: "/nonexistent/dir"}
	cfg.ApplyDefaults()
	err := cfg.Validate()
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("unexpected code %s", appErr.Code)
	}
	if _, err := NewHTTP(cfg); err == nil {
		t.Error("expected NewHTTP to reject invalid config")
	}
}

func TestPinningNames(t *testing.T) {
	var nilPin *Pinning
	if nilPin.Names() != nil {
		t.Error("nil pinning has no names")
	}
	if got := (&Pinning{Cert: "a", Certs: []string{"b"}}).Names(); len(got) != 1 || got[0] != "a" {
		t.Errorf("expected cert to win, got %v", got)
	}
	if got := (&Pinning{Certs: []string{"b", "c"}}).Names(); len(got) != 2 {
		t.Errorf("unexpected names %v", got)
	}
}

func TestPinKey(t *testing.T) {
	if pinKey([]string{"b", "a", "b"}) != pinKey([]string{"a", "b"}) {
		t.Error("pin key must ignore order and duplicates")
	}
	if pinKey(nil) != "" {
		t.Error("unpinned key must be empty")
	}
}

func TestRedactURL(t *testing.T) {
	got := redactURL("https://user:pw@example.com/path?token=x#frag")
	if got != "https://example.com/path" {
		t.Errorf("unexpected redaction %q", got)
	}
}

func TestComponentLifecycle(t *testing.T) {
	c := NewComponent(Config{})
	if c.Health(context.Background()).Status != component.StatusUnhealthy {
		t.Error("expected unhealthy before start")
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if c.Fetcher() == nil || c.Health(context.Background()).Status != component.StatusHealthy {
		t.Error("expected healthy backend after start")
	}
	if d := c.Describe(); d.Type != "fetcher" || d.Name != "native" {
		t.Errorf("unexpected description %+v", d)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy || h.Message != "closed" {
		t.Errorf("expected closed after stop, got %+v", h)
	}
}
