package fetch

import (
	"sync"

	"github.com/kbukum/pinch/errors"
	"github.com/kbukum/pinch/logger"
	"github.com/kbukum/pinch/native"
	"github.com/kbukum/pinch/promise"
)

const componentName = "fetch"

// Callback is an error-first callback: (err, nil) on failure and
// (nil, res) on success.
type Callback func(err error, res *Response)

// Adapter turns a native.Fetcher into promise-returning calls.
type Adapter struct {
	fetcher native.Fetcher
	log     *logger.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// New creates an Adapter over f.
func New(f native.Fetcher, opts ...Option) *Adapter {
	a := &Adapter{fetcher: f}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Get(componentName)
	} else {
		a.log = a.log.WithComponent(componentName)
	}
	return a
}

// Fetch starts a fetch of url and returns immediately with a promise of
// its outcome. opts are handed to the fetcher untouched.
//
// A native error rejects the promise with that exact error. On success
// the promise resolves to a Response carrying url. If cb is non-nil it is
// called once with the same outcome, on its own goroutine.
func (a *Adapter) Fetch(url string, opts native.Options, cb Callback) *promise.Promise[*Response] {
	d := promise.Defer[*Response]()

	a.fetcher.Fetch(url, opts, func(err error, raw *native.RawResponse) {
		var settled bool
		if err != nil {
			settled = d.Reject(err)
		} else {
			settled = d.Resolve(newResponse(url, raw))
		}
		if !settled {
			a.log.Warn("native callback invoked more than once, ignoring", logger.Fields(logger.FieldURL, url))
		}
	})

	return d.Promise().Nodeify(cb)
}

// Cookies resolves to the cookies the fetcher would send to url. It
// rejects with UNSUPPORTED when the fetcher keeps no cookie store.
func (a *Adapter) Cookies(url string) *promise.Promise[map[string]string] {
	src, ok := a.fetcher.(native.CookieSource)
	if !ok {
		return promise.Rejected[map[string]string](errors.Unsupported("cookies"))
	}
	return promise.Try(func() (map[string]string, error) {
		return src.Cookies(url)
	})
}

var (
	defaultAdapter *Adapter
	defaultOnce    sync.Once
)

// Default returns the adapter over native.Default, built on first use.
func Default() *Adapter {
	defaultOnce.Do(func() {
		defaultAdapter = New(native.Default())
	})
	return defaultAdapter
}

// Fetch runs a fetch on the process-wide native backend.
func Fetch(url string, opts native.Options, cb Callback) *promise.Promise[*Response] {
	return Default().Fetch(url, opts, cb)
}

// Cookies reads cookies from the process-wide native backend.
func Cookies(url string) *promise.Promise[map[string]string] {
	return Default().Cookies(url)
}
