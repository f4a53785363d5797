package native

// RawResponse is what a Fetcher hands back on success.
type RawResponse struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	BodyString string            `json:"bodyString"`
	Headers    map[string]string `json:"headers"`
}

// Callback receives the outcome of one fetch: (err, nil) on failure or
// (nil, res) on success.
type Callback func(err error, res *RawResponse)

// Fetcher performs a fetch asynchronously and reports through cb.
// Implementations must call cb exactly once.
type Fetcher interface {
	Fetch(url string, opts Options, cb Callback)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface.
type FetcherFunc func(url string, opts Options, cb Callback)

// Fetch calls f(url, opts, cb).
func (f FetcherFunc) Fetch(url string, opts Options, cb Callback) {
	f(url, opts, cb)
}

// CookieSource is implemented by fetchers that keep a cookie store.
type CookieSource interface {
	// Cookies returns the name/value pairs that would be sent to url.
	Cookies(url string) (map[string]string, error)
}
